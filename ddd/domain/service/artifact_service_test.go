package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"encoding-service/ddd/domain/entity"
	"encoding-service/ddd/domain/vo"
)

type stubStorage struct {
	presignErr error
}

func (s *stubStorage) PublicURL(objectKey string) string {
	return "https://cdn.example.com/" + objectKey
}

func (s *stubStorage) PresignURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	return "https://minio.example.com/" + objectKey + "?signed", nil
}

func jobWithOutputs(t *testing.T, pairs ...string) *entity.EncodingJobEntity {
	t.Helper()
	outputs := vo.NewOutputs()
	for i := 0; i+1 < len(pairs); i += 2 {
		outputs.Set(pairs[i], pairs[i+1])
	}
	job := entity.NewEncodingJobEntity("article", "42", "video")
	job.SetOutputs(outputs)
	return job
}

func TestRenderableSourcesOrderAndMime(t *testing.T) {
	svc := NewArtifactService(&stubStorage{}, 0)
	job := jobWithOutputs(t,
		"webm", "https://cdn.example.com/a.webm",
		"mp4", "https://cdn.example.com/a.mp4",
	)

	sources := svc.RenderableSources(context.Background(), job)
	require.Len(t, sources, 2)
	assert.Equal(t, "video/webm", sources[0].MimeType)
	assert.Equal(t, "https://cdn.example.com/a.webm", sources[0].URL)
	assert.Equal(t, "video/mp4", sources[1].MimeType)
}

func TestRenderableSourcesEmptyOutputs(t *testing.T) {
	svc := NewArtifactService(&stubStorage{}, 0)
	job := entity.NewEncodingJobEntity("article", "42", "video")

	sources := svc.RenderableSources(context.Background(), job)
	assert.NotNil(t, sources)
	assert.Empty(t, sources)
}

func TestRenderableSourcesResolvesRelativeKeys(t *testing.T) {
	svc := NewArtifactService(&stubStorage{}, 0)
	job := jobWithOutputs(t, "mp4", "encodings/abc/mp4.mp4")

	sources := svc.RenderableSources(context.Background(), job)
	require.Len(t, sources, 1)
	assert.Equal(t, "https://cdn.example.com/encodings/abc/mp4.mp4", sources[0].URL)
}

func TestRenderableSourcesPresignsWhenConfigured(t *testing.T) {
	svc := NewArtifactService(&stubStorage{}, time.Hour)
	job := jobWithOutputs(t, "mp4", "encodings/abc/mp4.mp4")

	sources := svc.RenderableSources(context.Background(), job)
	require.Len(t, sources, 1)
	assert.Equal(t, "https://minio.example.com/encodings/abc/mp4.mp4?signed", sources[0].URL)
}

func TestRenderableSourcesPresignFallsBackToPublic(t *testing.T) {
	svc := NewArtifactService(&stubStorage{presignErr: errors.New("unreachable")}, time.Hour)
	job := jobWithOutputs(t, "mp4", "encodings/abc/mp4.mp4")

	sources := svc.RenderableSources(context.Background(), job)
	require.Len(t, sources, 1)
	assert.Equal(t, "https://cdn.example.com/encodings/abc/mp4.mp4", sources[0].URL)
}

func TestRenderableSourcesNilStorageKeepsKey(t *testing.T) {
	svc := NewArtifactService(nil, 0)
	job := jobWithOutputs(t, "mp4", "encodings/abc/mp4.mp4")

	sources := svc.RenderableSources(context.Background(), job)
	require.Len(t, sources, 1)
	assert.Equal(t, "encodings/abc/mp4.mp4", sources[0].URL)
}
