package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOwner struct {
	ownerType string
	ownerID   string
	attrs     map[string]string
	readErr   error
}

func (o *stubOwner) Identify() (string, string) {
	return o.ownerType, o.ownerID
}

func (o *stubOwner) ReadAttribute(name string) (string, error) {
	if o.readErr != nil {
		return "", o.readErr
	}
	return o.attrs[name], nil
}

func TestSourceResolverRelativePath(t *testing.T) {
	r := NewSourceResolver()
	owner := &stubOwner{attrs: map[string]string{"video": "/uploads/video.mov"}}

	got, err := r.Source(owner, "video", "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/uploads/video.mov", got)
}

func TestSourceResolverRelativePathWithoutLeadingSlash(t *testing.T) {
	r := NewSourceResolver()
	owner := &stubOwner{attrs: map[string]string{"video": "uploads/video.mov"}}

	got, err := r.Source(owner, "video", "https://example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/uploads/video.mov", got)
}

func TestSourceResolverAbsoluteURLUnchanged(t *testing.T) {
	r := NewSourceResolver()
	owner := &stubOwner{attrs: map[string]string{"video": "https://bucket.s3.amazonaws.com/raw/video.mov"}}

	got, err := r.Source(owner, "video", "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://bucket.s3.amazonaws.com/raw/video.mov", got)
}

func TestSourceResolverEmptyValue(t *testing.T) {
	r := NewSourceResolver()
	owner := &stubOwner{attrs: map[string]string{}}

	_, err := r.Source(owner, "video", "https://example.com")
	assert.Error(t, err)
}

func TestSourceResolverUnreadableAttribute(t *testing.T) {
	r := NewSourceResolver()
	owner := &stubOwner{readErr: errors.New("no such column")}

	_, err := r.Source(owner, "video", "https://example.com")
	assert.Error(t, err)
}

func TestSourceResolverMissingOrigin(t *testing.T) {
	r := NewSourceResolver()
	owner := &stubOwner{attrs: map[string]string{"video": "/uploads/video.mov"}}

	_, err := r.Source(owner, "video", "")
	assert.Error(t, err)
}
