package service

import (
	"context"
	"net/url"
	"time"

	"encoding-service/ddd/domain/entity"
	"encoding-service/ddd/domain/gateway"
	"encoding-service/ddd/domain/vo"
	"encoding-service/pkg/logger"
)

// ArtifactService 把已存储的输出投影成可渲染的视频源列表。
// 纯读取投影，只依赖持久化状态，不产生副作用。
type ArtifactService struct {
	storage         gateway.StorageGateway
	signedURLExpiry time.Duration
}

// NewArtifactService 创建产物投影服务。storage可为nil，此时相对键原样返回。
func NewArtifactService(storage gateway.StorageGateway, signedURLExpiry time.Duration) *ArtifactService {
	return &ArtifactService{storage: storage, signedURLExpiry: signedURLExpiry}
}

// RenderableSources 按存储顺序把outputs映射为 (video/<label>, url) 列表。
// outputs为空时返回空切片。
func (s *ArtifactService) RenderableSources(ctx context.Context, job *entity.EncodingJobEntity) []vo.RenderableSource {
	outputs := job.Outputs()
	if outputs.IsEmpty() {
		return []vo.RenderableSource{}
	}

	sources := make([]vo.RenderableSource, 0, outputs.Len())
	for _, e := range outputs.Entries() {
		sources = append(sources, vo.RenderableSource{
			MimeType: "video/" + e.Label,
			URL:      s.resolveURL(ctx, e.URL),
		})
	}
	return sources
}

// resolveURL 绝对URL原样返回，相对值当作对象键走存储网关
func (s *ArtifactService) resolveURL(ctx context.Context, value string) string {
	if u, err := url.Parse(value); err == nil && u.Scheme != "" {
		return value
	}
	if s.storage == nil {
		return value
	}

	if s.signedURLExpiry > 0 {
		signed, err := s.storage.PresignURL(ctx, value, s.signedURLExpiry)
		if err == nil {
			return signed
		}
		logger.Warnf("Presign output URL failed, falling back to public URL key=%s error=%v", value, err)
	}
	return s.storage.PublicURL(value)
}
