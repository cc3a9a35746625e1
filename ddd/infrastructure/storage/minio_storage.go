package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"encoding-service/ddd/domain/gateway"
	"encoding-service/internal/resource"
	"encoding-service/pkg/config"
)

// MinioStorage MinIO存储网关实现。
// 负责把服务商回传的对象键换算成可访问URL。
type MinioStorage struct {
	minioResource *resource.MinioResource
	publicBase    string
	endpoint      string
	useSSL        bool
}

// NewMinioStorage 创建MinIO存储网关
func NewMinioStorage(minioResource *resource.MinioResource, cfg *config.Config) gateway.StorageGateway {
	return &MinioStorage{
		minioResource: minioResource,
		publicBase:    strings.TrimRight(cfg.Public.StorageBase, "/"),
		endpoint:      cfg.Minio.GetMinioEndpoint(),
		useSSL:        cfg.Minio.UseSSL,
	}
}

// PublicURL 把对象键拼成公开访问URL。
// 配置了公网前缀（CDN）优先用前缀，否则退回MinIO端点直链。
func (s *MinioStorage) PublicURL(objectKey string) string {
	key := strings.TrimLeft(objectKey, "/")
	if s.publicBase != "" {
		return s.publicBase + "/" + key
	}

	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.minioResource.GetBucketName(), key)
}

// PresignURL 为对象键签发限时访问URL
func (s *MinioStorage) PresignURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	key := strings.TrimLeft(objectKey, "/")
	signed, err := s.minioResource.GetClient().PresignedGetObject(
		ctx, s.minioResource.GetBucketName(), key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign object failed: %w", err)
	}
	return signed.String(), nil
}
