package gateway

import (
	"context"
	"time"
)

// StorageGateway 存储网关。
// 服务商回传的输出可能是对象存储里的相对键，展示前需要换成可访问的URL。
type StorageGateway interface {
	// PublicURL 把对象键拼成公开访问URL
	PublicURL(objectKey string) string

	// PresignURL 为对象键签发限时访问URL
	PresignURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
}
