package provider

import (
	"fmt"

	"encoding-service/ddd/domain/gateway"
	"encoding-service/pkg/config"
)

// ForConfig 根据配置返回激活的服务商网关实现。
// 同一时刻只有一个实现处于激活状态。
func ForConfig(cfg *config.Config) (gateway.EncodingProvider, error) {
	switch cfg.Encode.Provider {
	case "zencoder":
		return NewZencoderProvider(cfg), nil
	case "fake":
		return NewFakeProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown encoding provider %q", cfg.Encode.Provider)
	}
}
