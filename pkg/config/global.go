package config

import "sync"

var (
	globalMu     sync.RWMutex
	globalConfig *Config
)

// SetGlobalConfig 设置全局配置（启动时调用一次）
func SetGlobalConfig(cfg *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig = cfg
}

// GetGlobalConfig 获取全局配置
func GetGlobalConfig() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalConfig
}
