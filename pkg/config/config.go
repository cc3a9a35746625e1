package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server          ServerConfig          `mapstructure:"server"`
	Database        DatabaseConfig        `mapstructure:"database"`
	Redis           RedisConfig           `mapstructure:"redis"`
	Kafka           KafkaConfig           `mapstructure:"kafka"`
	JWT             JWTConfig             `mapstructure:"jwt"`
	Log             LogConfig             `mapstructure:"log"`
	Minio           MinioConfig           `mapstructure:"minio"`
	Encode          EncodeConfig          `mapstructure:"encode"`
	Sweeper         SweeperConfig         `mapstructure:"sweeper"`
	ServiceRegistry ServiceRegistryConfig `mapstructure:"service_registry"`
	Public          PublicConfig          `mapstructure:"public"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	Charset         string        `mapstructure:"charset"`
	ParseTime       bool          `mapstructure:"parse_time"`
	Loc             string        `mapstructure:"loc"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	EnableTLS    bool          `mapstructure:"enable_tls"`
}

// ServiceRegistryConfig registration configuration.
type ServiceRegistryConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Endpoints       []string      `mapstructure:"endpoints"`
	ServiceName     string        `mapstructure:"service_name"`
	ServiceID       string        `mapstructure:"service_id"`
	RegisterHost    string        `mapstructure:"register_host"`
	TTL             time.Duration `mapstructure:"ttl"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// MinioConfig MinIO配置
type MinioConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKey       string `mapstructure:"access_key"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SecretKey       string `mapstructure:"secret_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// PublicConfig 对外访问配置
type PublicConfig struct {
	// StorageBase 输出对象的公网访问前缀，例如 https://cdn.example.com/media
	StorageBase string `mapstructure:"storage_base"`
	// SiteOrigin 无请求上下文时解析相对源路径用的站点源
	SiteOrigin string `mapstructure:"site_origin"`
}

// EncodeConfig 编码服务配置
type EncodeConfig struct {
	// Provider 激活的编码服务商，目前支持 zencoder 和 fake
	Provider      string         `mapstructure:"provider"`
	Zencoder      ZencoderConfig `mapstructure:"zencoder"`
	OutputFormats []OutputFormat `mapstructure:"output_formats"`
	// NotifyURL 服务商回调通知地址（对外可达）
	NotifyURL string `mapstructure:"notify_url"`
	// SignedURLExpiry 相对输出走预签名URL时的有效期，0表示走公开URL
	SignedURLExpiry time.Duration `mapstructure:"signed_url_expiry"`
}

// ZencoderConfig Zencoder服务商配置
type ZencoderConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	OutputBase string        `mapstructure:"output_base"`
}

// OutputFormat 输出格式配置
type OutputFormat struct {
	Label      string `mapstructure:"label"`
	Resolution string `mapstructure:"resolution"`
	Bitrate    string `mapstructure:"bitrate"`
	Codec      string `mapstructure:"codec"`
}

// SweeperConfig 滞留作业巡检配置
type SweeperConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Interval   time.Duration `mapstructure:"interval"`
	PendingAge time.Duration `mapstructure:"pending_age"`
	BatchSize  int           `mapstructure:"batch_size"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Issuer     string        `mapstructure:"issuer"`
	ExpireTime time.Duration `mapstructure:"expire_time"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

// KafkaConfig Kafka配置
type KafkaConfig struct {
	BootstrapServers []string          `mapstructure:"bootstrap_servers"`
	ClientID         string            `mapstructure:"client_id"`
	Enabled          bool              `mapstructure:"enabled"`
	Topics           KafkaTopicsConfig `mapstructure:"topics"`
}

type KafkaTopicsConfig struct {
	EncodingEvents string `mapstructure:"encoding_events"`
}

// Load 加载配置
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// 保持向后兼容：默认开启服务注册，可配置关闭
	viper.SetDefault("service_registry.enabled", true)
	viper.SetDefault("service_registry.service_name", "encoding-service")
	viper.SetDefault("kafka.enabled", true)
	viper.SetDefault("kafka.client_id", "encoding-service")
	viper.SetDefault("kafka.bootstrap_servers", []string{"localhost:29092"})
	viper.SetDefault("kafka.topics.encoding_events", "encoding.events")
	viper.SetDefault("encode.provider", "zencoder")

	// 设置环境变量前缀
	viper.SetEnvPrefix("ENCODING")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	// 解析配置
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.normalize()

	return &config, nil
}

// normalize 补全配置的默认值
func (c *Config) normalize() {
	// 兼容不同的密钥字段
	if c.Minio.AccessKeyID == "" {
		c.Minio.AccessKeyID = c.Minio.AccessKey
	}
	if c.Minio.SecretAccessKey == "" {
		c.Minio.SecretAccessKey = c.Minio.SecretKey
	}

	if c.Encode.Provider == "" {
		c.Encode.Provider = "zencoder"
	}
	if c.Encode.Zencoder.BaseURL == "" {
		c.Encode.Zencoder.BaseURL = "https://app.zencoder.com/api/v2"
	}
	if c.Encode.Zencoder.Timeout <= 0 {
		c.Encode.Zencoder.Timeout = 30 * time.Second
	}
	if len(c.Encode.OutputFormats) == 0 {
		c.Encode.OutputFormats = []OutputFormat{
			{Label: "mp4", Codec: "h264"},
			{Label: "webm", Codec: "vp9"},
		}
	}

	if c.Sweeper.Interval <= 0 {
		c.Sweeper.Interval = 5 * time.Minute
	}
	if c.Sweeper.PendingAge <= 0 {
		c.Sweeper.PendingAge = 30 * time.Minute
	}
	if c.Sweeper.BatchSize <= 0 {
		c.Sweeper.BatchSize = 100
	}

	if c.ServiceRegistry.TTL == 0 {
		c.ServiceRegistry.TTL = 30 * time.Second
	}
	if c.ServiceRegistry.RefreshInterval == 0 {
		c.ServiceRegistry.RefreshInterval = 10 * time.Second
	}

	if len(c.Kafka.BootstrapServers) == 0 {
		c.Kafka.BootstrapServers = []string{"localhost:29092"}
	}
	if c.Kafka.ClientID == "" {
		c.Kafka.ClientID = "encoding-service"
	}
	if c.Kafka.Topics.EncodingEvents == "" {
		c.Kafka.Topics.EncodingEvents = "encoding.events"
	}
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database, c.Charset)
}

// GetRedisAddr 获取Redis地址
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetMinioEndpoint 获取MinIO端点
func (c *MinioConfig) GetMinioEndpoint() string {
	return c.Endpoint
}
