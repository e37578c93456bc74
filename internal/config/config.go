// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Gemini  GeminiConfig  `mapstructure:"gemini"`
	Chat    ChatConfig    `mapstructure:"chat"`
	Storage StorageConfig `mapstructure:"storage"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// GeminiConfig 存储 Gemini 生成式 AI 服务的配置。
type GeminiConfig struct {
	APIKey      string `mapstructure:"api_key"`
	TextModel   string `mapstructure:"text_model"`
	VisionModel string `mapstructure:"vision_model"`
}

// ChatConfig 存储会话业务相关的配置。
// WelcomeMessage 是新建或清空会话时播种的欢迎语，DefaultTitle 是未提供标题时的默认值。
type ChatConfig struct {
	WelcomeMessage string `mapstructure:"welcome_message"`
	DefaultTitle   string `mapstructure:"default_title"`
}

// StorageConfig 存储附件对象存储的配置。
// Provider 可选 "memory"（进程内，随重启丢失）或 "minio"。
type StorageConfig struct {
	Provider string      `mapstructure:"provider"`
	MinIO    MinIOConfig `mapstructure:"minio"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
	URLExpireHours  int    `mapstructure:"url_expire_hours"`
}

// UploadConfig 存储文件上传相关的限制。
type UploadConfig struct {
	MaxFileSizeMB int64 `mapstructure:"max_file_size_mb"`
}

// KafkaConfig 存储 Kafka 事件生产者的配置。Enabled 为 false 时不连接 Kafka。
type KafkaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}

	applyDefaults(&Conf)
}

// applyDefaults 为未配置的字段填充默认值。
func applyDefaults(c *Config) {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Gemini.TextModel == "" {
		c.Gemini.TextModel = "gemini-pro"
	}
	if c.Gemini.VisionModel == "" {
		c.Gemini.VisionModel = "gemini-pro-vision"
	}
	if c.Storage.Provider == "" {
		c.Storage.Provider = "memory"
	}
	if c.Storage.MinIO.URLExpireHours <= 0 {
		c.Storage.MinIO.URLExpireHours = 24
	}
	if c.Upload.MaxFileSizeMB <= 0 {
		c.Upload.MaxFileSizeMB = 10
	}
}
