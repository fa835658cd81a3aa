// Package config 从YAML加载服务配置，环境变量可覆盖文件中的值
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v2"

	"fauxpas/logger"
)

// 覆盖配置文件的环境变量
const (
	EnvConfigPath  = "FAUXPAS_CONFIG"
	EnvPort        = "FAUXPAS_PORT"
	EnvBundlePath  = "FAUXPAS_BUNDLE_PATH"
	EnvLogLevel    = "FAUXPAS_LOG_LEVEL"
	EnvHistoryPath = "FAUXPAS_HISTORY_PATH"

	DefaultPath = "config.yaml"
)

// Config 服务配置
type Config struct {
	Http     HttpConfig     `yaml:"http"`
	Log      logger.Config  `yaml:"log"`
	Model    ModelConfig    `yaml:"model"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	History  HistoryConfig  `yaml:"history"`
}

// HttpConfig HTTP服务配置
type HttpConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`

	// RateLimit 全局每秒请求数，0表示不限制
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// ModelConfig 模型文件配置
type ModelConfig struct {
	BundlePath string `yaml:"bundle_path"`
	// Watch 模型文件变更时输出警告
	Watch bool `yaml:"watch"`
}

// PipelineConfig 推理管道配置
type PipelineConfig struct {
	CacheSize int `yaml:"cache_size"`
}

// HistoryConfig 设置Path后启用SQLite预测历史
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Http: HttpConfig{
			Port:           7860,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			AllowedOrigins: []string{"*"},
			MaxBodyBytes:   1 << 20,
			RateBurst:      20,
		},
		Log: logger.Config{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Model: ModelConfig{
			BundlePath: "models/mushroom_bundle.json",
			Watch:      true,
		},
		Pipeline: PipelineConfig{CacheSize: 256},
	}
}

// Path 返回配置文件路径，优先使用FAUXPAS_CONFIG
func Path() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultPath
}

// Load 在默认值之上读取配置文件，应用环境变量并校验
// 文件不存在不视为错误
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(ExpandPath(path))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Model.BundlePath = ExpandPath(cfg.Model.BundlePath)
	cfg.History.Path = ExpandPath(cfg.History.Path)
	cfg.Log.File = ExpandPath(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "%s", EnvPort)
		}
		c.Http.Port = port
	}
	if v := os.Getenv(EnvBundlePath); v != "" {
		c.Model.BundlePath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v, ok := os.LookupEnv(EnvHistoryPath); ok {
		c.History.Path = v
	}
	return nil
}

// Validate 返回第一个无效配置项
func (c *Config) Validate() error {
	if c.Http.Port < 1 || c.Http.Port > 65535 {
		return errors.Newf("http.port %d out of range", c.Http.Port)
	}
	if strings.TrimSpace(c.Model.BundlePath) == "" {
		return errors.New("model.bundle_path is required")
	}
	if c.Pipeline.CacheSize < 0 {
		return errors.Newf("pipeline.cache_size must not be negative, got %d", c.Pipeline.CacheSize)
	}
	if c.Http.RateLimit < 0 {
		return errors.Newf("http.rate_limit must not be negative, got %g", c.Http.RateLimit)
	}
	if c.Http.MaxBodyBytes < 0 {
		return errors.Newf("http.max_body_bytes must not be negative, got %d", c.Http.MaxBodyBytes)
	}
	return nil
}

// ExpandPath 展开路径中的~和环境变量
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	path = os.ExpandEnv(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
