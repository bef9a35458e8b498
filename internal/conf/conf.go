package conf

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 项目配置结构体
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	DB       DBConfig       `yaml:"db"`
	LLM      LLMConfig      `yaml:"llm"`
	Research ResearchConfig `yaml:"research"`
	Scraper  ScraperConfig  `yaml:"scraper"`
	Queue    QueueConfig    `yaml:"queue"`
	Log      LogConfig      `yaml:"log"`
	// Concurrency LLM 限流配置
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr    string `yaml:"addr"`
	Timeout string `yaml:"timeout"`
}

// DBConfig 数据库相关配置
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// LLMConfig LLM 相关配置
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// ResearchConfig 搜索研究数据源配置 (DataForSEO)
type ResearchConfig struct {
	BaseURL   string `yaml:"base_url"`
	AuthToken string `yaml:"auth_token"`
	// LocationCode 默认 2840 (United States)
	LocationCode int    `yaml:"location_code"`
	LanguageCode string `yaml:"language_code"`
}

// ScraperConfig 竞品页面抓取配置
type ScraperConfig struct {
	// Timeout 单个页面抓取超时（秒）
	Timeout int `yaml:"timeout"`
	// MaxConcurrency 并发抓取上限
	MaxConcurrency int `yaml:"max_concurrency"`
}

// QueueConfig 任务队列配置
type QueueConfig struct {
	// PollInterval 无任务时的轮询间隔（秒）
	PollInterval int `yaml:"poll_interval"`
	// MaxAttempts 单个任务最大尝试次数，超过后进入死信
	MaxAttempts int `yaml:"max_attempts"`
	// RetryDelay 失败任务重新入队的延迟（秒）
	RetryDelay int `yaml:"retry_delay"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig 并发控制配置
type ConcurrencyConfig struct {
	QPS int `yaml:"qps"`
	RPM int `yaml:"rpm"`
}

// LoadConfig 从指定路径加载配置
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Research.BaseURL == "" {
		c.Research.BaseURL = "https://api.dataforseo.com/v3"
	}
	if c.Research.LocationCode == 0 {
		c.Research.LocationCode = 2840
	}
	if c.Research.LanguageCode == "" {
		c.Research.LanguageCode = "en"
	}
	if c.Scraper.Timeout == 0 {
		c.Scraper.Timeout = 30
	}
	if c.Scraper.MaxConcurrency == 0 {
		c.Scraper.MaxConcurrency = 3
	}
	if c.Queue.PollInterval == 0 {
		c.Queue.PollInterval = 2
	}
	if c.Queue.MaxAttempts == 0 {
		c.Queue.MaxAttempts = 3
	}
	if c.Queue.RetryDelay == 0 {
		c.Queue.RetryDelay = 10
	}
	if c.Concurrency.QPS == 0 {
		c.Concurrency.QPS = 1
	}
	if c.Concurrency.RPM == 0 {
		c.Concurrency.RPM = 30
	}
}

// ServerTimeout 解析 HTTP 超时配置，非法值回退为 30s
func (c *ServerConfig) ServerTimeout() time.Duration {
	if c.Timeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
