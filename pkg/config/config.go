package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 项目配置结构体
// 进程启动时构造一次，显式传入各组件，不做全局可变状态。
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	GitHub      GitHubConfig      `yaml:"github"`
	ProductHunt ProductHuntConfig `yaml:"producthunt"`
	Data        DataConfig        `yaml:"data"`
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	DB          DBConfig          `yaml:"db"`
}

// LLMConfig LLM 相关配置
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// GitHubConfig GitHub 搜索相关配置
type GitHubConfig struct {
	Token    string   `yaml:"token"`
	Topics   []string `yaml:"topics"`
	MinStars int      `yaml:"min_stars"`
	DaysBack int      `yaml:"days_back"`
	Limit    int      `yaml:"limit"`
}

// ProductHuntConfig Product Hunt 相关配置
type ProductHuntConfig struct {
	Token   string `yaml:"token"`
	CSVPath string `yaml:"csv_path"` // 手工导出的 PH 数据文件，可选
}

// DataConfig 数据来源与缓存相关配置
type DataConfig struct {
	Source             string `yaml:"source"` // local | url | sample | hybrid
	URL                string `yaml:"url"`
	Dir                string `yaml:"dir"`
	CacheMaxAgeHours   int    `yaml:"cache_max_age_hours"`
	EnrichmentPath     string `yaml:"enrichment_path"`
	EnrichDescriptions bool   `yaml:"enrich_descriptions"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig 外部调用限速配置
type ConcurrencyConfig struct {
	QPS int `yaml:"qps"`
	RPM int `yaml:"rpm"`
}

// DBConfig 数据库相关配置，host 为空表示不落库
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// Default 返回内置默认配置
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			BaseURL: "https://api.anthropic.com/v1/",
			Model:   "claude-3-haiku-20240307",
		},
		GitHub: GitHubConfig{
			Topics:   []string{"startup", "saas", "ai-startup", "fintech", "productivity"},
			MinStars: 50,
			DaysBack: 180,
			Limit:    40,
		},
		Data: DataConfig{
			Source:           "local",
			Dir:              "data",
			CacheMaxAgeHours: 24,
			EnrichmentPath:   "data/manual_enrichment.csv",
		},
		Log: LogConfig{
			Level: "info",
		},
		Concurrency: ConcurrencyConfig{
			QPS: 1,
			RPM: 30,
		},
		DB: DBConfig{
			Port: 5432,
		},
	}
}

// LoadConfig 从指定路径加载配置并叠加环境变量
// 配置文件不存在时回退到默认配置，纯环境变量也能跑起来。
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv 环境变量覆盖文件配置，凭证类只从环境读更安全
func (c *Config) applyEnv() {
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.GitHub.Token = v
	}
	if v := os.Getenv("PRODUCTHUNT_TOKEN"); v != "" {
		c.ProductHunt.Token = v
	}
	if v := os.Getenv("DATA_SOURCE"); v != "" {
		c.Data.Source = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("DATA_SOURCE_URL"); v != "" {
		c.Data.URL = v
	}
}
