package model

// Config is the complete glosa configuration.
// Keys mirror ~/.glosa/config.yaml; viper decodes them through the
// mapstructure tags.
type Config struct {
	LLM    LLMConfig    `yaml:"llm" mapstructure:"llm"`
	Review ReviewConfig `yaml:"review" mapstructure:"review"`
	Cache  CacheConfig  `yaml:"cache" mapstructure:"cache"`
	Audit  AuditConfig  `yaml:"audit" mapstructure:"audit"`
	Hours  HoursConfig  `yaml:"hours" mapstructure:"hours"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	Batch  BatchConfig  `yaml:"batch" mapstructure:"batch"`
}

// LLMConfig selects and configures the review provider
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, function, "" (disabled)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`

	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// ReviewConfig tunes the analysis coordinator
type ReviewConfig struct {
	MinContentLength  int     `yaml:"min_content_length" mapstructure:"min_content_length"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`

	// ProviderLimits overrides the pace per provider name; a zero rate
	// lifts the limit
	ProviderLimits map[string]RateLimit `yaml:"provider_limits,omitempty" mapstructure:"provider_limits"`
}

// RateLimit is a token bucket setting
type RateLimit struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// CacheConfig controls caching of review responses
type CacheConfig struct {
	Enabled          bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir              string `yaml:"dir" mapstructure:"dir"`
	MemoryTTLMinutes int    `yaml:"memory_ttl_minutes" mapstructure:"memory_ttl_minutes"`
	DiskTTLHours     int    `yaml:"disk_ttl_hours" mapstructure:"disk_ttl_hours"`
}

// AuditConfig holds the chapter audit rules
type AuditConfig struct {
	RulesFile      string `yaml:"rules_file,omitempty" mapstructure:"rules_file"`
	CharacterLimit int    `yaml:"character_limit" mapstructure:"character_limit"`
	ApplyOnAccept  bool   `yaml:"apply_on_accept" mapstructure:"apply_on_accept"`
}

// HoursConfig holds time entry validation limits
type HoursConfig struct {
	DailyLimit float64 `yaml:"daily_limit" mapstructure:"daily_limit"`
	MaxEntry   float64 `yaml:"max_entry" mapstructure:"max_entry"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Listen       string `yaml:"listen" mapstructure:"listen"`
	ProjectTitle string `yaml:"project_title" mapstructure:"project_title"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format     string `yaml:"format" mapstructure:"format"` // text, json
	File       string `yaml:"file,omitempty" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
}

// BatchConfig configures batch audits
type BatchConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:  "",
			Model:     "",
			Timeout:   60,
			MaxTokens: 2000,
		},
		Review: ReviewConfig{
			MinContentLength:  50,
			RequestsPerSecond: 1,
			Burst:             2,
			ProviderLimits: map[string]RateLimit{
				"ollama": {RequestsPerSecond: 0, Burst: 1},
			},
		},
		Cache: CacheConfig{
			Enabled:          true,
			Dir:              ".glosa/cache",
			MemoryTTLMinutes: 30,
			DiskTTLHours:     24,
		},
		Audit: AuditConfig{
			CharacterLimit: 4000,
			ApplyOnAccept:  true,
		},
		Hours: HoursConfig{
			DailyLimit: 8,
			MaxEntry:   24,
		},
		Server: ServerConfig{
			Listen:       ":8080",
			ProjectTitle: "Projeto de P&D",
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  15,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Batch: BatchConfig{
			Workers: 4,
		},
	}
}
