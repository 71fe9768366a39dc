package config

import (
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone  = "UTC"
	configPathEnv    = "DIGIIBUZ_CONFIG"
	databaseDSNEnv   = "DATABASE_DSN"
	databaseDriver   = "DATABASE_DRIVER"
	openAIAPIKeyEnv  = "OPENAI_API_KEY"
	openAIModelEnv   = "OPENAI_MODEL"
	openAIBaseURLEnv = "OPENAI_BASE_URL"
	redisAddrEnv     = "REDIS_ADDR"
	redisPassEnv     = "REDIS_PASSWORD"
	serviceKeyEnv    = "SERVICE_KEY"
	httpAddrEnv      = "HTTP_ADDR"
	logLevelEnv      = "LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	WordPress  WordPressConfig  `yaml:"wordpress"`
	Generation GenerationConfig `yaml:"generation"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// HTTPConfig describes the function endpoints server.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ServiceKey      string        `yaml:"serviceKey"`
	AllowOrigins    []string      `yaml:"allowOrigins"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// DatabaseConfig describes the SQL backend. Driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// RedisConfig enables cross-instance publish locks when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	LockTTL  time.Duration `yaml:"lockTtl"`
}

// SchedulerConfig defines when the automation tick runs.
type SchedulerConfig struct {
	Enabled        bool           `yaml:"enabled"`
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	StaleAfter     time.Duration  `yaml:"staleAfter"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// OpenAIConfig defines how to contact the chat-completion API.
type OpenAIConfig struct {
	BaseURL      string  `yaml:"baseUrl"`
	Model        string  `yaml:"model"`
	APIKey       string  `yaml:"apiKey"`
	SystemPrompt string  `yaml:"systemPrompt"`
	MaxTokens    int64   `yaml:"maxTokens"`
	Temperature  float64 `yaml:"temperature"`
}

// WordPressConfig bounds every outbound call to tenant sites.
type WordPressConfig struct {
	ProbeTimeout   time.Duration `yaml:"probeTimeout"`
	PublishTimeout time.Duration `yaml:"publishTimeout"`
	MediaTimeout   time.Duration `yaml:"mediaTimeout"`
	PreflightDelay time.Duration `yaml:"preflightDelay"`
	MaxRedirects   int           `yaml:"maxRedirects"`
	UserAgent      string        `yaml:"userAgent"`
	CategoryTTL    time.Duration `yaml:"categoryTtl"`
}

// GenerationConfig holds defaults applied to generated drafts.
type GenerationConfig struct {
	DefaultPrompt string `yaml:"defaultPrompt"`
	DefaultTitle  string `yaml:"defaultTitle"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			fileCfg, err := Parse(raw)
			if err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// Parse decodes a YAML document without applying defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(databaseDriver); v != "" {
		c.Database.Driver = strings.ToLower(v)
	}

	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv(openAIModelEnv); v != "" {
		c.OpenAI.Model = v
	}
	if v := os.Getenv(openAIBaseURLEnv); v != "" {
		c.OpenAI.BaseURL = v
	}

	if v := os.Getenv(redisAddrEnv); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv(redisPassEnv); v != "" {
		c.Redis.Password = v
	}

	if v := os.Getenv(serviceKeyEnv); v != "" {
		c.HTTP.ServiceKey = v
	}
	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}
	if override.HTTP.ServiceKey != "" {
		base.HTTP.ServiceKey = override.HTTP.ServiceKey
	}
	if len(override.HTTP.AllowOrigins) > 0 {
		base.HTTP.AllowOrigins = override.HTTP.AllowOrigins
	}
	if override.HTTP.ShutdownTimeout > 0 {
		base.HTTP.ShutdownTimeout = override.HTTP.ShutdownTimeout
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
		if base.Database.Driver == "" {
			base.Database.Driver = defaultConfig().Database.Driver
		}
	}

	if override.Redis.Addr != "" {
		base.Redis.Addr = override.Redis.Addr
		base.Redis.Password = override.Redis.Password
		base.Redis.DB = override.Redis.DB
	}
	if override.Redis.LockTTL > 0 {
		base.Redis.LockTTL = override.Redis.LockTTL
	}

	if override.Scheduler.Enabled {
		base.Scheduler.Enabled = true
	}
	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	if override.Scheduler.StaleAfter > 0 {
		base.Scheduler.StaleAfter = override.Scheduler.StaleAfter
	}

	if override.OpenAI.BaseURL != "" {
		base.OpenAI.BaseURL = override.OpenAI.BaseURL
	}
	if override.OpenAI.Model != "" {
		base.OpenAI.Model = override.OpenAI.Model
	}
	if override.OpenAI.APIKey != "" {
		base.OpenAI.APIKey = override.OpenAI.APIKey
	}
	if override.OpenAI.SystemPrompt != "" {
		base.OpenAI.SystemPrompt = override.OpenAI.SystemPrompt
	}
	if override.OpenAI.MaxTokens > 0 {
		base.OpenAI.MaxTokens = override.OpenAI.MaxTokens
	}
	if override.OpenAI.Temperature > 0 {
		base.OpenAI.Temperature = override.OpenAI.Temperature
	}

	wp := override.WordPress
	if wp.ProbeTimeout > 0 {
		base.WordPress.ProbeTimeout = wp.ProbeTimeout
	}
	if wp.PublishTimeout > 0 {
		base.WordPress.PublishTimeout = wp.PublishTimeout
	}
	if wp.MediaTimeout > 0 {
		base.WordPress.MediaTimeout = wp.MediaTimeout
	}
	if wp.PreflightDelay > 0 {
		base.WordPress.PreflightDelay = wp.PreflightDelay
	}
	if wp.MaxRedirects > 0 {
		base.WordPress.MaxRedirects = wp.MaxRedirects
	}
	if wp.UserAgent != "" {
		base.WordPress.UserAgent = wp.UserAgent
	}
	if wp.CategoryTTL > 0 {
		base.WordPress.CategoryTTL = wp.CategoryTTL
	}

	if override.Generation.DefaultPrompt != "" {
		base.Generation.DefaultPrompt = override.Generation.DefaultPrompt
	}
	if override.Generation.DefaultTitle != "" {
		base.Generation.DefaultTitle = override.Generation.DefaultTitle
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info"},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			AllowOrigins:    []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "data/digiibuz.db"},
		Redis:    RedisConfig{LockTTL: 2 * time.Minute},
		Scheduler: SchedulerConfig{
			Enabled:        true,
			CronExpression: "@every 1m",
			Timezone:       defaultTimezone,
			StaleAfter:     15 * time.Minute,
			location:       tz,
		},
		OpenAI: OpenAIConfig{
			Model:        "gpt-3.5-turbo",
			SystemPrompt: "Vous êtes un expert en rédaction web SEO qui génère du contenu HTML optimisé.",
			MaxTokens:    1500,
			Temperature:  0.7,
		},
		WordPress: WordPressConfig{
			ProbeTimeout:   10 * time.Second,
			PublishTimeout: 15 * time.Second,
			MediaTimeout:   30 * time.Second,
			MaxRedirects:   5,
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			CategoryTTL:    5 * time.Minute,
		},
		Generation: GenerationConfig{
			DefaultPrompt: "Vous êtes un expert en rédaction de contenu SEO.",
			DefaultTitle:  "Nouveau contenu généré",
		},
	}
}
