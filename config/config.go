package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the wayfarer service
type Config struct {
	General GeneralConfig `mapstructure:"general"`
	Server  ServerConfig  `mapstructure:"server"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Storage StorageConfig `mapstructure:"storage"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Chat    ChatConfig    `mapstructure:"chat"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address   string `mapstructure:"address"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// LLMConfig contains LLM provider configurations
type LLMConfig struct {
	Providers map[string]LLMProvider `mapstructure:"providers"`
	Routing   LLMRoutingConfig       `mapstructure:"routing"`
}

// LLMProvider represents a single LLM provider configuration
type LLMProvider struct {
	Type    string              `mapstructure:"type"` // openai, anthropic
	APIKey  string              `mapstructure:"api_key"`
	BaseURL string              `mapstructure:"base_url"`
	Models  map[string]LLMModel `mapstructure:"models"`
	Timeout time.Duration       `mapstructure:"timeout"`
}

// LLMModel represents a specific model configuration
type LLMModel struct {
	Name        string  `mapstructure:"name"`
	APIName     string  `mapstructure:"api_name"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// LLMRoutingConfig defines which model to use for different tasks
type LLMRoutingConfig struct {
	Chat     string `mapstructure:"chat"`     // conversational plan/recommendation requests
	Fallback string `mapstructure:"fallback"` // fallback model
}

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Backend  string         `mapstructure:"backend"` // postgres (default) or redis
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN assembles a Postgres connection string from the configured fields.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// CatalogConfig controls the place catalog feeding prompt context.
type CatalogConfig struct {
	MaxPlaces int `mapstructure:"max_places"`
}

// ChatConfig controls the conversational pipeline.
type ChatConfig struct {
	// PlanKeywords overrides the built-in itinerary vocabulary when set.
	PlanKeywords []string `mapstructure:"plan_keywords"`

	// Prompt bounds. Zero means the built-in defaults.
	PlanContextLimit      int `mapstructure:"plan_context_limit"`
	RecommendContextLimit int `mapstructure:"recommend_context_limit"`
	PlanHistoryLimit      int `mapstructure:"plan_history_limit"`
	RecommendHistoryLimit int `mapstructure:"recommend_history_limit"`

	OracleTimeout time.Duration   `mapstructure:"oracle_timeout"`
	Retention     RetentionConfig `mapstructure:"retention"`
}

// RetentionConfig drives the out-of-band session sweep.
type RetentionConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Days    int    `mapstructure:"days"`
	Cron    string `mapstructure:"cron"`
}

func (c ChatConfig) Validate() error {
	if c.OracleTimeout < 0 {
		return fmt.Errorf("chat.oracle_timeout cannot be negative")
	}
	if c.Retention.Enabled && c.Retention.Days <= 0 {
		return fmt.Errorf("chat.retention.days must be > 0 when retention is enabled")
	}
	return nil
}

// Normalize applies defaults for unset chat values.
func (c ChatConfig) Normalize() ChatConfig {
	if c.PlanContextLimit <= 0 {
		c.PlanContextLimit = 15
	}
	if c.RecommendContextLimit <= 0 {
		c.RecommendContextLimit = 10
	}
	if c.PlanHistoryLimit <= 0 {
		c.PlanHistoryLimit = 5
	}
	if c.RecommendHistoryLimit <= 0 {
		c.RecommendHistoryLimit = 3
	}
	if c.OracleTimeout == 0 {
		c.OracleTimeout = 30 * time.Second
	}
	if c.Retention.Days == 0 {
		c.Retention.Days = 90
	}
	if c.Retention.Cron == "" {
		c.Retention.Cron = "@daily"
	}
	return c
}

// LoadConfig loads config from file
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("server.address", ":10002")
	viper.SetDefault("storage.backend", "postgres")
	viper.SetDefault("chat.retention.enabled", true)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
		viper.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("WAYFARER")
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	viper.AutomaticEnv() // read in environment variables that match (WAYFARER_*)

	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	var config Config
	if err = viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	config.Chat = config.Chat.Normalize()

	switch config.Storage.Backend {
	case "", "postgres":
		if err := config.Storage.Postgres.Validate(); err != nil {
			panic(err)
		}
	case "redis":
		if err := config.Storage.Redis.Validate(); err != nil {
			panic(err)
		}
	default:
		panic(fmt.Errorf("unsupported storage backend: %s", config.Storage.Backend))
	}
	if err := config.Chat.Validate(); err != nil {
		panic(err)
	}
	return &config
}
