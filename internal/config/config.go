package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	domai "github.com/bryanwahyu/resume-scrubber/internal/domain/ai"
)

const (
	EnvAPIKey      = "OPENAI_API_KEY"
	EnvAssistantID = "OPENAI_ASSISTANT_ID"
)

type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"readTimeout"`
		WriteTimeout time.Duration `yaml:"writeTimeout"`
		IdleTimeout  time.Duration `yaml:"idleTimeout"`
	} `yaml:"server"`

	Log struct {
		Level     string `yaml:"level"`
		Formatter string `yaml:"formatter"` // text | json | logfmt
	} `yaml:"log"`

	OpenAI struct {
		Model       string  `yaml:"model"`
		BaseURL     string  `yaml:"baseURL"`
		Temperature float32 `yaml:"temperature"`
		MaxTokens   int     `yaml:"maxTokens"`
	} `yaml:"openai"`

	Poll struct {
		Interval    time.Duration `yaml:"interval"`
		MaxAttempts int           `yaml:"maxAttempts"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"poll"`

	Upload struct {
		MaxBytes int64 `yaml:"maxBytes"`
	} `yaml:"upload"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"cors"`

	RateLimit struct {
		Enabled bool    `yaml:"enabled"`
		RPS     float64 `yaml:"rps"`
		Burst   int     `yaml:"burst"`
	} `yaml:"rateLimit"`

	// Auth maps client name to API key. Empty disables auth.
	Auth struct {
		APIKeys map[string]string `yaml:"apiKeys"`
	} `yaml:"auth"`

	Failures struct {
		Driver   string `yaml:"driver"` // mysql | postgres | "" (disabled)
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"failures"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Server.Port = 8080
	cfg.Server.ReadTimeout = 30 * time.Second
	// uploads block on the run poll, so the write timeout must outlive poll.timeout
	cfg.Server.WriteTimeout = 6 * time.Minute
	cfg.Server.IdleTimeout = 60 * time.Second
	cfg.Log.Level = "info"
	cfg.Log.Formatter = "text"
	cfg.OpenAI.Model = "gpt-4"
	cfg.OpenAI.Temperature = 0.3
	cfg.OpenAI.MaxTokens = 2000
	cfg.Poll.Interval = time.Second
	cfg.Poll.MaxAttempts = 300
	cfg.Poll.Timeout = 5 * time.Minute
	cfg.Upload.MaxBytes = 10 << 20
	cfg.CORS.AllowedOrigins = []string{"*"}
	cfg.RateLimit.RPS = 5
	cfg.RateLimit.Burst = 10
	return &cfg
}

// Load reads the yaml file at path on top of Default. A missing file is not an error.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.OpenAI.Model = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.OpenAI.BaseURL = v
	}
}

// FailuresDSN builds the driver specific DSN for the failure store.
func (c *Config) FailuresDSN() string {
	f := c.Failures
	switch f.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			f.User, f.Password, f.Host, f.Port, f.Name)
	case "postgres":
		ssl := f.SSLMode
		if ssl == "" {
			ssl = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			f.Host, f.Port, f.User, f.Password, f.Name, ssl)
	}
	return ""
}

// Secrets resolves provider credentials from the environment on every call,
// so a missing value surfaces per request rather than at startup.
type Secrets struct {
	Getenv func(string) string
}

func (s Secrets) getenv(key string) string {
	if s.Getenv != nil {
		return s.Getenv(key)
	}
	return os.Getenv(key)
}

func (s Secrets) APIKey() (string, error) {
	v := s.getenv(EnvAPIKey)
	if v == "" {
		return "", fmt.Errorf("%s is not set: %w", EnvAPIKey, domai.ErrMissingAPIKey)
	}
	return v, nil
}

func (s Secrets) AssistantID() (string, error) {
	v := s.getenv(EnvAssistantID)
	if v == "" {
		return "", fmt.Errorf("%s is not set: %w", EnvAssistantID, domai.ErrMissingAssistantID)
	}
	return v, nil
}

// Missing names the provider settings that are unset right now.
func (s Secrets) Missing() []string {
	var out []string
	for _, key := range []string{EnvAPIKey, EnvAssistantID} {
		if s.getenv(key) == "" {
			out = append(out, key)
		}
	}
	return out
}
