// Package config loads process configuration from an optional YAML file,
// a .env file, and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Vertex    VertexConfig   `yaml:"vertex"`
	Pipeline  PipelineConfig `yaml:"pipeline"`
	Server    ServerConfig   `yaml:"server"`
	Storage   StorageConfig  `yaml:"storage"`
	Music     MusicConfig    `yaml:"music"`
	LogLevel  string         `yaml:"log_level"`
	Helplines []Helpline     `yaml:"helplines"`
}

// VertexConfig identifies the remote model.
type VertexConfig struct {
	Project         string        `yaml:"project"`
	Location        string        `yaml:"location"`
	ModelID         string        `yaml:"model_id"`
	BaseURL         string        `yaml:"base_url"`
	Timeout         time.Duration `yaml:"timeout"`
	TokenCachePath  string        `yaml:"token_cache"`
	MaxOutputTokens int           `yaml:"max_output_tokens"` // 0 keeps the model default
	Temperature     float64       `yaml:"temperature"`       // 0 keeps the model default
}

// PipelineConfig controls fallback behaviour and local data files.
type PipelineConfig struct {
	AllowFallback    bool   `yaml:"allow_fallback"`
	SafetyModelPath  string `yaml:"safety_model_path"`
	MoodsCSV         string `yaml:"moods_csv"`
	AffirmationsCSV  string `yaml:"affirmations_csv"`
	RandomSeed       *int64 `yaml:"random_seed"`
	BatchConcurrency int    `yaml:"batch_concurrency"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageConfig holds optional persistence backends.
type StorageConfig struct {
	DatabaseURL string        `yaml:"database_url"`
	RedisURL    string        `yaml:"redis_url"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
}

// MusicConfig holds optional recommendation provider credentials.
type MusicConfig struct {
	SpotifyID     string `yaml:"spotify_id"`
	SpotifySecret string `yaml:"spotify_secret"`
	LastFMAPIKey  string `yaml:"lastfm_api_key"`
}

// Helpline is a crisis contact returned with flagged check-ins.
type Helpline struct {
	Name   string `yaml:"name" json:"name"`
	Number string `yaml:"number" json:"number"`
}

// DefaultHelplines are used when none are configured.
var DefaultHelplines = []Helpline{
	{Name: "Tele MANAS", Number: "14416"},
	{Name: "KIRAN Mental Health Helpline", Number: "1800-599-0019"},
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads .env (if present), then the YAML file at path (if present),
// then environment overrides. An empty path skips the YAML file.
func Load(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("GCP_PROJECT"); v != "" {
		c.Vertex.Project = v
	} else if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		c.Vertex.Project = v
	}
	if v := os.Getenv("GCP_LOCATION"); v != "" {
		c.Vertex.Location = v
	}
	if v := os.Getenv("VERTEX_MODEL_ID"); v != "" {
		c.Vertex.ModelID = v
	}
	if v := os.Getenv("VERTEX_BASE_URL"); v != "" {
		c.Vertex.BaseURL = v
	}
	if v := os.Getenv("VERTEX_TOKEN_CACHE"); v != "" {
		c.Vertex.TokenCachePath = v
	}
	if v := os.Getenv("VERTEX_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing VERTEX_TIMEOUT: %w", err)
		}
		c.Vertex.Timeout = d
	}
	if v := os.Getenv("VERTEX_MAX_OUTPUT_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing VERTEX_MAX_OUTPUT_TOKENS: %w", err)
		}
		c.Vertex.MaxOutputTokens = n
	}
	if v := os.Getenv("VERTEX_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parsing VERTEX_TEMPERATURE: %w", err)
		}
		c.Vertex.Temperature = f
	}

	if v := os.Getenv("ALLOW_FALLBACK"); v != "" {
		c.Pipeline.AllowFallback = parseBool(v)
	}
	if v := os.Getenv("SAFETY_MODEL_PATH"); v != "" {
		c.Pipeline.SafetyModelPath = v
	}
	if v := os.Getenv("MOODS_CSV"); v != "" {
		c.Pipeline.MoodsCSV = v
	}
	if v := os.Getenv("AFFIRMATIONS_CSV"); v != "" {
		c.Pipeline.AffirmationsCSV = v
	}
	if v := os.Getenv("RANDOM_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing RANDOM_SEED: %w", err)
		}
		c.Pipeline.RandomSeed = &seed
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing SERVER_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Storage.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Storage.RedisURL = v
	}
	if v := os.Getenv("RECOMMEND_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing RECOMMEND_CACHE_TTL: %w", err)
		}
		c.Storage.CacheTTL = d
	}

	if v := os.Getenv("SPOTIFY_ID"); v != "" {
		c.Music.SpotifyID = v
	}
	if v := os.Getenv("SPOTIFY_SECRET"); v != "" {
		c.Music.SpotifySecret = v
	}
	if v := os.Getenv("LASTFM_API_KEY"); v != "" {
		c.Music.LastFMAPIKey = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Vertex.Location == "" {
		c.Vertex.Location = "asia-south1"
	}
	if c.Vertex.ModelID == "" {
		c.Vertex.ModelID = "gemini-2.5-flash"
	}
	if c.Vertex.Timeout == 0 {
		c.Vertex.Timeout = 30 * time.Second
	}
	if c.Pipeline.SafetyModelPath == "" {
		c.Pipeline.SafetyModelPath = "safety_model.json"
	}
	if c.Pipeline.MoodsCSV == "" {
		c.Pipeline.MoodsCSV = "moods.csv"
	}
	if c.Pipeline.AffirmationsCSV == "" {
		c.Pipeline.AffirmationsCSV = "affirmations.csv"
	}
	if c.Pipeline.BatchConcurrency == 0 {
		c.Pipeline.BatchConcurrency = 4
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Storage.CacheTTL == 0 {
		c.Storage.CacheTTL = 24 * time.Hour
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if len(c.Helplines) == 0 {
		c.Helplines = DefaultHelplines
	}
}

// Validate checks values that defaults cannot repair. A missing project is
// not an error here; the model client reports it when it is built.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Vertex.Timeout < 0 {
		return fmt.Errorf("invalid vertex timeout %s", c.Vertex.Timeout)
	}
	if c.Vertex.MaxOutputTokens < 0 {
		return fmt.Errorf("invalid vertex max output tokens %d", c.Vertex.MaxOutputTokens)
	}
	if c.Vertex.Temperature < 0 || c.Vertex.Temperature > 2 {
		return fmt.Errorf("invalid vertex temperature %v (want 0-2)", c.Vertex.Temperature)
	}
	if c.Pipeline.BatchConcurrency < 0 {
		return fmt.Errorf("invalid batch concurrency %d", c.Pipeline.BatchConcurrency)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps debug|info|warn|error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
