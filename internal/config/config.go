package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `json:"http" yaml:"http"`
	Database DatabaseConfig `json:"database" yaml:"database"`
	Auth     AuthConfig     `json:"auth" yaml:"auth"`
	Log      LogConfig      `json:"log" yaml:"log"`
	Tracking TrackingConfig `json:"tracking" yaml:"tracking"`
	Tracing  TracingConfig  `json:"tracing" yaml:"tracing"`
	SeedPath string         `json:"seed_path" yaml:"seed_path"`
}

type HTTPConfig struct {
	Addr        string   `json:"addr" yaml:"addr"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Driver string `json:"driver" yaml:"driver"` // sqlite | postgres
	DSN    string `json:"dsn" yaml:"dsn"`
}

type AuthConfig struct {
	JWTSecret string        `json:"jwt_secret" yaml:"jwt_secret"`
	TokenTTL  time.Duration `json:"token_ttl" yaml:"token_ttl"`
}

type LogConfig struct {
	Mode string `json:"mode" yaml:"mode"` // dev | prod | test
}

type TrackingConfig struct {
	ViewedThresholdPercent int `json:"viewed_threshold_percent" yaml:"viewed_threshold_percent"`
}

type TracingConfig struct {
	Enabled      bool    `json:"enabled" yaml:"enabled"`
	ServiceName  string  `json:"service_name" yaml:"service_name"`
	OTLPEndpoint string  `json:"otlp_endpoint" yaml:"otlp_endpoint"`
	Insecure     bool    `json:"insecure" yaml:"insecure"`
	SampleRatio  float64 `json:"sample_ratio" yaml:"sample_ratio"`
}

const devSecret = "dev-secret-change-me"

func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr: ":8080",
			CORSOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
				"http://127.0.0.1:3000",
				"http://127.0.0.1:5173",
			},
		},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "./data/lessonhub.db"},
		Auth:     AuthConfig{JWTSecret: devSecret, TokenTTL: 24 * time.Hour},
		Log:      LogConfig{Mode: "dev"},
		Tracking: TrackingConfig{ViewedThresholdPercent: 80},
		Tracing:  TracingConfig{ServiceName: "lessonhub", SampleRatio: 1},
		SeedPath: "./data/catalog.json",
	}
}

// Load builds the configuration: defaults, then the optional file at path
// (YAML, or JSON for other extensions), then .env and process environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
			return fmt.Errorf("failed to decode YAML config file %s: %w", path, err)
		}
		return nil
	}
	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode JSON config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.HTTP.Addr, "HTTP_ADDR")
	setString(&cfg.Database.Driver, "DB_DRIVER")
	setString(&cfg.Database.DSN, "DB_DSN")
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Log.Mode, "LOG_MODE")
	setString(&cfg.SeedPath, "SEED_PATH")
	setString(&cfg.Tracing.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")

	if v, ok := lookup("CORS_ORIGINS"); ok {
		cfg.HTTP.CORSOrigins = splitList(v)
	}
	if v, ok := lookup("TOKEN_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TOKEN_TTL: %w", err)
		}
		cfg.Auth.TokenTTL = d
	}
	if v, ok := lookup("VIEWED_THRESHOLD_PERCENT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("VIEWED_THRESHOLD_PERCENT: %w", err)
		}
		cfg.Tracking.ViewedThresholdPercent = n
	}
	if v, ok := lookup("OTEL_ENABLED"); ok {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			cfg.Tracing.Enabled = true
		default:
			cfg.Tracing.Enabled = false
		}
	}
	return nil
}

func (c Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "sqlite3", "postgres":
	default:
		return fmt.Errorf("database.driver: unsupported %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if isProd(c.Log.Mode) && c.Auth.JWTSecret == devSecret {
		return errors.New("auth.jwt_secret must be changed in prod mode")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	if p := c.Tracking.ViewedThresholdPercent; p < 1 || p > 100 {
		return fmt.Errorf("tracking.viewed_threshold_percent must be in 1..100, got %d", p)
	}
	return nil
}

func isProd(mode string) bool {
	m := strings.ToLower(mode)
	return m == "prod" || m == "production"
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
