package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Source     SourceConfig     `yaml:"source"`
	Database   DatabaseConfig   `yaml:"database"`
	Supabase   SupabaseConfig   `yaml:"supabase"`
	JWT        JWTConfig        `yaml:"jwt"`
	Cloudinary CloudinaryConfig `yaml:"cloudinary"`
	Firebase   FirebaseConfig   `yaml:"firebase"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Dashboard  DashboardConfig  `yaml:"dashboard"`
}

type ServerConfig struct {
	Port         string        `yaml:"port"`
	Env          string        `yaml:"env"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// SourceConfig selects where reports are read from: "supabase" (PostgREST)
// or "database" (direct SQL through gorm).
type SourceConfig struct {
	Kind string `yaml:"kind"`
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver"` // postgres, mysql, sqlite
	DSN             string        `yaml:"dsn"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type SupabaseConfig struct {
	URL            string        `yaml:"url"`
	ServiceRoleKey string        `yaml:"service_role_key"`
	Timeout        time.Duration `yaml:"timeout"`
}

// JWTConfig verifies admin access tokens. Tokens are issued by the auth
// provider and signed with its JWT secret.
type JWTConfig struct {
	AccessSecret string        `yaml:"access_secret"`
	AccessExpiry time.Duration `yaml:"access_expiry"`
	// Issuer is checked only when set.
	Issuer string `yaml:"issuer"`
}

type CloudinaryConfig struct {
	CloudName string `yaml:"cloud_name"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	ThumbSize int    `yaml:"thumb_size"`
}

type FirebaseConfig struct {
	ServiceAccountPath string `yaml:"service_account_path"`
	TopicPrefix        string `yaml:"topic_prefix"`
}

type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

type DashboardConfig struct {
	// ResolveReporters fetches profiles and fills reporter_name.
	ResolveReporters bool          `yaml:"resolve_reporters"`
	FetchTimeout     time.Duration `yaml:"fetch_timeout"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8099",
			Env:          "development",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Source: SourceConfig{Kind: "supabase"},
		Database: DatabaseConfig{
			Driver:          "postgres",
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		Supabase: SupabaseConfig{
			Timeout: 15 * time.Second,
		},
		JWT: JWTConfig{
			AccessExpiry: time.Hour,
		},
		Cloudinary: CloudinaryConfig{ThumbSize: 200},
		Firebase:   FirebaseConfig{TopicPrefix: "report_"},
		RateLimit: RateLimitConfig{
			Requests: 100,
			Window:   60 * time.Second,
		},
		Dashboard: DashboardConfig{
			ResolveReporters: true,
			FetchTimeout:     20 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (if any), then .env and the process environment.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadJWT reads the same layers as Load but skips data source validation, for
// commands that only sign or verify tokens.
func LoadJWT() (*JWTConfig, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	return &cfg.JWT, nil
}

func load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	// Missing .env is fine in production.
	_ = godotenv.Load()
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.Env, "APP_ENV")
	setString(&c.Source.Kind, "DATA_SOURCE")

	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.DSN, "DATABASE_URL")
	setBool(&c.Database.AutoMigrate, "DB_AUTO_MIGRATE")

	setString(&c.Supabase.URL, "SUPABASE_URL")
	setString(&c.Supabase.ServiceRoleKey, "SUPABASE_SERVICE_ROLE_KEY")
	setDuration(&c.Supabase.Timeout, "SUPABASE_TIMEOUT")

	setString(&c.JWT.AccessSecret, "JWT_SECRET")
	setString(&c.JWT.Issuer, "JWT_ISSUER")

	setString(&c.Cloudinary.CloudName, "CLOUDINARY_CLOUD_NAME")
	setString(&c.Cloudinary.APIKey, "CLOUDINARY_API_KEY")
	setString(&c.Cloudinary.APISecret, "CLOUDINARY_API_SECRET")

	setString(&c.Firebase.ServiceAccountPath, "FIREBASE_SERVICE_ACCOUNT_PATH")
	setString(&c.Firebase.TopicPrefix, "FIREBASE_TOPIC_PREFIX")

	setInt(&c.RateLimit.Requests, "RATE_LIMIT_REQUESTS")
	setDuration(&c.RateLimit.Window, "RATE_LIMIT_WINDOW")

	setBool(&c.Dashboard.ResolveReporters, "RESOLVE_REPORTERS")
	setDuration(&c.Dashboard.FetchTimeout, "FETCH_TIMEOUT")
}

// Validate checks that the selected data source is fully configured.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case "supabase":
		if c.Supabase.URL == "" || c.Supabase.ServiceRoleKey == "" {
			return fmt.Errorf("config: SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required for the supabase source")
		}
	case "database":
		if c.Database.DSN == "" {
			return fmt.Errorf("config: DATABASE_URL is required for the database source")
		}
	default:
		return fmt.Errorf("config: unknown data source %q", c.Source.Kind)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		*dst = v
	}
}
