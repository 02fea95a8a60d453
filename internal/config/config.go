package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config - top-level application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Backend  BackendConfig  `yaml:"backend"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Relay    RelayConfig    `yaml:"relay"`
}

// ServerConfig - HTTP server settings
type ServerConfig struct {
	Port string `yaml:"port"`
}

// DatabaseConfig - PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// BackendConfig - fleet backend REST API settings
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// GatewayConfig - fixed credentials for the per-vessel gateway APIs.
// Vessels are reachable only over the server-side VPN; the browser never
// talks to a gateway directly.
type GatewayConfig struct {
	Scheme        string `yaml:"scheme"` // "http" or "https"
	Port          string `yaml:"port"`
	ClientID      string `yaml:"client_id"`
	ClientToken   string `yaml:"client_token"`
	BasicUser     string `yaml:"basic_user"`
	BasicPassword string `yaml:"basic_password"`
}

// RedisConfig - optional route-coordinate cache. Empty addr disables it.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTL      int    `yaml:"ttl_seconds"`
}

// AuthConfig - JWT settings
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	TokenTTL  int    `yaml:"token_ttl_hours"`
}

// RelayConfig - per-client rate limit for gateway relay routes
type RelayConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Environment overrides
	if envPort := os.Getenv("PORT"); envPort != "" {
		cfg.Server.Port = envPort
	}
	if envDBHost := os.Getenv("DB_HOST"); envDBHost != "" {
		cfg.Database.Host = envDBHost
	}
	if envBackendURL := os.Getenv("BACKEND_URL"); envBackendURL != "" {
		cfg.Backend.BaseURL = envBackendURL
	}
	if envBackendToken := os.Getenv("BACKEND_TOKEN"); envBackendToken != "" {
		cfg.Backend.Token = envBackendToken
	}
	if envJWTSecret := os.Getenv("JWT_SECRET"); envJWTSecret != "" {
		cfg.Auth.JWTSecret = envJWTSecret
	}
	if envRedisAddr := os.Getenv("REDIS_ADDR"); envRedisAddr != "" {
		cfg.Redis.Addr = envRedisAddr
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Gateway.Scheme == "" {
		cfg.Gateway.Scheme = "https"
	}
	if cfg.Gateway.Port == "" {
		cfg.Gateway.Port = "443"
	}
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 24
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = 300
	}
	if cfg.Relay.RequestsPerMinute <= 0 {
		cfg.Relay.RequestsPerMinute = 60
	}
	if cfg.Relay.Burst <= 0 {
		cfg.Relay.Burst = 20
	}
}

// TokenDuration returns the configured JWT lifetime
func (a AuthConfig) TokenDuration() time.Duration {
	return time.Duration(a.TokenTTL) * time.Hour
}

// CacheTTL returns the configured cache entry lifetime
func (r RedisConfig) CacheTTL() time.Duration {
	return time.Duration(r.TTL) * time.Second
}
