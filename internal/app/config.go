package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (SHOPCART_ prefix), flags, or YAML config files.
type Config struct {
	Addr      string `default:"0.0.0.0:8080" usage:"API server listen address"`
	MongoURI  string `usage:"MongoDB connection URI (SHOPCART_MONGO_URI or MONGO_URI)" flag:"mongo-uri"`
	Database  string `default:"shopcart" usage:"MongoDB database name"`
	RedisAddr string `default:"" usage:"Redis address for the product cache (empty disables caching)" flag:"redis-addr"`

	APIKeyPepper string `usage:"HMAC pepper for admin API key hashing" flag:"api-key-pepper"`

	Auth     AuthConfig
	CORS     CORSConfig
	Graceful GracefulConfig
}

// AuthConfig controls token signing secrets and lifetimes. Access and
// refresh tokens use distinct secrets.
type AuthConfig struct {
	AccessSecret  string        `usage:"HMAC secret for access tokens" flag:"access-secret"`
	RefreshSecret string        `usage:"HMAC secret for refresh tokens" flag:"refresh-secret"`
	AccessTTL     time.Duration `default:"6h"   usage:"Access token lifetime" flag:"access-ttl"`
	RefreshTTL    time.Duration `default:"168h" usage:"Refresh token lifetime" flag:"refresh-ttl"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"http://localhost:3000" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"true" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SHOPCART",
		Files:     []string{"config.yaml", "/etc/shopcart/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.MongoURI == "" {
		return nil, errors.New("Mongo URI is required: set SHOPCART_MONGO_URI or MONGO_URI")
	}
	if cfg.Auth.AccessSecret == "" || cfg.Auth.RefreshSecret == "" {
		return nil, errors.New("token secrets are required: set SHOPCART_AUTH_ACCESS_SECRET and SHOPCART_AUTH_REFRESH_SECRET")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Atlas, Railway, Render, etc.) that use standard names like MONGO_URI
// and PORT to the application's SHOPCART_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.MongoURI == "" {
		if v := os.Getenv("MONGO_URI"); v != "" {
			c.MongoURI = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
