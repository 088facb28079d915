package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	OIDC      OIDCConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host              string
	Port              string
	Password          string
	DB                int
	RevalidateChannel string
}

// OIDCConfig points at the external identity provider. The service never
// authenticates users itself; it only verifies bearer tokens.
type OIDCConfig struct {
	IssuerURL string
	ClientID  string
}

// JWTConfig is used only by the dev-mode token endpoint.
type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	UseRedis      bool
	WindowSeconds int
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5001")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_DATABASE", "weave")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REVALIDATE_CHANNEL", "revalidate")
	viper.SetDefault("JWT_ACCESS_TOKEN_TTL", 15)
	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:              viper.GetString("REDIS_HOST"),
			Port:              viper.GetString("REDIS_PORT"),
			Password:          os.Getenv("REDIS_PASSWORD"),
			DB:                0,
			RevalidateChannel: viper.GetString("REVALIDATE_CHANNEL"),
		},
		OIDC: OIDCConfig{
			IssuerURL: viper.GetString("OIDC_ISSUER_URL"),
			ClientID:  viper.GetString("OIDC_CLIENT_ID"),
		},
		JWT: JWTConfig{
			Secret:         os.Getenv("JWT_SECRET"),
			AccessTokenTTL: time.Duration(viper.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
	}

	// Basic validation
	if cfg.MongoDB.URI == "" {
		log.Println("WARNING: MONGODB_URI is not set; repositories will be unavailable")
	}

	return cfg, nil
}
