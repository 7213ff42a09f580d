package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/utiibeauty/parlour/libs/config"
	otelx "github.com/utiibeauty/parlour/libs/otel"
)

type apiConfig struct {
	ServiceName        string `envconfig:"SERVICE_NAME" default:"parlour-api"`
	Port               string `envconfig:"PORT" default:"8080"`
	DatabaseURL        string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns         int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	JWTSecret          string `envconfig:"JWT_SECRET" required:"true"`
	AccessTTLMinutes   int    `envconfig:"ACCESS_TTL_MINUTES" default:"60"`
	RefreshTTLHours    int    `envconfig:"REFRESH_TTL_HOURS" default:"720"`
	AdminEmail         string `envconfig:"ADMIN_EMAIL"`
	AdminPassword      string `envconfig:"ADMIN_PASSWORD"`
	ReviewAutoApprove  bool   `envconfig:"REVIEW_AUTO_APPROVE" default:"false"`
	ShopStatusSeed     bool   `envconfig:"SHOP_STATUS_SEED" default:"true"`
	RedisAddr          string `envconfig:"REDIS_ADDR"`
	RateLimitPerMinute int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"30"`
	KafkaBrokers       string `envconfig:"KAFKA_BROKERS"`
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS"`

	Tracing otelx.Config `ignored:"true"`
}

// minJWTSecretLen matches the HS256 key size.
const minJWTSecretLen = 32

func loadConfig() (apiConfig, error) {
	var cfg apiConfig
	if err := config.Load("", &cfg); err != nil {
		return apiConfig{}, err
	}
	tracing, err := otelx.ConfigFromEnv(cfg.ServiceName)
	if err != nil {
		return apiConfig{}, err
	}
	cfg.Tracing = tracing
	return cfg, cfg.validate()
}

func (c apiConfig) validate() error {
	if err := config.ValidPort("PORT", c.Port); err != nil {
		return err
	}
	if len(c.JWTSecret) < minJWTSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", minJWTSecretLen)
	}
	if c.AccessTTLMinutes <= 0 {
		return errors.New("ACCESS_TTL_MINUTES must be positive")
	}
	if c.RefreshTTLHours <= 0 {
		return errors.New("REFRESH_TTL_HOURS must be positive")
	}
	if c.RateLimitPerMinute <= 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}

func (c apiConfig) accessTTL() time.Duration {
	return time.Duration(c.AccessTTLMinutes) * time.Minute
}

func (c apiConfig) refreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLHours) * time.Hour
}
