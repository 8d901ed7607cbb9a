package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPAddress       string        `envconfig:"HTTP_ADDR" default:":8080"`
	PostgresURL       string        `envconfig:"POSTGRES_URL" required:"true"`
	RedisAddress      string        `envconfig:"REDIS_ADDR" required:"true"`
	GatewayAddress    string        `envconfig:"GATEWAY_ADDR" required:"true"`
	PendingPaymentTTL time.Duration `envconfig:"PENDING_PAYMENT_TTL" default:"30m"`
}

func Load() (Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return c, nil
}
