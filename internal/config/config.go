package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	AppEnv          string        `env:"APP_ENV" envDefault:"development"`
	GatewayAddr     string        `env:"GATEWAY_ADDR" envDefault:":9000"`
	RedisAddr       string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	AuthBaseURL     string        `env:"AUTH_BASE_URL" envDefault:"http://localhost:5000/api"`
	MLURL           string        `env:"ML_URL" envDefault:"http://localhost:8000/predict_all"`
	AuthQueue       string        `env:"AUTH_QUEUE" envDefault:"auth_queue"`
	TraitQueue      string        `env:"TRAIT_QUEUE" envDefault:"trait_queue"`
	DefaultQueue    string        `env:"DEFAULT_QUEUE" envDefault:"default"`
	OTPTTL          time.Duration `env:"OTP_TTL" envDefault:"600s"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1s"`
	ResultTTL       time.Duration `env:"RESULT_TTL" envDefault:"3600s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func Load() Config {
	var c Config
	if err := env.Parse(&c); err != nil {
		log.Fatal(err)
	}
	return c
}
