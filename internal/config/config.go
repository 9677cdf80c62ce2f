package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port int `env:"PORT" envDefault:"8080"`
	}

	Engine struct {
		// SchedulerInterval is how often the lifecycle sweep runs.
		SchedulerInterval time.Duration `env:"SCHEDULER_INTERVAL" envDefault:"1s"`

		// LockWait bounds how long a bid submission or transition may wait
		// for an auction's serialization slot before failing as busy.
		LockWait time.Duration `env:"LOCK_WAIT" envDefault:"2s"`
	}
}

func Load() (*Config, error) {
	// Missing .env is fine; in production the variables are set directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
