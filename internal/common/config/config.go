package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	// Storage selects the repository backend: "file" keeps a JSON snapshot
	// on disk, "redis" uses the shared Redis instance.
	Storage string `env:"STORAGE_BACKEND" envDefault:"file"`
	DataDir string `env:"DATA_DIR" envDefault:"./data"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Discord struct {
		BotToken string `env:"BOT_TOKEN,required"`
		// GuildID scopes slash command registration to a single guild for
		// development; empty registers commands globally.
		GuildID      string   `env:"GUILD_ID" envDefault:""`
		AdminRoleIDs []string `env:"ADMIN_ROLE_IDS" envSeparator:","`
	}

	Scheduler struct {
		SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"60s"`
		VoiceTick     time.Duration `env:"VOICE_TICK" envDefault:"1m"`
	}
}

func Load() *Config {
	// A missing .env file is fine; in production the variables are set
	// directly in the environment.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	return cfg
}
