package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Token          string        `env:"TOKEN,required,notEmpty"`
	AllowedUsers   []int64       `env:"ALLOWED_USERS"`
	APIBaseURL     string        `env:"API_BASE_URL"            envDefault:"http://localhost:5000/api"`
	APITimeout     time.Duration `env:"API_TIMEOUT"             envDefault:"2m"`
	SessionIdleTTL time.Duration `env:"SESSION_IDLE_TTL"        envDefault:"24h"`
	HealthAddr     string        `env:"HEALTH_ADDR"`
	LogLevel       string        `env:"LOG_LEVEL"               envDefault:"info"`
	RatingGuard    string        `env:"RATING_GUARD"            envDefault:"permissive"`
	// ArticleCacheSize of 0 disables the article cache.
	ArticleCacheSize int           `env:"ARTICLE_CACHE_SIZE" envDefault:"256"`
	ArticleCacheTTL  time.Duration `env:"ARTICLE_CACHE_TTL"  envDefault:"30m"`
}

func LoadConfig() Config {
	return env.Must(Parse())
}

func Parse() (Config, error) {
	return env.ParseAs[Config]()
}
