package shared

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"prod"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	ScreenAddr  string `env:"SCREEN_ADDR" envDefault:":8081"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9100"`

	MySQLDSN  string        `env:"MYSQL_DSN" envDefault:"root:root@tcp(localhost:3306)/reviews?parseTime=true&charset=utf8mb4,utf8&loc=UTC"`
	RedisAddr string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string        `env:"REDIS_PASSWORD"`
	RedisDB   int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"15m"`

	// ReviewsBaseURL is where the screen fetches pages. Empty means FixturePath.
	ReviewsBaseURL string        `env:"REVIEWS_BASE_URL"`
	ReviewsAPIKey  string        `env:"REVIEWS_API_KEY"`
	ReviewsRPS     int           `env:"REVIEWS_RPS" envDefault:"5"`
	FixturePath    string        `env:"FIXTURE_PATH" envDefault:"testdata/reviews.json"`
	FixtureLatency time.Duration `env:"FIXTURE_LATENCY" envDefault:"300ms"`

	PageSize        int     `env:"PAGE_SIZE" envDefault:"20"`
	PrefetchScreens float64 `env:"PREFETCH_SCREENS" envDefault:"2.5"`
	ThemeFile       string  `env:"THEME_FILE"`

	ImageCacheCount int           `env:"IMAGE_CACHE_COUNT" envDefault:"100"`
	ImageCacheBytes int64         `env:"IMAGE_CACHE_BYTES" envDefault:"52428800"`
	ImageWorkers    int           `env:"IMAGE_WORKERS" envDefault:"4"`
	ImageRedisTTL   time.Duration `env:"IMAGE_REDIS_TTL" envDefault:"24h"`

	ImportWorkers int `env:"IMPORT_WORKERS" envDefault:"4"`
	ImportBatch   int `env:"IMPORT_BATCH" envDefault:"100"`
}

func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	if c.ReviewsBaseURL == "" {
		log.Warn().Str("fixture", c.FixturePath).Msg("REVIEWS_BASE_URL is empty; serving fixture reviews")
	}
	return c, nil
}

func (c Config) Validate() error {
	switch {
	case c.PageSize <= 0:
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	case c.PrefetchScreens <= 0:
		return fmt.Errorf("PREFETCH_SCREENS must be positive, got %v", c.PrefetchScreens)
	case c.ImageCacheCount <= 0 || c.ImageCacheBytes <= 0:
		return fmt.Errorf("image cache limits must be positive")
	case c.ImportBatch <= 0 || c.ImportWorkers <= 0:
		return fmt.Errorf("IMPORT_BATCH and IMPORT_WORKERS must be positive")
	}
	return nil
}
