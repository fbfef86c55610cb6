package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything quizd needs: where to listen, where quiz
// definition files live, and which store backend persists session state.
type Config struct {
	Env      string `mapstructure:"env"`
	HTTPAddr string `mapstructure:"http_addr"`

	// QuizDir and QuizBaseURL select the definition source; the URL wins when
	// both are set.
	QuizDir     string `mapstructure:"quiz_dir"`
	QuizBaseURL string `mapstructure:"quiz_base_url"`

	StoreDriver string        `mapstructure:"store_driver"` // memory|sqlite|postgres|redis
	DBDSN       string        `mapstructure:"-"`
	RedisAddr   string        `mapstructure:"redis_addr"`
	RedisTTL    time.Duration `mapstructure:"redis_ttl"`

	CORSOrigins []string `mapstructure:"cors_origins"`
}

// Load reads configuration from an optional config file and the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetDefault("env", "local")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("quiz_dir", "./quizzes")
	v.SetDefault("store_driver", "sqlite")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_ttl", "0s")
	v.SetDefault("cors_origins", []string{"http://localhost:3000"})

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("db_dsn", "DB_DSN")
	_ = v.BindEnv("env", "APP_ENV")
	_ = v.BindEnv("http_addr", "HTTP_ADDR")
	_ = v.BindEnv("quiz_dir", "QUIZ_DIR")
	_ = v.BindEnv("quiz_base_url", "QUIZ_BASE_URL")
	_ = v.BindEnv("store_driver", "STORE_DRIVER")
	_ = v.BindEnv("redis_addr", "REDIS_ADDR")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	cfg.DBDSN = v.GetString("db_dsn")

	switch cfg.StoreDriver {
	case "memory", "sqlite", "postgres", "redis":
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
	return &cfg, nil
}
