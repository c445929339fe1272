package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type (
	Config struct {
		Server Server
		PG     PG
		Auth   Auth
		CORS   CORS
		Log    Log
	}

	Server struct {
		Port                string `env:"XCITE_SERVER_PORT" envDefault:"5000"`
		ReadTimeoutSeconds  int    `env:"XCITE_SERVER_READ_TIMEOUT_SECONDS" envDefault:"15"`
		WriteTimeoutSeconds int    `env:"XCITE_SERVER_WRITE_TIMEOUT_SECONDS" envDefault:"15"`
		IdleTimeoutSeconds  int    `env:"XCITE_SERVER_IDLE_TIMEOUT_SECONDS" envDefault:"60"`
	}

	PG struct {
		User     string `env:"XCITE_PG_USER,required"`
		Password string `env:"XCITE_PG_PASSWORD,required"`
		Host     string `env:"XCITE_PG_HOST,required"`
		Port     int    `env:"XCITE_PG_PORT" envDefault:"5432"`
		DBName   string `env:"XCITE_PG_DBNAME" envDefault:"xcite"`
		SSLMode  string `env:"XCITE_PG_SSLMODE" envDefault:"disable"`
		PoolMax  int    `env:"XCITE_PG_POOL_MAX" envDefault:"5"`
		Migrate  bool   `env:"XCITE_PG_MIGRATE" envDefault:"true"`
	}

	Auth struct {
		JWTSecret string `env:"XCITE_AUTH_JWT_SECRET,required"`
		SecretKey string `env:"XCITE_AUTH_SECRET_KEY,required"`
		TokenDays int    `env:"XCITE_AUTH_TOKEN_DAYS" envDefault:"30"`
	}

	CORS struct {
		AllowedOrigins []string `env:"XCITE_CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	}

	Log struct {
		Level      string `env:"XCITE_LOG_LEVEL" envDefault:"info"`
		Format     string `env:"XCITE_LOG_FORMAT" envDefault:"json"`
		File       string `env:"XCITE_LOG_FILE"`
		FluentHost string `env:"XCITE_LOG_FLUENT_HOST"`
		FluentPort int    `env:"XCITE_LOG_FLUENT_PORT" envDefault:"24224"`
	}
)

func (pg PG) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", pg.User, pg.Password, pg.Host, pg.Port, pg.DBName, pg.SSLMode)
}

// NewConfig reads the environment. Values from envFiles are loaded first and never
// override variables that are already set; missing files are skipped.
func NewConfig(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}

	return *cfg, nil
}
