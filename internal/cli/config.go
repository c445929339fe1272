package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the client configuration, read from a TOML file and PROPTABLE_* variables.
type Config struct {
	API     APIConfig
	Auth    AuthConfig
	Session SessionConfig
	Store   StoreConfig
	Table   TableConfig
	Log     LogConfig
	Report  ReportConfig
}

type APIConfig struct {
	URL     string
	Timeout time.Duration
}

// AuthConfig is only needed for local token generation.
type AuthConfig struct {
	SigningKey string `mapstructure:"signing_key"`
	TokenDays  int    `mapstructure:"token_days"`
}

type SessionConfig struct {
	Path string
}

type StoreConfig struct {
	Driver   string
	DSN      string
	Database string
}

type TableConfig struct {
	PageSize      int    `mapstructure:"page_size"`
	PrefetchLimit int    `mapstructure:"prefetch_limit"`
	ExportedBy    string `mapstructure:"exported_by"`
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

type ReportConfig struct {
	Font string
}

func defaultDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "proptable")
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "proptable")
}

// LoadConfig reads path, or config.toml in the default directory when path is
// empty. A missing default file is not an error. Env overrides use prefix PROPTABLE_.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	dir := defaultDir()

	v.SetDefault("api.url", "http://localhost:5000")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_days", 30)
	v.SetDefault("session.path", filepath.Join(dir, "session.json"))
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", filepath.Join(dir, "exports.db"))
	v.SetDefault("store.database", "xcite")
	v.SetDefault("table.page_size", 50)
	v.SetDefault("table.prefetch_limit", 16)
	v.SetDefault("table.exported_by", os.Getenv("USER"))
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("report.font", "")

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("PROPTABLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
