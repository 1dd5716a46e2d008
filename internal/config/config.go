package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Env      string   `yaml:"env" env:"ENV" env-default:"local"`
	LogPath  string   `yaml:"log_path" env:"LOG_PATH"`
	HTTP     HTTP     `yaml:"http"`
	Storage  Storage  `yaml:"storage"`
	Auth     Auth     `yaml:"auth"`
	Telegram Telegram `yaml:"telegram"`
}

type HTTP struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`
	DSN    string `yaml:"dsn" env:"STORAGE_DSN" env-default:"./data/tasks.db"`
}

type Auth struct {
	Enabled      bool          `yaml:"enabled" env:"AUTH_ENABLED" env-default:"false"`
	BcryptCost   int           `yaml:"bcrypt_cost" env:"AUTH_BCRYPT_COST" env-default:"10"`
	SessionTTL   time.Duration `yaml:"session_ttl" env:"AUTH_SESSION_TTL" env-default:"24h"`
	CookieName   string        `yaml:"cookie_name" env:"AUTH_COOKIE_NAME" env-default:"session"`
	CookieSecure bool          `yaml:"cookie_secure" env:"AUTH_COOKIE_SECURE" env-default:"false"`
}

type Telegram struct {
	Token string `yaml:"token" env:"TELEGRAM_TOKEN"`
	Owner string `yaml:"owner" env:"TELEGRAM_OWNER"`
	Debug bool   `yaml:"debug" env:"TELEGRAM_DEBUG" env-default:"false"`
}

var drivers = map[string]bool{
	"sqlite":   true,
	"postgres": true,
	"mysql":    true,
	"memory":   true,
}

// MustLoad reads the config file named by -config or CONFIG_PATH, falling
// back to environment variables and defaults when neither is set.
// It panics on any failure.
func MustLoad() *Config {
	cfg, err := Load(fetchConfigPath())
	if err != nil {
		panic(err)
	}
	return cfg
}

func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if !drivers[c.Storage.Driver] {
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver != "memory" && c.Storage.DSN == "" {
		return fmt.Errorf("config: storage dsn is required for driver %q", c.Storage.Driver)
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("config: bcrypt cost must be in [%d, %d], got %d", bcrypt.MinCost, bcrypt.MaxCost, c.Auth.BcryptCost)
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("config: session ttl must be positive")
	}
	if c.Auth.CookieName == "" {
		return fmt.Errorf("config: cookie name is required")
	}
	return nil
}

// fetchConfigPath checks the -config flag first, then CONFIG_PATH.
func fetchConfigPath() string {
	if path := configFlag(os.Args[1:]); path != "" {
		return path
	}
	return os.Getenv("CONFIG_PATH")
}

// configFlag finds -config in args without parsing the other flags, which
// belong to the calling command.
func configFlag(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}

		name := strings.TrimPrefix(strings.TrimPrefix(arg, "-"), "-")
		if name == arg {
			continue
		}
		if value, ok := strings.CutPrefix(name, "config="); ok {
			return value
		}
		if name == "config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
