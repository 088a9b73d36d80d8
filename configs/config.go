package configs

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	IdentityLocal    = "local"
	IdentityFirebase = "firebase"
)

// ConfigPathEnvVar overrides the YAML config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

type Config struct {
	Port     string `koanf:"port"`
	DBSource string `koanf:"db_source"`

	JWTSecret string        `koanf:"jwt_secret"`
	JWTTTL    time.Duration `koanf:"jwt_ttl"`

	// shared secret for GET /functions/createInitialAdmin
	AdminBootstrapKey      string `koanf:"admin_bootstrap_key"`
	BootstrapRatePerMinute int    `koanf:"bootstrap_rate_per_minute"`

	IdentityProvider  string `koanf:"identity_provider"`
	FirebaseProjectID string `koanf:"firebase_project_id"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	CORSOrigins     []string      `koanf:"cors_origins"`
	FunctionTimeout time.Duration `koanf:"function_timeout"`
}

func defaultConfig() Config {
	return Config{
		Port:                   "8000",
		DBSource:               "hvala.db",
		JWTSecret:              "",
		JWTTTL:                 24 * time.Hour,
		BootstrapRatePerMinute: 5,
		IdentityProvider:       IdentityLocal,
		LogLevel:               "info",
		LogFormat:              "json",
		CORSOrigins:            []string{"*"},
		FunctionTimeout:        60 * time.Second,
	}
}

// LoadConfig layers defaults, an optional YAML file and the environment
// (in that order). A .env file is read into the environment first if present.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	path := os.Getenv(ConfigPathEnvVar)
	if path == "" {
		path = "config.yaml"
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	envProvider := env.ProviderWithValue("", ".", envTransform)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := defaultConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envTransform maps PORT / HTTP_PORT style names onto koanf keys and splits
// comma separated lists.
func envTransform(key, value string) (string, any) {
	key = strings.ToLower(key)
	switch key {
	case "http_port":
		return "port", value
	case "cors_origins":
		return key, strings.Split(value, ",")
	}
	return key, value
}

func (c *Config) Validate() error {
	switch c.IdentityProvider {
	case IdentityLocal:
		if c.JWTSecret == "" {
			return errors.New("config: jwt_secret is required for the local identity provider")
		}
	case IdentityFirebase:
		if c.FirebaseProjectID == "" {
			return errors.New("config: firebase_project_id is required for the firebase identity provider")
		}
	default:
		return fmt.Errorf("config: unknown identity_provider %q", c.IdentityProvider)
	}
	if c.FunctionTimeout <= 0 {
		return errors.New("config: function_timeout must be positive")
	}
	return nil
}
