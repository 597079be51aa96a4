package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/satishbabariya/worm-go/runtime/client"
)

var AppFs = afero.NewOsFs()

var envKeyReplacer = strings.NewReplacer(".", "_")

// PoolConfig holds connection pool settings
type PoolConfig struct {
	MaxOpenConns        int
	MaxIdleConns        int
	ConnMaxLifetime     time.Duration
	ConnMaxIdleTime     time.Duration
	HealthCheckInterval time.Duration
}

// Config holds the application configuration
type Config struct {
	SchemaPath     string
	DatabaseURL    string
	Provider       string
	StatementCache bool

	// StatementCacheSize bounds the prepared statements kept per client
	StatementCacheSize int
	Debug              bool
	Pool               PoolConfig
}

// New returns a viper instance with the search paths, environment binding
// and defaults of the CLI
func New() *viper.Viper {
	v := viper.New()
	v.SetFs(AppFs)

	v.SetConfigName(".worm")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "worm"))
	}

	// WORM_DATABASE_URL, WORM_POOL_MAX_OPEN_CONNS, ...
	v.SetEnvPrefix("WORM")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	defaults := client.DefaultConfig()
	v.SetDefault("schema_path", "schema.worm")
	v.SetDefault("provider", "postgres")
	v.SetDefault("statement_cache", defaults.StatementCache)
	v.SetDefault("statement_cache_size", defaults.StatementCacheSize)
	v.SetDefault("debug", false)
	v.SetDefault("pool.max_open_conns", defaults.MaxOpenConns)
	v.SetDefault("pool.max_idle_conns", defaults.MaxIdleConns)
	v.SetDefault("pool.conn_max_lifetime", defaults.ConnMaxLifetime)
	v.SetDefault("pool.conn_max_idle_time", defaults.ConnMaxIdleTime)
	v.SetDefault("pool.health_check_interval", defaults.HealthCheckInterval)

	return v
}

// LoadConfig loads configuration from the config file, .env files and the
// environment. configFile overrides the config search paths when set.
func LoadConfig(v *viper.Viper, configFile string) (*Config, error) {
	if err := loadDotEnv(".env", false); err != nil {
		return nil, err
	}
	// .env.local has higher priority
	if err := loadDotEnv(".env.local", true); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	databaseURL := v.GetString("database_url")
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}

	cfg := &Config{
		SchemaPath:         v.GetString("schema_path"),
		DatabaseURL:        databaseURL,
		Provider:           v.GetString("provider"),
		StatementCache:     v.GetBool("statement_cache"),
		StatementCacheSize: v.GetInt("statement_cache_size"),
		Debug:              v.GetBool("debug"),
		Pool: PoolConfig{
			MaxOpenConns:        v.GetInt("pool.max_open_conns"),
			MaxIdleConns:        v.GetInt("pool.max_idle_conns"),
			ConnMaxLifetime:     v.GetDuration("pool.conn_max_lifetime"),
			ConnMaxIdleTime:     v.GetDuration("pool.conn_max_idle_time"),
			HealthCheckInterval: v.GetDuration("pool.health_check_interval"),
		},
	}

	return cfg, nil
}

// ClientConfig returns the runtime client configuration
func (c *Config) ClientConfig() client.Config {
	return client.Config{
		MaxOpenConns:        c.Pool.MaxOpenConns,
		MaxIdleConns:        c.Pool.MaxIdleConns,
		ConnMaxLifetime:     c.Pool.ConnMaxLifetime,
		ConnMaxIdleTime:     c.Pool.ConnMaxIdleTime,
		HealthCheckInterval: c.Pool.HealthCheckInterval,
		StatementCache:      c.StatementCache,
		StatementCacheSize:  c.StatementCacheSize,
	}
}

// SaveConfig writes the project settings of cfg to .worm.yaml in dir
func SaveConfig(v *viper.Viper, cfg *Config, dir string) (string, error) {
	v.Set("schema_path", cfg.SchemaPath)
	v.Set("provider", cfg.Provider)
	v.Set("statement_cache", cfg.StatementCache)

	if err := AppFs.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, ".worm.yaml")
	return path, v.WriteConfigAs(path)
}

// loadDotEnv sets the variables of a dotenv file. Existing variables are
// kept unless override is set. A missing file is not an error.
func loadDotEnv(path string, override bool) error {
	f, err := AppFs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return err
	}

	for key, value := range vars {
		if _, exists := os.LookupEnv(key); exists && !override {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return nil
}
