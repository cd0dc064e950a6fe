package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

const (
	StoreDriverMySQL  = "mysql"
	StoreDriverMemory = "memory"

	// MonthCloseCurrent snapshots the balances at the moment of closing.
	MonthCloseCurrent = "current"
	// MonthCloseAsOf replays the history up to the last day of the month.
	MonthCloseAsOf = "as_of"
)

type Config struct {
	ServerAddress  string `env:"SERVER_ADDRESS"`
	Environment    string `env:"ENVIRONMENT"`
	LogLevel       string `env:"LOG_LEVEL"`
	StoreDriver    string `env:"STORE_DRIVER"`
	MonthCloseMode string `env:"MONTH_CLOSE_MODE"`
	Database       DatabaseConfig
	Migration      MigrationConfig
}

type DatabaseConfig struct {
	Host     string `env:"DB_HOST"`
	Port     int    `env:"DB_PORT"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME"`
	Params   string `env:"DB_PARAMS"`
}

type MigrationConfig struct {
	Dir string `env:"MIGRATION_DIR"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_ADDRESS", ":8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", StoreDriverMySQL)
	v.SetDefault("MONTH_CLOSE_MODE", MonthCloseCurrent)
	v.SetDefault("DB_HOST", "127.0.0.1")
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_NAME", "cash_reconciliation")
	v.SetDefault("DB_PARAMS", "parseTime=true&clientFoundRows=true")
	v.SetDefault("MIGRATION_DIR", "migrations")
}

// LoadConfig reads .env when present; environment variables win.
func LoadConfig() (*Config, error) {
	return load(".env")
}

func load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(file)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{
		ServerAddress:  v.GetString("SERVER_ADDRESS"),
		Environment:    v.GetString("ENVIRONMENT"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		StoreDriver:    v.GetString("STORE_DRIVER"),
		MonthCloseMode: v.GetString("MONTH_CLOSE_MODE"),
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			Params:   v.GetString("DB_PARAMS"),
		},
		Migration: MigrationConfig{
			Dir: v.GetString("MIGRATION_DIR"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverMySQL, StoreDriverMemory:
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q, expected %q or %q", c.StoreDriver, StoreDriverMySQL, StoreDriverMemory)
	}
	switch c.MonthCloseMode {
	case MonthCloseCurrent, MonthCloseAsOf:
	default:
		return fmt.Errorf("invalid MONTH_CLOSE_MODE %q, expected %q or %q", c.MonthCloseMode, MonthCloseCurrent, MonthCloseAsOf)
	}
	if c.StoreDriver == StoreDriverMySQL {
		if c.Database.Name == "" {
			return errors.New("DB_NAME is required for the mysql store")
		}
		if _, err := mysql.ParseDSN(c.rawDSN()); err != nil {
			return fmt.Errorf("invalid DB_PARAMS %q: %w", c.Database.Params, err)
		}
	}
	return nil
}

func (c *Config) rawDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.Params,
	)
}

// GetDSN returns the MySQL DSN string. clientFoundRows is always on: the
// repositories read a zero affected-row count as a missing row.
func (c *Config) GetDSN() string {
	mc, err := mysql.ParseDSN(c.rawDSN())
	if err != nil {
		// Validate rejects this; let sql.Open report it.
		return c.rawDSN()
	}
	mc.ClientFoundRows = true
	return mc.FormatDSN()
}

// GetMigrationDBURL returns the database URL for migrations
func (c *Config) GetMigrationDBURL() string {
	return fmt.Sprintf("mysql://%s:%s@tcp(%s:%d)/%s?%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.Params,
	)
}
