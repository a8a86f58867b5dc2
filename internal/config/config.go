package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/medilink/care-api/pkg/validator"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	SMTP       SMTPConfig
	Redis      RedisConfig
	Reconciler ReconcilerConfig
}

type ServerConfig struct {
	Port           int `mapstructure:"port" validate:"required,gt=0"`
	TimeoutSeconds int `mapstructure:"timeoutSeconds"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type JWTConfig struct {
	Secret             string `mapstructure:"secret" validate:"required"`
	ResetSecret        string `mapstructure:"reset_secret" validate:"required"`
	ExpiryHours        int    `mapstructure:"expiry_hours"`
	ResetExpiryMinutes int    `mapstructure:"reset_expiry_minutes"`
}

func (c JWTConfig) Expiry() time.Duration {
	return time.Duration(c.ExpiryHours) * time.Hour
}

func (c JWTConfig) ResetExpiry() time.Duration {
	return time.Duration(c.ResetExpiryMinutes) * time.Minute
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type RedisConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	URL          string `mapstructure:"url"`
	MaxRetries   int    `mapstructure:"max_retries"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type ReconcilerConfig struct {
	IntervalMinutes  int `mapstructure:"interval_minutes"`
	GracePeriodHours int `mapstructure:"grace_period_hours"`
}

func (c ReconcilerConfig) Interval() time.Duration {
	if c.IntervalMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.IntervalMinutes) * time.Minute
}

func (c ReconcilerConfig) GracePeriod() time.Duration {
	return time.Duration(c.GracePeriodHours) * time.Hour
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Validate(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}
