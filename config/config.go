package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig
	SQLite SQLiteConfig
	Redis  RedisConfig
	Remote RemoteConfig
}

type AppConfig struct {
	Port string
	Env  string
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RemoteConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	remoteTimeout, err := time.ParseDuration(viper.GetString("REMOTE_TIMEOUT"))
	if err != nil {
		remoteTimeout = 10 * time.Second
	}

	sqlitePath := viper.GetString("SQLITE_PATH")
	if sqlitePath == "" {
		sqlitePath = "data/profile.db"
	}

	maxRetries := 3
	if viper.IsSet("REMOTE_MAX_RETRIES") {
		maxRetries = viper.GetInt("REMOTE_MAX_RETRIES")
	}

	config := &Config{
		App: AppConfig{
			Port: viper.GetString("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		SQLite: SQLiteConfig{
			Path: sqlitePath,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Remote: RemoteConfig{
			BaseURL:    viper.GetString("REMOTE_BASE_URL"),
			APIKey:     viper.GetString("REMOTE_API_KEY"),
			Timeout:    remoteTimeout,
			MaxRetries: maxRetries,
		},
	}

	return config, nil
}
