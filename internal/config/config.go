package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Config holds the process-wide settings. Everything has a working default;
// env vars prefixed BLOG_ and an optional ./config.yaml override it.
type Config struct {
	Addr       string
	DBPath     string
	JWTSecret  string
	BcryptCost int
	TokenTTL   time.Duration
	CacheTTL   time.Duration
	CacheSize  int
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("addr", ":8080")
	v.SetDefault("db_path", "blog.db")
	v.SetDefault("jwt_secret", "mysecretkey")
	v.SetDefault("bcrypt_cost", bcrypt.DefaultCost)
	v.SetDefault("token_ttl", time.Hour)
	v.SetDefault("cache_ttl", 300*time.Second)
	v.SetDefault("cache_size", 100)

	v.SetEnvPrefix("BLOG")
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{
		Addr:       v.GetString("addr"),
		DBPath:     v.GetString("db_path"),
		JWTSecret:  v.GetString("jwt_secret"),
		BcryptCost: v.GetInt("bcrypt_cost"),
		TokenTTL:   v.GetDuration("token_ttl"),
		CacheTTL:   v.GetDuration("cache_ttl"),
		CacheSize:  v.GetInt("cache_size"),
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt_secret must not be empty")
	}
	return cfg, nil
}
