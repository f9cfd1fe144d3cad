package app

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/fabline/mes-backend/internal/platform/logger"
)

// Config is environment-first: every key can come from an env var
// (MES_HTTP_ADDR and so on), with an optional config.yaml underneath.
type Config struct {
	HTTPAddr    string
	PostgresDSN string
	LogMode     string

	JWTSecret string
	TokenTTL  time.Duration

	RedisAddr    string
	RedisChannel string

	CORSOrigins []string
	SeedFile    string
}

func LoadConfig(log *logger.Logger) Config {
	v := viper.New()
	v.SetEnvPrefix("MES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_mode", "development")
	v.SetDefault("token_ttl_seconds", 43200)
	v.SetDefault("redis_channel", "mes-events")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/mes-backend")
	if err := v.ReadInConfig(); err == nil {
		log.Info("Loaded config file", "path", v.ConfigFileUsed())
	}

	cfg := Config{
		HTTPAddr:     v.GetString("http_addr"),
		PostgresDSN:  v.GetString("postgres_dsn"),
		LogMode:      v.GetString("log_mode"),
		JWTSecret:    v.GetString("jwt_secret"),
		TokenTTL:     time.Duration(v.GetInt("token_ttl_seconds")) * time.Second,
		RedisAddr:    v.GetString("redis_addr"),
		RedisChannel: v.GetString("redis_channel"),
		CORSOrigins:  v.GetStringSlice("cors_origins"),
		SeedFile:     v.GetString("seed_file"),
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "defaultsecret"
		log.Warn("MES_JWT_SECRET not set, using insecure default")
	}
	return cfg
}
