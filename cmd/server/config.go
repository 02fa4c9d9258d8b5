package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mcoot/pokersignup/internal/api"
	"github.com/mcoot/pokersignup/internal/factory"
	"github.com/mcoot/pokersignup/internal/services/auth"
	redisstorage "github.com/mcoot/pokersignup/internal/storage/redis"
	sqlitestorage "github.com/mcoot/pokersignup/internal/storage/sqlite"
)

// config is everything the server reads from its environment
type config struct {
	Factory  factory.Config
	Server   api.ServerConfig
	LogLevel slog.Level
}

// loadConfig builds the server configuration from environment lookups
func loadConfig(getenv func(string) string) (config, error) {
	cfg := config{
		Factory: factory.Config{
			AuthConfig:  auth.DefaultConfig(),
			StorageType: getenv("STORAGE_TYPE"),
		},
		Server:   api.DefaultServerConfig(),
		LogLevel: slog.LevelInfo,
	}

	if port := getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil || p <= 0 || p > 65535 {
			return cfg, fmt.Errorf("invalid PORT %q", port)
		}
		cfg.Server.Port = p
	}

	cfg.Server.Host = getenv("HOST")

	if d := getenv("SHUTDOWN_TIMEOUT"); d != "" {
		timeout, err := time.ParseDuration(d)
		if err != nil || timeout <= 0 {
			return cfg, fmt.Errorf("invalid SHUTDOWN_TIMEOUT %q", d)
		}
		cfg.Server.ShutdownTimeout = timeout
	}

	if level := getenv("LOG_LEVEL"); level != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
			return cfg, fmt.Errorf("invalid LOG_LEVEL %q", level)
		}
	}

	switch cfg.Factory.StorageType {
	case factory.StorageTypeRedis:
		redisURL := getenv("REDIS_URL")
		if redisURL == "" {
			return cfg, fmt.Errorf("REDIS_URL required when STORAGE_TYPE=redis")
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.Factory.RedisConfig = &redisCfg
	case factory.StorageTypeSQLite:
		sqliteCfg := sqlitestorage.DefaultConfig()
		if path := getenv("SQLITE_PATH"); path != "" {
			sqliteCfg.Path = path
		}
		cfg.Factory.SQLiteConfig = &sqliteCfg
	}

	if admins := getenv("ADMIN_USERNAMES"); admins != "" {
		for _, name := range strings.Split(admins, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cfg.Factory.AuthConfig.AdminUsernames = append(cfg.Factory.AuthConfig.AdminUsernames, name)
			}
		}
	}

	if d := getenv("SESSION_DURATION"); d != "" {
		duration, err := time.ParseDuration(d)
		if err != nil || duration <= 0 {
			return cfg, fmt.Errorf("invalid SESSION_DURATION %q", d)
		}
		cfg.Factory.AuthConfig.SessionDuration = duration
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
