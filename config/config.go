package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

var ErrMissing = errors.New("required environment variable is not set")

const (
	defaultDatabasePath = "data.sqlite"
	defaultSendRate     = 20.0
)

type Config struct {
	Token          string
	DatabasePath   string
	AnnounceChatID int64
	AdminChatID    int64
	AdminUserIDs   []int64
	GroupChatPool  []int64
	MetricsAddr    string
	SendRate       float64
}

// Load reads .env when present and then the process environment
func Load() (*Config, error) {
	LoadDotEnv()
	return FromEnv(os.Getenv)
}

// LoadDotEnv loads variables from a .env file in the working directory, if there is one
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("config: Failed to load .env file", "error", err)
	} else {
		slog.Debug("config: Environment variables loaded from .env file")
	}
}

// DatabasePath returns DATABASE_PATH or the default path
func DatabasePath(getenv func(string) string) string {
	if path := getenv("DATABASE_PATH"); path != "" {
		return path
	}
	return defaultDatabasePath
}

// FromEnv builds the configuration from a lookup function
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Token:        getenv("TELEGRAM_BOT_TOKEN"),
		DatabasePath: DatabasePath(getenv),
		MetricsAddr:  getenv("METRICS_ADDR"),
		SendRate:     defaultSendRate,
	}

	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: TELEGRAM_BOT_TOKEN", ErrMissing)
	}

	slog.Debug("config: Using database path", "path", cfg.DatabasePath)

	var err error
	raw := getenv("ANNOUNCE_CHAT_ID")
	if raw == "" {
		return nil, fmt.Errorf("%w: ANNOUNCE_CHAT_ID", ErrMissing)
	}
	if cfg.AnnounceChatID, err = parseID("ANNOUNCE_CHAT_ID", raw); err != nil {
		return nil, err
	}

	if raw = getenv("ADMIN_CHAT_ID"); raw != "" {
		if cfg.AdminChatID, err = parseID("ADMIN_CHAT_ID", raw); err != nil {
			return nil, err
		}
	}

	if cfg.AdminUserIDs, err = parseIDList("ADMIN_USER_IDS", getenv("ADMIN_USER_IDS")); err != nil {
		return nil, err
	}

	if cfg.GroupChatPool, err = parseIDList("GROUP_CHAT_POOL", getenv("GROUP_CHAT_POOL")); err != nil {
		return nil, err
	}
	if len(cfg.GroupChatPool) == 0 {
		slog.Warn("config: GROUP_CHAT_POOL is empty, groups cannot be completed until chats are added")
	}

	if raw = getenv("SEND_RATE"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil || rate <= 0 {
			return nil, fmt.Errorf("invalid SEND_RATE %q: must be a positive number", raw)
		}
		cfg.SendRate = rate
	}

	return cfg, nil
}

// IsAdminUser reports whether the user is listed in ADMIN_USER_IDS
func (c *Config) IsAdminUser(userID int64) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func parseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	return id, nil
}

func parseIDList(name, raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, err := parseID(name, part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
