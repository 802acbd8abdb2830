package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"TELEGRAM_BOT_TOKEN": "token",
		"ANNOUNCE_CHAT_ID":   "-100123",
	}))
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.Token)
	assert.Equal(t, defaultDatabasePath, cfg.DatabasePath)
	assert.Equal(t, int64(-100123), cfg.AnnounceChatID)
	assert.Zero(t, cfg.AdminChatID)
	assert.Empty(t, cfg.GroupChatPool)
	assert.Equal(t, defaultSendRate, cfg.SendRate)
}

func TestFromEnvFull(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"TELEGRAM_BOT_TOKEN": "token",
		"DATABASE_PATH":      "/var/lib/bot/db.sqlite",
		"ANNOUNCE_CHAT_ID":   "-100123",
		"ADMIN_CHAT_ID":      "-100456",
		"ADMIN_USER_IDS":     "10, 20",
		"GROUP_CHAT_POOL":    "-1001,-1002,",
		"METRICS_ADDR":       ":9090",
		"SEND_RATE":          "5.5",
	}))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/bot/db.sqlite", cfg.DatabasePath)
	assert.Equal(t, int64(-100456), cfg.AdminChatID)
	assert.Equal(t, []int64{10, 20}, cfg.AdminUserIDs)
	assert.Equal(t, []int64{-1001, -1002}, cfg.GroupChatPool)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, 5.5, cfg.SendRate)
	assert.True(t, cfg.IsAdminUser(20))
	assert.False(t, cfg.IsAdminUser(30))
}

func TestFromEnvErrors(t *testing.T) {
	_, err := FromEnv(env(map[string]string{"ANNOUNCE_CHAT_ID": "1"}))
	assert.ErrorIs(t, err, ErrMissing)

	_, err = FromEnv(env(map[string]string{"TELEGRAM_BOT_TOKEN": "t"}))
	assert.ErrorIs(t, err, ErrMissing)

	_, err = FromEnv(env(map[string]string{"TELEGRAM_BOT_TOKEN": "t", "ANNOUNCE_CHAT_ID": "abc"}))
	assert.ErrorContains(t, err, "ANNOUNCE_CHAT_ID")

	_, err = FromEnv(env(map[string]string{"TELEGRAM_BOT_TOKEN": "t", "ANNOUNCE_CHAT_ID": "1", "GROUP_CHAT_POOL": "1,x"}))
	assert.ErrorContains(t, err, "GROUP_CHAT_POOL")

	_, err = FromEnv(env(map[string]string{"TELEGRAM_BOT_TOKEN": "t", "ANNOUNCE_CHAT_ID": "1", "SEND_RATE": "-1"}))
	assert.ErrorContains(t, err, "SEND_RATE")
}
