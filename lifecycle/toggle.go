package lifecycle

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"git.skobk.in/skobkin/group-formation-bot/storage"
)

const settingGroupCreation = "group_creation_allowed"

type SettingsStore interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}

// CreationToggle is the process-wide switch allowing group creation.
// It is read from the store once and defaults to disabled when never set.
type CreationToggle struct {
	store   SettingsStore
	mu      sync.Mutex
	enabled atomic.Bool
}

func LoadCreationToggle(store SettingsStore) (*CreationToggle, error) {
	t := &CreationToggle{store: store}

	value, err := store.GetSetting(settingGroupCreation)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		slog.Debug("lifecycle: Group creation setting not found, defaulting to disabled")
	case err != nil:
		return nil, fmt.Errorf("failed to load group creation setting: %w", err)
	default:
		t.enabled.Store(value == "true")
	}

	return t, nil
}

func (t *CreationToggle) Enabled() bool {
	return t.enabled.Load()
}

// Set persists the new value before making it visible
func (t *CreationToggle) Set(enabled bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	value := "false"
	if enabled {
		value = "true"
	}
	if err := t.store.SetSetting(settingGroupCreation, value); err != nil {
		return err
	}
	t.enabled.Store(enabled)

	slog.Info("lifecycle: Group creation toggled", "enabled", enabled)
	return nil
}
