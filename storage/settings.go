package storage

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm/clause"
)

// GetSetting retrieves a persisted setting
func (s *Storage) GetSetting(key string) (string, error) {
	var setting Setting
	result := s.db.Where("name = ?", key).First(&setting)
	if notFound(result.Error) {
		return "", ErrNotFound
	}
	if result.Error != nil {
		slog.Error("storage: Failed to get setting", "error", result.Error, "key", key)
		return "", fmt.Errorf("failed to get setting: %w", result.Error)
	}
	return setting.Value, nil
}

// SetSetting stores a setting, replacing any previous value
func (s *Storage) SetSetting(key, value string) error {
	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&Setting{Key: key, Value: value})
	if result.Error != nil {
		slog.Error("storage: Failed to set setting", "error", result.Error, "key", key)
		return fmt.Errorf("failed to set setting: %w", result.Error)
	}
	return nil
}
