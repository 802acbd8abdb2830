package storage

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm/clause"
)

// GetInterests retrieves the interests a user registered
func (s *Storage) GetInterests(userID int64) (string, error) {
	var row UserInterests
	result := s.db.Where("user_id = ?", userID).First(&row)
	if notFound(result.Error) {
		return "", ErrNotFound
	}
	if result.Error != nil {
		slog.Error("storage: Failed to get interests", "error", result.Error, "user_id", userID)
		return "", fmt.Errorf("failed to get interests: %w", result.Error)
	}
	return row.Interests, nil
}

// UpsertInterests replaces the interests of a user
func (s *Storage) UpsertInterests(userID int64, interests string) error {
	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"interests", "updated_at"}),
	}).Create(&UserInterests{UserID: userID, Interests: interests})
	if result.Error != nil {
		slog.Error("storage: Failed to upsert interests", "error", result.Error, "user_id", userID)
		return fmt.Errorf("failed to upsert interests: %w", result.Error)
	}
	return nil
}
