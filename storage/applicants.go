package storage

import (
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

// AddApplicant opens an application. A second application for the same group and user fails with ErrDuplicate.
func (s *Storage) AddApplicant(applicant *Applicant) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&Applicant{}).
			Where("group_id = ? AND user_id = ?", applicant.GroupID, applicant.UserID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicate
		}
		return tx.Create(applicant).Error
	})
	if errors.Is(err, ErrDuplicate) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	if err != nil {
		slog.Error("storage: Failed to add applicant", "error", err,
			"group_id", applicant.GroupID, "user_id", applicant.UserID)
		return fmt.Errorf("failed to add applicant: %w", err)
	}
	return nil
}

// GetApplicant retrieves the open application of a user to a group
func (s *Storage) GetApplicant(groupID string, userID int64) (*Applicant, error) {
	var applicant Applicant
	result := s.db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&applicant)
	if notFound(result.Error) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		slog.Error("storage: Failed to get applicant", "error", result.Error,
			"group_id", groupID, "user_id", userID)
		return nil, fmt.Errorf("failed to get applicant: %w", result.Error)
	}
	return &applicant, nil
}

// RemoveApplicant closes an application. Removing a missing application is not an error.
func (s *Storage) RemoveApplicant(groupID string, userID int64) error {
	result := s.db.Where("group_id = ? AND user_id = ?", groupID, userID).Delete(&Applicant{})
	if result.Error != nil {
		slog.Error("storage: Failed to remove applicant", "error", result.Error,
			"group_id", groupID, "user_id", userID)
		return fmt.Errorf("failed to remove applicant: %w", result.Error)
	}
	return nil
}

// ListApplicants retrieves all open applications to a group
func (s *Storage) ListApplicants(groupID string) ([]Applicant, error) {
	var applicants []Applicant
	result := s.db.Where("group_id = ?", groupID).Order("created_at, user_id").Find(&applicants)
	if result.Error != nil {
		slog.Error("storage: Failed to list applicants", "error", result.Error, "group_id", groupID)
		return nil, fmt.Errorf("failed to list applicants: %w", result.Error)
	}
	return applicants, nil
}

// RemoveAllApplicants discards every open application to a group
func (s *Storage) RemoveAllApplicants(groupID string) (int64, error) {
	result := s.db.Where("group_id = ?", groupID).Delete(&Applicant{})
	if result.Error != nil {
		slog.Error("storage: Failed to remove applicants", "error", result.Error, "group_id", groupID)
		return 0, fmt.Errorf("failed to remove applicants: %w", result.Error)
	}
	return result.RowsAffected, nil
}
