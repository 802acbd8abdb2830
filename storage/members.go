package storage

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm/clause"
)

// AddMember records a user as accepted into a group. Adding an existing member is a no-op.
func (s *Storage) AddMember(groupID string, userID int64) error {
	result := s.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&AcceptedMember{GroupID: groupID, UserID: userID})
	if result.Error != nil {
		slog.Error("storage: Failed to add member", "error", result.Error,
			"group_id", groupID, "user_id", userID)
		return fmt.Errorf("failed to add member: %w", result.Error)
	}
	return nil
}

// RemoveMember removes a user from the accepted members of a group
func (s *Storage) RemoveMember(groupID string, userID int64) error {
	result := s.db.Where("group_id = ? AND user_id = ?", groupID, userID).Delete(&AcceptedMember{})
	if result.Error != nil {
		slog.Error("storage: Failed to remove member", "error", result.Error,
			"group_id", groupID, "user_id", userID)
		return fmt.Errorf("failed to remove member: %w", result.Error)
	}
	return nil
}

// ListMembers retrieves the IDs of the accepted members of a group in acceptance order
func (s *Storage) ListMembers(groupID string) ([]int64, error) {
	var userIDs []int64
	result := s.db.Model(&AcceptedMember{}).
		Where("group_id = ?", groupID).
		Order("created_at, user_id").
		Pluck("user_id", &userIDs)
	if result.Error != nil {
		slog.Error("storage: Failed to list members", "error", result.Error, "group_id", groupID)
		return nil, fmt.Errorf("failed to list members: %w", result.Error)
	}
	return userIDs, nil
}

// CountMembers is the size of the accepted set; there is no separate counter to drift
func (s *Storage) CountMembers(groupID string) (int, error) {
	members, err := s.ListMembers(groupID)
	if err != nil {
		return 0, err
	}
	return len(members), nil
}

// IsMember checks if a user is an accepted member of a group
func (s *Storage) IsMember(groupID string, userID int64) (bool, error) {
	var count int64
	result := s.db.Model(&AcceptedMember{}).Where("group_id = ? AND user_id = ?", groupID, userID).Count(&count)
	if result.Error != nil {
		slog.Error("storage: Failed to check membership", "error", result.Error,
			"group_id", groupID, "user_id", userID)
		return false, fmt.Errorf("failed to check membership: %w", result.Error)
	}
	return count > 0, nil
}
