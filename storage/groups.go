package storage

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

// CreateGroup stores a new group and records its creator as the first accepted member
func (s *Storage) CreateGroup(group *Group) error {
	if !IsValidMemberCount(group.MemberCount) {
		return fmt.Errorf("%w: %d", ErrInvalidMemberCount, group.MemberCount)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		return tx.Create(&AcceptedMember{GroupID: group.ID, UserID: group.CreatorID}).Error
	})
	if err != nil {
		slog.Error("storage: Failed to create group", "error", err,
			"group_id", group.ID, "creator_id", group.CreatorID)
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by ID
func (s *Storage) GetGroup(id string) (*Group, error) {
	var group Group
	result := s.db.Where("id = ?", id).First(&group)
	if notFound(result.Error) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		slog.Error("storage: Failed to get group", "error", result.Error, "group_id", id)
		return nil, fmt.Errorf("failed to get group: %w", result.Error)
	}
	return &group, nil
}

// ListGroups retrieves every group, oldest first
func (s *Storage) ListGroups() ([]Group, error) {
	var groups []Group
	result := s.db.Order("created_at, id").Find(&groups)
	if result.Error != nil {
		slog.Error("storage: Failed to list groups", "error", result.Error)
		return nil, fmt.Errorf("failed to list groups: %w", result.Error)
	}
	return groups, nil
}

// ListGroupsByCreator retrieves the groups created by a user
func (s *Storage) ListGroupsByCreator(creatorID int64) ([]Group, error) {
	var groups []Group
	result := s.db.Where("creator_id = ?", creatorID).Order("created_at, id").Find(&groups)
	if result.Error != nil {
		slog.Error("storage: Failed to list groups by creator", "error", result.Error, "creator_id", creatorID)
		return nil, fmt.Errorf("failed to list groups by creator: %w", result.Error)
	}
	return groups, nil
}

// SetAnnouncementMessage records where a group was announced
func (s *Storage) SetAnnouncementMessage(id string, messageID int) error {
	result := s.db.Model(&Group{}).Where("id = ?", id).Update("announcement_message_id", messageID)
	if result.Error != nil {
		slog.Error("storage: Failed to set announcement message", "error", result.Error,
			"group_id", id, "message_id", messageID)
		return fmt.Errorf("failed to set announcement message: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkGroupComplete stores the provisioned channel and sets the completion flag.
// The flag never goes back to false; completing a complete group fails with ErrAlreadyComplete.
func (s *Storage) MarkGroupComplete(id, channelRef, channelInvite string) error {
	result := s.db.Model(&Group{}).
		Where("id = ? AND complete = ?", id, false).
		Updates(map[string]any{
			"channel_ref":    channelRef,
			"channel_invite": channelInvite,
			"complete":       true,
		})
	if result.Error != nil {
		slog.Error("storage: Failed to mark group complete", "error", result.Error, "group_id", id)
		return fmt.Errorf("failed to mark group complete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := s.GetGroup(id); err != nil {
			return err
		}
		return ErrAlreadyComplete
	}
	return nil
}
