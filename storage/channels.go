package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SyncChannelPool makes sure every configured chat has a slot. Existing slots keep their claims.
func (s *Storage) SyncChannelPool(chatIDs []int64) error {
	if len(chatIDs) == 0 {
		return nil
	}

	slots := make([]ChannelSlot, 0, len(chatIDs))
	for _, id := range chatIDs {
		slots = append(slots, ChannelSlot{ChatID: id})
	}

	result := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&slots)
	if result.Error != nil {
		slog.Error("storage: Failed to sync channel pool", "error", result.Error, "size", len(chatIDs))
		return fmt.Errorf("failed to sync channel pool: %w", result.Error)
	}
	return nil
}

// ClaimChannelSlot returns the slot held by the group, claiming a free one if it holds none
func (s *Storage) ClaimChannelSlot(groupID string) (*ChannelSlot, error) {
	var slot ChannelSlot
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("group_id = ?", groupID).First(&slot)
		if result.Error == nil {
			return nil
		}
		if !notFound(result.Error) {
			return result.Error
		}

		result = tx.Where("group_id IS NULL").Order("chat_id").First(&slot)
		if notFound(result.Error) {
			return ErrPoolExhausted
		}
		if result.Error != nil {
			return result.Error
		}

		now := time.Now()
		slot.GroupID = &groupID
		slot.ClaimedAt = &now
		return tx.Model(&ChannelSlot{}).Where("chat_id = ?", slot.ChatID).Updates(map[string]any{
			"group_id":   groupID,
			"claimed_at": now,
		}).Error
	})
	if errors.Is(err, ErrPoolExhausted) {
		return nil, err
	}
	if err != nil {
		slog.Error("storage: Failed to claim channel slot", "error", err, "group_id", groupID)
		return nil, fmt.Errorf("failed to claim channel slot: %w", err)
	}
	return &slot, nil
}

// SetSlotInviteLink stores the invite link created for a slot
func (s *Storage) SetSlotInviteLink(chatID int64, link string) error {
	result := s.db.Model(&ChannelSlot{}).Where("chat_id = ?", chatID).Update("invite_link", link)
	if result.Error != nil {
		slog.Error("storage: Failed to set invite link", "error", result.Error, "chat_id", chatID)
		return fmt.Errorf("failed to set invite link: %w", result.Error)
	}
	return nil
}

// FindSlotByChat retrieves the slot of a pool chat
func (s *Storage) FindSlotByChat(chatID int64) (*ChannelSlot, error) {
	var slot ChannelSlot
	result := s.db.Where("chat_id = ?", chatID).First(&slot)
	if notFound(result.Error) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		slog.Error("storage: Failed to find channel slot", "error", result.Error, "chat_id", chatID)
		return nil, fmt.Errorf("failed to find channel slot: %w", result.Error)
	}
	return &slot, nil
}

// GrantChannelAccess allows users into a provisioned chat
func (s *Storage) GrantChannelAccess(chatID int64, userIDs []int64) error {
	if len(userIDs) == 0 {
		return nil
	}

	grants := make([]ChannelGrant, 0, len(userIDs))
	for _, id := range userIDs {
		grants = append(grants, ChannelGrant{ChatID: chatID, UserID: id})
	}

	result := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&grants)
	if result.Error != nil {
		slog.Error("storage: Failed to grant channel access", "error", result.Error, "chat_id", chatID)
		return fmt.Errorf("failed to grant channel access: %w", result.Error)
	}
	return nil
}

// HasChannelAccess checks if a user may join a provisioned chat
func (s *Storage) HasChannelAccess(chatID, userID int64) (bool, error) {
	var count int64
	result := s.db.Model(&ChannelGrant{}).Where("chat_id = ? AND user_id = ?", chatID, userID).Count(&count)
	if result.Error != nil {
		slog.Error("storage: Failed to check channel access", "error", result.Error,
			"chat_id", chatID, "user_id", userID)
		return false, fmt.Errorf("failed to check channel access: %w", result.Error)
	}
	return count > 0, nil
}
