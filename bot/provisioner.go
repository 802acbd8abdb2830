package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"git.skobk.in/skobkin/group-formation-bot/lifecycle"
	"git.skobk.in/skobkin/group-formation-bot/storage"
)

// Telegram limits
const (
	maxChatTitleLength       = 128
	maxChatDescriptionLength = 255
)

// Provisioner hands out pre-created private supergroups from the configured pool.
// The bot must be an administrator there with the right to invite users and change info.
type Provisioner struct {
	api     *telego.Bot
	storage *storage.Storage
}

func (p *Provisioner) Provision(ctx context.Context, group *storage.Group, memberIDs []int64) (*lifecycle.Channel, error) {
	slot, err := p.storage.ClaimChannelSlot(group.ID)
	if err != nil {
		return nil, err
	}

	if err := p.storage.GrantChannelAccess(slot.ChatID, memberIDs); err != nil {
		return nil, err
	}

	chatID := tu.ID(slot.ChatID)
	if err := p.api.SetChatTitle(ctx, &telego.SetChatTitleParams{
		ChatID: chatID,
		Title:  truncate(group.Name, maxChatTitleLength),
	}); err != nil {
		slog.Warn("bot: Failed to rename group chat", "error", err, "chat_id", slot.ChatID, "group_id", group.ID)
	}
	if err := p.api.SetChatDescription(ctx, &telego.SetChatDescriptionParams{
		ChatID:      chatID,
		Description: truncate(group.Description, maxChatDescriptionLength),
	}); err != nil {
		slog.Warn("bot: Failed to set group chat description", "error", err, "chat_id", slot.ChatID, "group_id", group.ID)
	}

	invite := slot.InviteLink
	if invite == "" {
		link, err := p.api.CreateChatInviteLink(ctx, &telego.CreateChatInviteLinkParams{
			ChatID:             chatID,
			Name:               group.ID,
			CreatesJoinRequest: true,
		})
		if err != nil {
			return nil, fmt.Errorf("create invite link for chat %d: %w", slot.ChatID, err)
		}
		invite = link.InviteLink

		if err := p.storage.SetSlotInviteLink(slot.ChatID, invite); err != nil {
			return nil, err
		}
	}

	slog.Info("bot: Channel provisioned", "group_id", group.ID, "chat_id", slot.ChatID, "members", len(memberIDs))

	return &lifecycle.Channel{
		Ref:        strconv.FormatInt(slot.ChatID, 10),
		InviteLink: invite,
	}, nil
}

// admit reports whether the join request targets a pool chat and, if so, whether the user was granted access
func (p *Provisioner) admit(chatID, userID int64) (pooled, allowed bool, err error) {
	if _, err := p.storage.FindSlotByChat(chatID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, false, nil
		}
		return false, false, err
	}

	allowed, err = p.storage.HasChannelAccess(chatID, userID)
	if err != nil {
		return true, false, err
	}
	return true, allowed, nil
}

func (b *Bot) joinRequestHandler(ctx *th.Context, request telego.ChatJoinRequest) error {
	pooled, allowed, err := b.provisioner.admit(request.Chat.ID, request.From.ID)
	if err != nil {
		return err
	}
	if !pooled {
		return nil
	}

	if allowed {
		slog.Info("bot: Approving join request", "chat_id", request.Chat.ID, "user_id", request.From.ID)
		return b.bot.ApproveChatJoinRequest(ctx, &telego.ApproveChatJoinRequestParams{
			ChatID: tu.ID(request.Chat.ID),
			UserID: request.From.ID,
		})
	}

	slog.Info("bot: Declining join request", "chat_id", request.Chat.ID, "user_id", request.From.ID)
	return b.bot.DeclineChatJoinRequest(ctx, &telego.DeclineChatJoinRequestParams{
		ChatID: tu.ID(request.Chat.ID),
		UserID: request.From.ID,
	})
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
