package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"git.skobk.in/skobkin/group-formation-bot/lifecycle"
	"git.skobk.in/skobkin/group-formation-bot/storage"
)

const groupFullCallbackData = "full"

// Announcer posts new groups to the community chat
type Announcer struct {
	sender      *sender
	chatID      int64
	botUsername string
}

func (a *Announcer) Announce(ctx context.Context, group *storage.Group) (int, error) {
	message := tu.Message(tu.ID(a.chatID), announcementText(group))
	if a.botUsername != "" {
		message.ReplyMarkup = tu.InlineKeyboard(tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("📝 Apply").WithURL(a.applyLink(group.ID)),
		))
	}

	sent, err := a.sender.send(ctx, message)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// DisableApply swaps the apply button for an inert "Group full" one
func (a *Announcer) DisableApply(ctx context.Context, group *storage.Group) error {
	if group.AnnouncementMessageID == nil {
		return nil
	}

	_, err := a.sender.api.EditMessageReplyMarkup(ctx, &telego.EditMessageReplyMarkupParams{
		ChatID:    tu.ID(a.chatID),
		MessageID: *group.AnnouncementMessageID,
		ReplyMarkup: tu.InlineKeyboard(tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("🔒 Group full").WithCallbackData(groupFullCallbackData),
		)),
	})
	return err
}

func (a *Announcer) applyLink(groupID string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", a.botUsername, lifecycle.ApplyAction(groupID).Encode())
}

func announcementText(group *storage.Group) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🆕 New group: %s\n", group.Name)
	fmt.Fprintf(&sb, "Created by: %s\n", group.CreatorName)
	fmt.Fprintf(&sb, "Looking for: %d members\n", group.MemberCount)
	if group.Description != "" {
		fmt.Fprintf(&sb, "\n%s\n", group.Description)
	}
	if group.Topics != "" {
		fmt.Fprintf(&sb, "\nTopics: %s\n", group.Topics)
	}
	fmt.Fprintf(&sb, "\nGroup ID: %s", group.ID)
	return sb.String()
}
