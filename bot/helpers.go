package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	t "github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"golang.org/x/time/rate"

	"git.skobk.in/skobkin/group-formation-bot/lifecycle"
	"git.skobk.in/skobkin/group-formation-bot/storage"
)

// sender paces outgoing messages and retries once when Telegram asks to slow down
type sender struct {
	api     *t.Bot
	limiter *rate.Limiter
}

func (s *sender) send(ctx context.Context, message *t.SendMessageParams) (*t.Message, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	sent, err := s.api.SendMessage(ctx, message)
	if err == nil {
		return sent, nil
	}

	retryAfter := retryAfterSeconds(err)
	if retryAfter <= 0 {
		return nil, err
	}

	slog.Debug("bot: API error", "error", err.Error())
	slog.Info("bot: Rate limit hit, waiting", "seconds", retryAfter)

	select {
	case <-time.After(time.Duration(retryAfter) * time.Second):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	sent, err = s.api.SendMessage(ctx, message)
	if err != nil {
		return nil, err
	}
	slog.Info("bot: Message sent successfully after rate limit wait")
	return sent, nil
}

// retryAfterSeconds extracts the wait time from a "Too Many Requests" error.
// Format: "telego: sendMessage: api: 429 \"Too Many Requests: retry after 5\", migrate to chat ID: 0, retry after: 5"
func retryAfterSeconds(err error) int {
	if !strings.Contains(err.Error(), "Too Many Requests") {
		return 0
	}

	parts := strings.Split(err.Error(), "retry after: ")
	if len(parts) != 2 {
		return 0
	}

	var retryAfter int
	if _, scanErr := fmt.Sscanf(parts[1], "%d", &retryAfter); scanErr != nil {
		return 0
	}
	return retryAfter
}

func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string) {
	_, err := b.sender.send(ctx, tu.Message(tu.ID(chatID), text))
	if err != nil {
		slog.Error("bot: Failed to send message", "error", err, "chat_id", chatID, "text_length", len(text))
	}
}

func (b *Bot) sendMarkdown(ctx context.Context, chatID int64, text string) error {
	message := tu.Message(tu.ID(chatID), text)
	message.ParseMode = t.ModeMarkdownV2

	_, err := b.sender.send(ctx, message)
	return err
}

// replyPrivately sends markdown text to the user's private chat and confirms in the
// original chat when the command was issued elsewhere
func (b *Bot) replyPrivately(ctx context.Context, message t.Message, text, confirmation string) {
	if err := b.sendMarkdown(ctx, message.From.ID, text); err != nil {
		slog.Warn("bot: Failed to send private reply", "error", err, "user_id", message.From.ID)
		b.sendMessage(ctx, message.Chat.ID, dmFailedText)
		return
	}

	if message.Chat.Type != t.ChatTypePrivate && confirmation != "" {
		b.sendMessage(ctx, message.Chat.ID, confirmation)
	}
}

func (b *Bot) createReplyKeyboard(commandPrefix string, groups []storage.Group) *t.ReplyKeyboardMarkup {
	if len(groups) == 0 {
		return nil
	}

	// Create keyboard with 2 columns
	keyboard := make([][]t.KeyboardButton, 0, (len(groups)+1)/2)
	for i := 0; i < len(groups); i += 2 {
		row := make([]t.KeyboardButton, 0, 2)
		row = append(row, t.KeyboardButton{
			Text: fmt.Sprintf("/%s %s", commandPrefix, groups[i].ID),
		})
		if i+1 < len(groups) {
			row = append(row, t.KeyboardButton{
				Text: fmt.Sprintf("/%s %s", commandPrefix, groups[i+1].ID),
			})
		}
		keyboard = append(keyboard, row)
	}

	return &t.ReplyKeyboardMarkup{
		Keyboard:        keyboard,
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}
}

func escapeMarkdownV2(text string) string {
	specialChars := []string{
		"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!", "&", "<",
	}

	for _, char := range specialChars {
		text = strings.ReplaceAll(text, char, "\\"+char)
	}
	return text
}

// commandPayload returns everything after the command word
func commandPayload(text string) string {
	text = strings.TrimSpace(text)
	idx := strings.IndexAny(text, " \n\t")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(text[idx+1:])
}

func displayName(user *t.User) string {
	if user.Username != "" {
		return user.Username
	}
	return strings.TrimSpace(user.FirstName + " " + user.LastName)
}

func actorOf(user *t.User) lifecycle.Actor {
	return lifecycle.Actor{ID: user.ID, Name: displayName(user)}
}

// describeError turns an engine error into a reply for the user who caused it
func describeError(err error) string {
	switch {
	case errors.Is(err, lifecycle.ErrCreationDisabled):
		return "⛔ Group creation is currently disabled by an administrator."
	case errors.Is(err, lifecycle.ErrNotAdmin):
		return "You do not have permission to use this command."
	case errors.Is(err, lifecycle.ErrNotCreator):
		return "You are not the creator of this group."
	case errors.Is(err, lifecycle.ErrNoGroups):
		return "🧙 You haven't created any groups yet. Use /creategroup to start one!"
	case errors.Is(err, lifecycle.ErrGroupNotFound):
		return "Group not found."
	case errors.Is(err, lifecycle.ErrGroupComplete):
		return "Sorry, this group is already full."
	case errors.Is(err, lifecycle.ErrGroupFull):
		return "This group is full and waiting for its private chat. An administrator can complete it with /forcegroup."
	case errors.Is(err, lifecycle.ErrAlreadyMember):
		return "You are already a member."
	case errors.Is(err, lifecycle.ErrDuplicateApplication):
		return "You already applied."
	case errors.Is(err, lifecycle.ErrAlreadyHandled):
		return "This application was already handled."
	case errors.Is(err, lifecycle.ErrValidation):
		return "Invalid input: " + strings.TrimPrefix(err.Error(), lifecycle.ErrValidation.Error()+": ")
	case errors.Is(err, lifecycle.ErrProvision):
		return "The private chat could not be created. Please try again later."
	case errors.Is(err, lifecycle.ErrDelivery):
		return dmFailedText
	default:
		return "An unexpected error occurred while processing your request."
	}
}
