package bot

import (
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
)

func (b *Bot) recoverMiddleware(ctx *th.Context, update telego.Update) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("bot: Panic while handling update", "panic", r,
				"update_id", update.UpdateID, "stack", string(debug.Stack()))
			err = nil
		}
	}()

	return ctx.Next(update)
}

func (b *Bot) logMiddleware(ctx *th.Context, update telego.Update) error {
	traceID := uuid.NewString()

	attrs := []any{"trace_id", traceID, "update_id", update.UpdateID}
	switch {
	case update.Message != nil:
		attrs = append(attrs, "kind", "message", "chat_id", update.Message.Chat.ID)
		if update.Message.From != nil {
			attrs = append(attrs, "user_id", update.Message.From.ID)
		}
	case update.CallbackQuery != nil:
		attrs = append(attrs, "kind", "callback_query", "user_id", update.CallbackQuery.From.ID,
			"data", update.CallbackQuery.Data)
	case update.ChatJoinRequest != nil:
		attrs = append(attrs, "kind", "chat_join_request", "chat_id", update.ChatJoinRequest.Chat.ID,
			"user_id", update.ChatJoinRequest.From.ID)
	}

	slog.Debug("bot: Update received", attrs...)

	err := ctx.Next(update)
	if err != nil {
		slog.Error("bot: Update handling failed", append(attrs, "error", err)...)
	}
	return err
}
