package bot

import (
	"context"
	"log/slog"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"git.skobk.in/skobkin/group-formation-bot/lifecycle"
)

// Notifier delivers lifecycle messages as private chats with the bot
type Notifier struct {
	sender          *sender
	operatorsChatID int64
}

func (n *Notifier) Notify(ctx context.Context, userID int64, msg lifecycle.Message) error {
	message := tu.Message(tu.ID(userID), msg.Text)
	if keyboard := actionKeyboard(msg.Actions); keyboard != nil {
		message.ReplyMarkup = keyboard
	}

	_, err := n.sender.send(ctx, message)
	return err
}

func (n *Notifier) NotifyOperators(ctx context.Context, text string) error {
	if n.operatorsChatID == 0 {
		slog.Warn("bot: No operators chat configured, alert dropped", "text", text)
		return nil
	}

	_, err := n.sender.send(ctx, tu.Message(tu.ID(n.operatorsChatID), text))
	return err
}

func actionKeyboard(actions []lifecycle.Action) *telego.InlineKeyboardMarkup {
	if len(actions) == 0 {
		return nil
	}

	buttons := make([]telego.InlineKeyboardButton, 0, len(actions))
	for _, action := range actions {
		buttons = append(buttons, tu.InlineKeyboardButton(actionLabel(action.Kind)).WithCallbackData(action.Encode()))
	}
	return tu.InlineKeyboard(tu.InlineKeyboardRow(buttons...))
}

func actionLabel(kind lifecycle.ActionKind) string {
	switch kind {
	case lifecycle.ActionAccept:
		return "✅ Accept"
	case lifecycle.ActionReject:
		return "❌ Reject"
	default:
		return "📝 Apply"
	}
}
