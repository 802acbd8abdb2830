package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"git.skobk.in/skobkin/group-formation-bot/lifecycle"
	"git.skobk.in/skobkin/group-formation-bot/storage"
)

func (b *Bot) startHandler(ctx *th.Context, message telego.Message) error {
	slog.Info("/start")

	payload := commandPayload(message.Text)
	if payload != "" {
		action, err := lifecycle.ParseAction(payload)
		if err == nil && action.Kind == lifecycle.ActionApply {
			b.promptApply(ctx, message, action.GroupID)
			return nil
		}
		slog.Debug("bot: Unknown start payload", "payload", payload)
	}

	b.sendMessage(ctx, message.Chat.ID, startText)
	return nil
}

func (b *Bot) helpHandler(ctx *th.Context, message telego.Message) error {
	slog.Info("/help")

	b.sendMessage(ctx, message.Chat.ID, helpText)
	return nil
}

func (b *Bot) createGroupHandler(ctx *th.Context, message telego.Message) error {
	params, err := parseCreateGroup(commandPayload(message.Text))
	if err != nil {
		b.sendMessage(ctx, message.Chat.ID, describeError(err)+"\n"+createGroupUsage)
		return nil
	}

	group, err := b.engine.CreateGroup(ctx, actorOf(message.From), params)
	if err != nil {
		b.sendMessage(ctx, message.Chat.ID, describeError(err))
		return nil
	}

	b.sendMessage(ctx, message.Chat.ID, fmt.Sprintf(
		"✅ Group \"%s\" created with ID %s. You'll get a private message for every application.",
		group.Name, group.ID))
	return nil
}

// promptApply asks the user for their reason with a ForceReply prompt
func (b *Bot) promptApply(ctx context.Context, message telego.Message, groupID string) {
	group, err := b.engine.CheckApply(ctx, groupID, message.From.ID)
	if err != nil {
		b.sendMessage(ctx, message.Chat.ID, describeError(err))
		return
	}

	prompt := tu.Message(tu.ID(message.Chat.ID), applyPromptText(group))
	prompt.ReplyMarkup = tu.ForceReply().WithInputFieldPlaceholder("Why do you want to join?")
	if _, err := b.sender.send(ctx, prompt); err != nil {
		slog.Error("bot: Failed to send apply prompt", "error", err, "chat_id", message.Chat.ID)
	}
}

func (b *Bot) applyHandler(ctx *th.Context, message telego.Message) error {
	payload := commandPayload(message.Text)
	groupID, reason, _ := strings.Cut(payload, " ")
	if groupID == "" {
		b.sendMessage(ctx, message.Chat.ID, applyUsage)
		return nil
	}
	groupID = strings.ToUpper(groupID)

	if strings.TrimSpace(reason) == "" {
		b.promptApply(ctx, message, groupID)
		return nil
	}

	b.apply(ctx, message, groupID, reason)
	return nil
}

func (b *Bot) applyReplyHandler(ctx *th.Context, message telego.Message) error {
	b.apply(ctx, message, promptGroupID(message.ReplyToMessage.Text), message.Text)
	return nil
}

func (b *Bot) apply(ctx context.Context, message telego.Message, groupID, reason string) {
	group, err := b.engine.Apply(ctx, actorOf(message.From), groupID, reason)
	if err != nil {
		b.sendMessage(ctx, message.Chat.ID, describeError(err))
		return
	}

	b.sendMessage(ctx, message.Chat.ID, fmt.Sprintf(
		"📨 Your application to \"%s\" was sent to its creator. I'll let you know their decision.", group.Name))
}

// isApplyPromptReply matches replies to the bot's own apply prompts
func isApplyPromptReply(_ context.Context, update telego.Update) bool {
	message := update.Message
	if message == nil || message.From == nil || message.ReplyToMessage == nil || message.Text == "" {
		return false
	}
	if strings.HasPrefix(message.Text, "/") {
		return false
	}

	prompt := message.ReplyToMessage
	if prompt.From == nil || !prompt.From.IsBot {
		return false
	}
	return promptGroupID(prompt.Text) != ""
}

func (b *Bot) interestsHandler(ctx *th.Context, message telego.Message) error {
	interests := commandPayload(message.Text)
	if interests == "" {
		b.sendMessage(ctx, message.Chat.ID, interestsUsage)
		return nil
	}

	if err := b.engine.RegisterInterests(ctx, actorOf(message.From), interests); err != nil {
		b.sendMessage(ctx, message.Chat.ID, describeError(err))
		return nil
	}

	b.sendMessage(ctx, message.Chat.ID, "👍 Your interests were saved. Group creators will see them with your applications.")
	return nil
}

func (b *Bot) listApplicationsHandler(ctx *th.Context, message telego.Message) error {
	sent, err := b.engine.SendPendingApplications(ctx, actorOf(message.From))
	if err != nil {
		b.sendMessage(ctx, message.Chat.ID, describeError(err))
		return nil
	}

	if sent == 0 {
		b.sendMessage(ctx, message.Chat.ID, "There are no open applications to your groups.")
		return nil
	}
	if message.Chat.Type != telego.ChatTypePrivate {
		b.sendMessage(ctx, message.Chat.ID, fmt.Sprintf("📬 Sent you %d application(s) privately.", sent))
	}
	return nil
}

func (b *Bot) listGroupsHandler(ctx *th.Context, message telego.Message) error {
	summaries, err := b.engine.ListGroups(ctx)
	if err != nil {
		slog.Error("bot: Failed to list groups", "error", err)
		b.sendMessage(ctx, message.Chat.ID, describeError(err))
		return nil
	}

	if err := b.sendMarkdown(ctx, message.Chat.ID, formatGroupList(summaries)); err != nil {
		slog.Error("bot: Failed to send group list", "error", err, "chat_id", message.Chat.ID)
	}
	return nil
}

func (b *Bot) listMyGroupsHandler(ctx *th.Context, message telego.Message) error {
	summaries, err := b.engine.ListCreatedGroups(ctx, actorOf(message.From))
	if err != nil {
		slog.Error("bot: Failed to list created groups", "error", err, "user_id", message.From.ID)
		b.sendMessage(ctx, message.Chat.ID, describeError(err))
		return nil
	}

	b.replyPrivately(ctx, message, formatMyGroups(summaries), "📬 Sent you your groups privately.")
	return nil
}

func (b *Bot) forceGroupHandler(ctx *th.Context, message telego.Message) error {
	actor := b.adminActor(ctx, message.From)
	if !actor.IsAdmin {
		b.sendMessage(ctx, message.Chat.ID, describeError(lifecycle.ErrNotAdmin))
		return nil
	}

	groupID := strings.ToUpper(commandPayload(message.Text))
	if groupID == "" {
		return b.offerOpenGroups(ctx, message.Chat.ID)
	}

	group, channel, err := b.engine.ForceComplete(ctx, actor, groupID)
	if err != nil {
		b.sendMessage(ctx, message.Chat.ID, describeError(err))
		return nil
	}

	b.sendMessage(ctx, message.Chat.ID, fmt.Sprintf("✅ Group \"%s\" is complete. Private chat: %s",
		group.Name, channel.InviteLink))
	return nil
}

// offerOpenGroups shows a keyboard with a /forcegroup button per open group
func (b *Bot) offerOpenGroups(ctx context.Context, chatID int64) error {
	groups, err := b.storage.ListGroups()
	if err != nil {
		return err
	}

	open := make([]storage.Group, 0, len(groups))
	for _, group := range groups {
		if !group.Complete {
			open = append(open, group)
		}
	}

	if len(open) == 0 {
		b.sendMessage(ctx, chatID, "There are no open groups.")
		return nil
	}

	message := tu.Message(tu.ID(chatID), "Which group should be completed?")
	message.ReplyMarkup = b.createReplyKeyboard("forcegroup", open)
	_, err = b.sender.send(ctx, message)
	return err
}

func (b *Bot) allowGroupCreationHandler(ctx *th.Context, message telego.Message) error {
	return b.setGroupCreation(ctx, message, true)
}

func (b *Bot) stopGroupCreationHandler(ctx *th.Context, message telego.Message) error {
	return b.setGroupCreation(ctx, message, false)
}

func (b *Bot) setGroupCreation(ctx context.Context, message telego.Message, enabled bool) error {
	if err := b.engine.SetGroupCreation(ctx, b.adminActor(ctx, message.From), enabled); err != nil {
		b.sendMessage(ctx, message.Chat.ID, describeError(err))
		return nil
	}

	if enabled {
		b.sendMessage(ctx, message.Chat.ID, "✅ Group creation is now enabled.")
	} else {
		b.sendMessage(ctx, message.Chat.ID, "⛔ Group creation is now disabled.")
	}
	return nil
}

// decisionHandler applies an accept or reject button press by the group creator
func (b *Bot) decisionHandler(ctx *th.Context, query telego.CallbackQuery) error {
	action, err := lifecycle.ParseAction(query.Data)
	if err != nil {
		return b.answer(ctx, query.ID, describeError(err), true)
	}

	outcome, err := b.engine.Handle(ctx, actorOf(&query.From), action)
	if err != nil {
		if errors.Is(err, lifecycle.ErrAlreadyHandled) || errors.Is(err, lifecycle.ErrGroupComplete) {
			b.closeDecision(ctx, query, describeError(err))
		}
		return b.answer(ctx, query.ID, describeError(err), true)
	}

	result := decisionResult(outcome)
	b.closeDecision(ctx, query, result)
	return b.answer(ctx, query.ID, result, false)
}

func decisionResult(outcome *lifecycle.Outcome) string {
	if outcome.Action.Kind == lifecycle.ActionReject {
		return "❌ Rejected."
	}

	switch {
	case outcome.Completed:
		return "✅ Accepted. The group is now complete!"
	case outcome.CompletionErr != nil:
		return "✅ Accepted. The group is full, but the private chat could not be created yet. Administrators were alerted."
	default:
		return "✅ Accepted."
	}
}

// closeDecision appends the result to the application message and drops its buttons
func (b *Bot) closeDecision(ctx context.Context, query telego.CallbackQuery, result string) {
	message, ok := query.Message.(*telego.Message)
	if !ok {
		return
	}

	_, err := b.bot.EditMessageText(ctx, &telego.EditMessageTextParams{
		ChatID:    tu.ID(message.Chat.ID),
		MessageID: message.MessageID,
		Text:      message.Text + "\n\n" + result,
	})
	if err != nil {
		slog.Warn("bot: Failed to update decision message", "error", err,
			"chat_id", message.Chat.ID, "message_id", message.MessageID)
	}
}

func (b *Bot) groupFullHandler(ctx *th.Context, query telego.CallbackQuery) error {
	return b.answer(ctx, query.ID, describeError(lifecycle.ErrGroupComplete), true)
}

func (b *Bot) answer(ctx context.Context, queryID, text string, alert bool) error {
	params := tu.CallbackQuery(queryID).WithText(text)
	if alert {
		params = params.WithShowAlert()
	}
	return b.bot.AnswerCallbackQuery(ctx, params)
}

// parseCreateGroup reads "<count> | <name> | <description> | <topics>"
func parseCreateGroup(payload string) (lifecycle.NewGroup, error) {
	parts := strings.Split(payload, "|")
	if len(parts) != 4 {
		return lifecycle.NewGroup{}, fmt.Errorf("%w: expected member count, name, description and topics", lifecycle.ErrValidation)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	count, err := strconv.Atoi(parts[0])
	if err != nil {
		return lifecycle.NewGroup{}, fmt.Errorf("%w: member count must be a number", lifecycle.ErrValidation)
	}

	return lifecycle.NewGroup{
		MemberCount: count,
		Name:        parts[1],
		Description: parts[2],
		Topics:      parts[3],
	}, nil
}
