package bot

import (
	"context"
	"log/slog"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"git.skobk.in/skobkin/group-formation-bot/lifecycle"
)

// isAdmin trusts ADMIN_USER_IDS first, then the user's role in the announce chat
func (b *Bot) isAdmin(ctx context.Context, userID int64) bool {
	if b.cfg.IsAdminUser(userID) {
		return true
	}

	member, err := b.bot.GetChatMember(ctx, &telego.GetChatMemberParams{
		ChatID: tu.ID(b.cfg.AnnounceChatID),
		UserID: userID,
	})
	if err != nil {
		slog.Warn("bot: Failed to get chat member", "error", err, "user_id", userID)
		return false
	}

	switch member.MemberStatus() {
	case telego.MemberStatusCreator, telego.MemberStatusAdministrator:
		return true
	default:
		return false
	}
}

// adminActor is actorOf with IsAdmin resolved, for commands that need it
func (b *Bot) adminActor(ctx context.Context, user *telego.User) lifecycle.Actor {
	actor := actorOf(user)
	actor.IsAdmin = b.isAdmin(ctx, user.ID)
	return actor
}
