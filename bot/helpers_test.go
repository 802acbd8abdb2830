package bot

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.skobk.in/skobkin/group-formation-bot/lifecycle"
	"git.skobk.in/skobkin/group-formation-bot/storage"
)

func TestEscapeMarkdownV2(t *testing.T) {
	assert.Equal(t, `1\+1\=2 \(ok\)\!`, escapeMarkdownV2("1+1=2 (ok)!"))
	assert.Equal(t, `a\\b\_c`, escapeMarkdownV2(`a\b_c`))
	assert.Equal(t, "plain text", escapeMarkdownV2("plain text"))
}

func TestCommandPayload(t *testing.T) {
	assert.Equal(t, "apply_ABCDEFGH12", commandPayload("/start apply_ABCDEFGH12"))
	assert.Equal(t, "", commandPayload("/help"))
	assert.Equal(t, "ABCDEFGH12  because", commandPayload("/apply  ABCDEFGH12  because "))
}

func TestParseCreateGroup(t *testing.T) {
	params, err := parseCreateGroup("3 | Go club | Learn Go together | concurrency, generics")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.NewGroup{
		Name:        "Go club",
		Description: "Learn Go together",
		Topics:      "concurrency, generics",
		MemberCount: 3,
	}, params)

	params, err = parseCreateGroup("4|Reading|Books|novels")
	require.NoError(t, err)
	assert.Equal(t, 4, params.MemberCount)
	assert.Equal(t, "novels", params.Topics)

	for _, payload := range []string{"", "3 | only name", "4|Reading|Books", "three | a | b | c", "3|a|b|c|d"} {
		_, err := parseCreateGroup(payload)
		assert.ErrorIs(t, err, lifecycle.ErrValidation, payload)
	}
}

func TestPromptGroupID(t *testing.T) {
	group := &storage.Group{ID: "ABCDEFGH12", Name: "Tricky (ID: ZZZZZZZZZZ)"}
	assert.Equal(t, "ABCDEFGH12", promptGroupID(applyPromptText(group)))
	assert.Equal(t, "", promptGroupID("hello there"))
}

func TestReplyToApplicationNotificationIsNotAnApplyPrompt(t *testing.T) {
	notification := &telego.Message{
		From: &telego.User{ID: 100, IsBot: true},
		Text: "alice applied to your group \"Go club\" (ID: ABCDEFGHIJ).\nReason: hi\nInterests: Go",
	}
	update := telego.Update{Message: &telego.Message{
		From:           &telego.User{ID: 1},
		Text:           "thanks",
		ReplyToMessage: notification,
	}}

	assert.False(t, isApplyPromptReply(context.Background(), update))
	assert.Equal(t, "", promptGroupID(notification.Text))
}

func TestIsApplyPromptReply(t *testing.T) {
	prompt := &telego.Message{
		From: &telego.User{ID: 100, IsBot: true},
		Text: applyPromptText(&storage.Group{ID: "ABCDEFGH12", Name: "Go club"}),
	}
	reply := func(text string, to *telego.Message) telego.Update {
		return telego.Update{Message: &telego.Message{
			From:           &telego.User{ID: 1},
			Text:           text,
			ReplyToMessage: to,
		}}
	}

	assert.True(t, isApplyPromptReply(context.Background(), reply("I love Go", prompt)))
	assert.False(t, isApplyPromptReply(context.Background(), reply("/help", prompt)))
	assert.False(t, isApplyPromptReply(context.Background(), reply("I love Go", nil)))
	assert.False(t, isApplyPromptReply(context.Background(), reply("I love Go", &telego.Message{
		From: &telego.User{ID: 2},
		Text: prompt.Text,
	})))
	assert.False(t, isApplyPromptReply(context.Background(), telego.Update{}))
}

func TestRetryAfterSeconds(t *testing.T) {
	err := errors.New(`telego: sendMessage: api: 429 "Too Many Requests: retry after 5", migrate to chat ID: 0, retry after: 5`)
	assert.Equal(t, 5, retryAfterSeconds(err))
	assert.Equal(t, 0, retryAfterSeconds(errors.New("boom")))
}

func TestDescribeError(t *testing.T) {
	assert.Equal(t, "Invalid input: name is required",
		describeError(fmt.Errorf("%w: name is required", lifecycle.ErrValidation)))
	assert.Contains(t, describeError(lifecycle.ErrNoGroups), "/creategroup")
	assert.Equal(t, "Group not found.", describeError(lifecycle.ErrGroupNotFound))
	assert.Contains(t, describeError(fmt.Errorf("%w: %w", lifecycle.ErrProvision, errors.New("pool empty"))), "private chat")
	assert.Equal(t, dmFailedText, describeError(fmt.Errorf("%w: blocked", lifecycle.ErrDelivery)))
	assert.Contains(t, describeError(lifecycle.ErrGroupFull), "/forcegroup")
	assert.Contains(t, describeError(errors.New("disk on fire")), "unexpected")
}

func TestActionKeyboard(t *testing.T) {
	assert.Nil(t, actionKeyboard(nil))

	keyboard := actionKeyboard([]lifecycle.Action{
		lifecycle.AcceptAction("ABCDEFGH12", 42),
		lifecycle.RejectAction("ABCDEFGH12", 42),
	})
	require.NotNil(t, keyboard)
	require.Len(t, keyboard.InlineKeyboard, 1)
	require.Len(t, keyboard.InlineKeyboard[0], 2)
	assert.Equal(t, "accept_ABCDEFGH12_42", keyboard.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "reject_ABCDEFGH12_42", keyboard.InlineKeyboard[0][1].CallbackData)
}

func TestDecisionResult(t *testing.T) {
	assert.Equal(t, "❌ Rejected.", decisionResult(&lifecycle.Outcome{Action: lifecycle.RejectAction("G", 1)}))
	assert.Equal(t, "✅ Accepted.", decisionResult(&lifecycle.Outcome{Action: lifecycle.AcceptAction("G", 1)}))
	assert.Contains(t, decisionResult(&lifecycle.Outcome{Action: lifecycle.AcceptAction("G", 1), Completed: true}), "complete")
	assert.Contains(t, decisionResult(&lifecycle.Outcome{
		Action:        lifecycle.AcceptAction("G", 1),
		CompletionErr: lifecycle.ErrProvision,
	}), "Administrators")
}

func TestCreateReplyKeyboard(t *testing.T) {
	b := &Bot{}
	assert.Nil(t, b.createReplyKeyboard("forcegroup", nil))

	keyboard := b.createReplyKeyboard("forcegroup", []storage.Group{{ID: "A"}, {ID: "B"}, {ID: "C"}})
	require.NotNil(t, keyboard)
	require.Len(t, keyboard.Keyboard, 2)
	assert.Equal(t, "/forcegroup A", keyboard.Keyboard[0][0].Text)
	assert.Equal(t, "/forcegroup B", keyboard.Keyboard[0][1].Text)
	assert.Len(t, keyboard.Keyboard[1], 1)
}

func TestFormatGroupList(t *testing.T) {
	assert.Equal(t, `No groups yet\.`, formatGroupList(nil))

	text := formatGroupList([]lifecycle.GroupSummary{
		{
			Group:   storage.Group{ID: "ABCDEFGH12", Name: "Go club", CreatorName: "alice", MemberCount: 3},
			Members: []lifecycle.MemberSummary{{UserID: 1}},
		},
		{
			Group:   storage.Group{ID: "0123456789", Name: "Done", CreatorName: "bob", MemberCount: 3, Complete: true},
			Members: []lifecycle.MemberSummary{{UserID: 2}, {UserID: 3}, {UserID: 4}},
		},
	})
	assert.Contains(t, text, "Go club \\(ID: ABCDEFGH12\\) by alice: 🟢 open, 1/3")
	assert.Contains(t, text, "✅ complete")
}

func TestFormatMyGroups(t *testing.T) {
	text := formatMyGroups([]lifecycle.GroupSummary{{
		Group:   storage.Group{ID: "ABCDEFGH12", Name: "Go club", MemberCount: 3, Topics: "generics"},
		Members: []lifecycle.MemberSummary{{UserID: 42, Interests: "compilers"}},
	}})
	assert.Contains(t, text, "*Go club*")
	assert.Contains(t, text, "[user 42](tg://user?id=42) \\- compilers")
	assert.Contains(t, text, "Topics: generics")
}

func TestAnnouncementText(t *testing.T) {
	text := announcementText(&storage.Group{
		ID:          "ABCDEFGH12",
		Name:        "Go club",
		CreatorName: "alice",
		Description: "Learn Go",
		MemberCount: 4,
	})
	assert.Contains(t, text, "Go club")
	assert.Contains(t, text, "Looking for: 4 members")
	assert.Contains(t, text, "Group ID: ABCDEFGH12")
	assert.NotContains(t, text, "Topics:")
}

func TestApplyLink(t *testing.T) {
	a := &Announcer{botUsername: "group_bot"}
	assert.Equal(t, "https://t.me/group_bot?start=apply_ABCDEFGH12", a.applyLink("ABCDEFGH12"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hé", truncate("héllo", 2))
	assert.Equal(t, "short", truncate("short", 10))
}

func TestProvisionerAdmit(t *testing.T) {
	s, err := storage.New(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.SyncChannelPool([]int64{-1001}))
	require.NoError(t, s.GrantChannelAccess(-1001, []int64{1}))

	p := &Provisioner{storage: s}

	pooled, allowed, err := p.admit(-1001, 1)
	require.NoError(t, err)
	assert.True(t, pooled)
	assert.True(t, allowed)

	pooled, allowed, err = p.admit(-1001, 2)
	require.NoError(t, err)
	assert.True(t, pooled)
	assert.False(t, allowed)

	pooled, _, err = p.admit(-5, 1)
	require.NoError(t, err)
	assert.False(t, pooled)
}
