package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"
	"golang.org/x/time/rate"

	"git.skobk.in/skobkin/group-formation-bot/config"
	"git.skobk.in/skobkin/group-formation-bot/lifecycle"
	"git.skobk.in/skobkin/group-formation-bot/storage"
)

var (
	ErrGetMe          = errors.New("cannot retrieve api user")
	ErrUpdatesChannel = errors.New("cannot get updates channel")
	ErrHandlerInit    = errors.New("cannot initialize handler")
)

const (
	settingLastStartupAnnouncement = "last_startup_announcement"
	startupAnnouncementCooldown    = 30 * time.Minute
)

type Bot struct {
	bot         *telego.Bot
	storage     *storage.Storage
	cfg         *config.Config
	engine      *lifecycle.Engine
	sender      *sender
	announcer   *Announcer
	provisioner *Provisioner
}

func New(cfg *config.Config, store *storage.Storage) (*Bot, error) {
	api, err := telego.NewBot(cfg.Token, telego.WithLogger(slogLogger{}))
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	toggle, err := lifecycle.LoadCreationToggle(store)
	if err != nil {
		return nil, err
	}

	s := &sender{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(cfg.SendRate), 1),
	}
	b := &Bot{
		bot:         api,
		storage:     store,
		cfg:         cfg,
		sender:      s,
		announcer:   &Announcer{sender: s, chatID: cfg.AnnounceChatID},
		provisioner: &Provisioner{api: api, storage: store},
	}
	notifier := &Notifier{sender: s, operatorsChatID: cfg.AdminChatID}
	b.engine = lifecycle.New(store, b.provisioner, notifier, b.announcer, toggle)

	return b, nil
}

// Run polls for updates until ctx is cancelled
func (b *Bot) Run(ctx context.Context) error {
	botUser, err := b.bot.GetMe(ctx)
	if err != nil {
		slog.Error("bot: Cannot retrieve api user", "error", err)
		return ErrGetMe
	}

	slog.Info("bot: Running api as",
		"id", botUser.ID,
		"username", botUser.Username,
		"name", botUser.FirstName,
	)
	b.announcer.botUsername = botUser.Username

	if err := b.storage.SyncChannelPool(b.cfg.GroupChatPool); err != nil {
		return err
	}

	updates, err := b.bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		AllowedUpdates: []string{"message", "callback_query", "chat_join_request"},
	})
	if err != nil {
		slog.Error("bot: Cannot get update channel", "error", err)
		return ErrUpdatesChannel
	}

	bh, err := th.NewBotHandler(b.bot, updates)
	if err != nil {
		slog.Error("bot: Cannot initialize bot handler", "error", err)
		return ErrHandlerInit
	}

	bh.Use(b.recoverMiddleware)
	bh.Use(b.logMiddleware)

	bh.HandleMessage(b.startHandler, th.CommandEqual("start"))
	bh.HandleMessage(b.helpHandler, th.CommandEqual("help"))
	bh.HandleMessage(b.createGroupHandler, th.CommandEqual("creategroup"))
	bh.HandleMessage(b.applyHandler, th.CommandEqual("apply"))
	bh.HandleMessage(b.interestsHandler, th.CommandEqual("interests"))
	bh.HandleMessage(b.interestsHandler, th.CommandEqual("registerinterests"))
	bh.HandleMessage(b.listApplicationsHandler, th.CommandEqual("listapplications"))
	bh.HandleMessage(b.listApplicationsHandler, th.CommandEqual("showapplicants"))
	bh.HandleMessage(b.listGroupsHandler, th.CommandEqual("listgroups"))
	bh.HandleMessage(b.listMyGroupsHandler, th.CommandEqual("listmygroups"))
	bh.HandleMessage(b.forceGroupHandler, th.CommandEqual("forcegroup"))
	bh.HandleMessage(b.allowGroupCreationHandler, th.CommandEqual("allowgroupcreation"))
	bh.HandleMessage(b.stopGroupCreationHandler, th.CommandEqual("stopgroupcreation"))
	bh.HandleMessage(b.applyReplyHandler, isApplyPromptReply)
	bh.HandleMessage(b.helpHandler, th.AnyCommand())

	bh.HandleCallbackQuery(b.decisionHandler, th.AnyCallbackQueryWithMessage(), th.Or(
		th.CallbackDataPrefix(lifecycle.ActionAccept.String()+"_"),
		th.CallbackDataPrefix(lifecycle.ActionReject.String()+"_"),
	))
	bh.HandleCallbackQuery(b.groupFullHandler, th.CallbackDataEqual(groupFullCallbackData))

	bh.HandleChatJoinRequest(b.joinRequestHandler)

	go b.announceStartup(ctx)

	go func() {
		<-ctx.Done()
		slog.Info("bot: Stopping update handler")
		if err := bh.Stop(); err != nil {
			slog.Error("bot: Failed to stop update handler", "error", err)
		}
	}()

	return bh.Start()
}

// announceStartup greets the community chat, at most once per cooldown period
func (b *Bot) announceStartup(ctx context.Context) {
	now := time.Now()

	if raw, err := b.storage.GetSetting(settingLastStartupAnnouncement); err == nil {
		last, _ := strconv.ParseInt(raw, 10, 64)
		if now.Sub(time.UnixMilli(last)) < startupAnnouncementCooldown {
			slog.Info("bot: Startup message skipped due to cooldown")
			return
		}
	}

	_, err := b.sender.send(ctx, tu.Message(tu.ID(b.cfg.AnnounceChatID), startupText))
	if err != nil {
		slog.Error("bot: Could not send startup message", "error", err)
		return
	}

	if err := b.storage.SetSetting(settingLastStartupAnnouncement, strconv.FormatInt(now.UnixMilli(), 10)); err != nil {
		slog.Warn("bot: Failed to record startup announcement", "error", err)
	}
	slog.Info("bot: Startup message sent")
}
