package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"git.skobk.in/skobkin/group-formation-bot/storage"
)

const (
	idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	idLength   = 10
)

// NewGroupID generates a short collision-resistant group id
func NewGroupID() (string, error) {
	return gonanoid.Generate(idAlphabet, idLength)
}

// NewGroup holds the parameters a creator submits
type NewGroup struct {
	Name        string
	Description string
	Topics      string
	MemberCount int
}

// Outcome is the result of a decision on an application
type Outcome struct {
	Action    Action
	Group     *storage.Group
	Applicant *storage.Applicant
	// Completed is set when the decision filled the group and the channel was provisioned
	Completed bool
	Channel   *Channel
	// CompletionErr is set when the group filled up but could not be completed
	CompletionErr error
}

// Engine drives groups from Open to Complete
type Engine struct {
	store       Store
	provisioner ChannelProvisioner
	notifier    Notifier
	announcer   Announcer
	toggle      *CreationToggle
	locks       *groupLocks
	newID       func() (string, error)
}

func New(store Store, provisioner ChannelProvisioner, notifier Notifier, announcer Announcer, toggle *CreationToggle) *Engine {
	return &Engine{
		store:       store,
		provisioner: provisioner,
		notifier:    notifier,
		announcer:   announcer,
		toggle:      toggle,
		locks:       newGroupLocks(),
		newID:       NewGroupID,
	}
}

// CreateGroup opens a new group with the actor as creator and first member, then announces it
func (e *Engine) CreateGroup(ctx context.Context, actor Actor, params NewGroup) (group *storage.Group, err error) {
	defer func() { observe("create", err) }()

	if !e.toggle.Enabled() {
		return nil, ErrCreationDisabled
	}

	params.Name = strings.TrimSpace(params.Name)
	params.Description = strings.TrimSpace(params.Description)
	params.Topics = strings.TrimSpace(params.Topics)
	if err := validateNewGroup(params); err != nil {
		return nil, err
	}

	id, err := e.newID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate group id: %w", err)
	}

	group = &storage.Group{
		ID:          id,
		CreatorID:   actor.ID,
		CreatorName: actor.Name,
		Name:        params.Name,
		Description: params.Description,
		Topics:      params.Topics,
		MemberCount: params.MemberCount,
	}
	if err := e.store.CreateGroup(group); err != nil {
		if errors.Is(err, storage.ErrInvalidMemberCount) {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return nil, err
	}

	slog.Info("lifecycle: Group created", "group_id", group.ID, "creator_id", actor.ID,
		"member_count", group.MemberCount)

	messageID, err := e.announcer.Announce(ctx, group)
	if err != nil {
		slog.Warn("lifecycle: Failed to announce group", "error", err, "group_id", group.ID)
		return group, nil
	}
	if err := e.store.SetAnnouncementMessage(group.ID, messageID); err != nil {
		slog.Warn("lifecycle: Failed to record announcement", "error", err, "group_id", group.ID)
		return group, nil
	}
	group.AnnouncementMessageID = &messageID

	return group, nil
}

func validateNewGroup(params NewGroup) error {
	switch {
	case params.Name == "":
		return fmt.Errorf("%w: group name is required", ErrValidation)
	case params.Description == "":
		return fmt.Errorf("%w: description is required", ErrValidation)
	case params.Topics == "":
		return fmt.Errorf("%w: topics are required", ErrValidation)
	case !storage.IsValidMemberCount(params.MemberCount):
		counts := make([]string, 0, len(storage.ValidMemberCounts))
		for _, c := range storage.ValidMemberCounts {
			counts = append(counts, strconv.Itoa(c))
		}
		return fmt.Errorf("%w: member count must be one of %s", ErrValidation, strings.Join(counts, ", "))
	}
	return nil
}

// CheckApply reports whether the user could apply to the group right now without changing anything
func (e *Engine) CheckApply(ctx context.Context, groupID string, userID int64) (*storage.Group, error) {
	return e.checkApply(groupID, userID)
}

func (e *Engine) checkApply(groupID string, userID int64) (*storage.Group, error) {
	group, err := e.loadGroup(groupID)
	if err != nil {
		return nil, err
	}
	if group.Complete {
		return group, ErrGroupComplete
	}

	isMember, err := e.store.IsMember(groupID, userID)
	if err != nil {
		return nil, err
	}
	if isMember {
		return group, ErrAlreadyMember
	}

	_, err = e.store.GetApplicant(groupID, userID)
	if err == nil {
		return group, ErrDuplicateApplication
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	return group, nil
}

// Apply opens an application of the actor to an open group and alerts the creator
func (e *Engine) Apply(ctx context.Context, actor Actor, groupID, reason string) (group *storage.Group, err error) {
	defer func() { observe("apply", err) }()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: a reason is required", ErrValidation)
	}

	unlock := e.locks.lock(groupID)
	defer unlock()

	group, err = e.checkApply(groupID, actor.ID)
	if err != nil {
		return group, err
	}

	applicant := &storage.Applicant{
		GroupID:  groupID,
		UserID:   actor.ID,
		UserName: actor.Name,
		Reason:   reason,
	}
	if err := e.store.AddApplicant(applicant); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return group, ErrDuplicateApplication
		}
		return group, err
	}

	slog.Info("lifecycle: Application received", "group_id", groupID, "user_id", actor.ID)

	e.notify(ctx, group.CreatorID, Message{
		Text:    applicationText(group, applicant, e.interests(actor.ID)),
		Actions: []Action{AcceptAction(groupID, actor.ID), RejectAction(groupID, actor.ID)},
	})

	return group, nil
}

// decide loads the group and the application a creator decision refers to
func (e *Engine) decide(actor Actor, groupID string, userID int64) (*storage.Group, *storage.Applicant, error) {
	group, err := e.loadGroup(groupID)
	if err != nil {
		return nil, nil, err
	}
	if group.Complete {
		return group, nil, ErrGroupComplete
	}
	if actor.ID != group.CreatorID {
		return group, nil, ErrNotCreator
	}

	applicant, err := e.store.GetApplicant(groupID, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return group, nil, ErrAlreadyHandled
	}
	if err != nil {
		return group, nil, err
	}

	return group, applicant, nil
}

// Accept moves an applicant into the group. When the group reaches its target size it is
// completed before Accept returns. A failed completion does not undo the acceptance.
func (e *Engine) Accept(ctx context.Context, actor Actor, groupID string, userID int64) (outcome *Outcome, err error) {
	defer func() { observe("accept", err) }()

	unlock := e.locks.lock(groupID)
	defer unlock()

	group, applicant, err := e.decide(actor, groupID, userID)
	if err != nil {
		return nil, err
	}

	// a full group whose completion failed waits for ForceComplete
	count, err := e.store.CountMembers(groupID)
	if err != nil {
		return nil, err
	}
	if count >= group.MemberCount {
		return nil, ErrGroupFull
	}

	ctx = context.WithoutCancel(ctx)

	if err := e.store.AddMember(groupID, userID); err != nil {
		return nil, err
	}
	if err := e.store.RemoveApplicant(groupID, userID); err != nil {
		return nil, err
	}

	slog.Info("lifecycle: Applicant accepted", "group_id", groupID, "user_id", userID)
	e.notify(ctx, userID, Message{Text: acceptedText(group)})

	outcome = &Outcome{Action: AcceptAction(groupID, userID), Group: group, Applicant: applicant}

	count, err = e.store.CountMembers(groupID)
	if err != nil {
		return nil, err
	}
	if count < group.MemberCount {
		return outcome, nil
	}

	channel, err := e.complete(ctx, group)
	if err != nil {
		slog.Error("lifecycle: Automatic completion failed", "error", err, "group_id", groupID)
		outcome.CompletionErr = err
		e.notify(ctx, group.CreatorID, Message{Text: completionFailedText(group)})
		if opErr := e.notifier.NotifyOperators(ctx, operatorProvisionText(group, err)); opErr != nil {
			deliveryFailures.Inc()
			slog.Warn("lifecycle: Failed to alert operators", "error", opErr, "group_id", groupID)
		}
		return outcome, nil
	}

	outcome.Completed = true
	outcome.Channel = channel
	return outcome, nil
}

// Reject closes an application without changing membership
func (e *Engine) Reject(ctx context.Context, actor Actor, groupID string, userID int64) (outcome *Outcome, err error) {
	defer func() { observe("reject", err) }()

	unlock := e.locks.lock(groupID)
	defer unlock()

	group, applicant, err := e.decide(actor, groupID, userID)
	if err != nil {
		return nil, err
	}

	if err := e.store.RemoveApplicant(groupID, userID); err != nil {
		return nil, err
	}

	slog.Info("lifecycle: Applicant rejected", "group_id", groupID, "user_id", userID)
	e.notify(ctx, userID, Message{Text: rejectedText(group)})

	return &Outcome{Action: RejectAction(groupID, userID), Group: group, Applicant: applicant}, nil
}

// Handle dispatches a decoded creator decision
func (e *Engine) Handle(ctx context.Context, actor Actor, action Action) (*Outcome, error) {
	switch action.Kind {
	case ActionAccept:
		return e.Accept(ctx, actor, action.GroupID, action.UserID)
	case ActionReject:
		return e.Reject(ctx, actor, action.GroupID, action.UserID)
	default:
		return nil, fmt.Errorf("%w: %s is not a decision", ErrValidation, action.Kind)
	}
}

// ForceComplete completes an open group regardless of how many members it has
func (e *Engine) ForceComplete(ctx context.Context, actor Actor, groupID string) (group *storage.Group, channel *Channel, err error) {
	defer func() { observe("force_complete", err) }()

	if !actor.IsAdmin {
		return nil, nil, ErrNotAdmin
	}

	unlock := e.locks.lock(groupID)
	defer unlock()

	group, err = e.loadGroup(groupID)
	if err != nil {
		return nil, nil, err
	}
	if group.Complete {
		return group, nil, ErrGroupComplete
	}

	channel, err = e.complete(context.WithoutCancel(ctx), group)
	if err != nil {
		return group, nil, err
	}

	slog.Info("lifecycle: Group force completed", "group_id", groupID, "admin_id", actor.ID)
	return group, channel, nil
}

// complete provisions the channel and flips the completion flag. Only those two steps decide
// whether the group is complete; the cleanup after them is best-effort. Callers hold the group lock.
func (e *Engine) complete(ctx context.Context, group *storage.Group) (*Channel, error) {
	members, err := e.store.ListMembers(group.ID)
	if err != nil {
		return nil, err
	}

	channel, err := e.provisioner.Provision(ctx, group, members)
	if err != nil {
		provisionFailures.Inc()
		return nil, fmt.Errorf("%w: %w", ErrProvision, err)
	}

	if err := e.store.MarkGroupComplete(group.ID, channel.Ref, channel.InviteLink); err != nil {
		if errors.Is(err, storage.ErrAlreadyComplete) {
			return nil, ErrGroupComplete
		}
		return nil, err
	}
	group.Complete = true
	group.ChannelRef = &channel.Ref
	group.ChannelInvite = &channel.InviteLink

	observe("complete", nil)
	slog.Info("lifecycle: Group completed", "group_id", group.ID, "channel", channel.Ref, "members", len(members))

	if group.AnnouncementMessageID != nil {
		if err := e.announcer.DisableApply(ctx, group); err != nil {
			slog.Warn("lifecycle: Failed to disable apply button", "error", err, "group_id", group.ID)
		}
	}

	e.closeApplications(ctx, group)

	for _, memberID := range members {
		e.notify(ctx, memberID, Message{Text: completedText(group, channel)})
	}

	return channel, nil
}

// closeApplications tells every remaining applicant the group filled, then discards the applications
func (e *Engine) closeApplications(ctx context.Context, group *storage.Group) {
	applicants, err := e.store.ListApplicants(group.ID)
	if err != nil {
		slog.Warn("lifecycle: Failed to list remaining applicants", "error", err, "group_id", group.ID)
	}
	for _, applicant := range applicants {
		e.notify(ctx, applicant.UserID, Message{Text: filledText(group)})
	}

	removed, err := e.store.RemoveAllApplicants(group.ID)
	if err != nil {
		slog.Warn("lifecycle: Failed to remove remaining applicants", "error", err, "group_id", group.ID)
		return
	}
	if removed > 0 {
		slog.Info("lifecycle: Remaining applications closed", "group_id", group.ID, "count", removed)
	}
}

// SendPendingApplications sends the actor one message per open application to their groups.
// Unlike other notifications a delivery failure stops the listing and is returned.
func (e *Engine) SendPendingApplications(ctx context.Context, actor Actor) (int, error) {
	groups, err := e.store.ListGroupsByCreator(actor.ID)
	if err != nil {
		return 0, err
	}
	if len(groups) == 0 {
		return 0, ErrNoGroups
	}

	sent := 0
	for i := range groups {
		group := &groups[i]
		applicants, err := e.store.ListApplicants(group.ID)
		if err != nil {
			return sent, err
		}

		for j := range applicants {
			applicant := &applicants[j]
			msg := Message{
				Text:    pendingApplicationText(group, applicant, e.interests(applicant.UserID)),
				Actions: []Action{AcceptAction(group.ID, applicant.UserID), RejectAction(group.ID, applicant.UserID)},
			}
			if err := e.notifier.Notify(ctx, actor.ID, msg); err != nil {
				deliveryFailures.Inc()
				slog.Warn("lifecycle: Failed to deliver pending application", "error", err,
					"group_id", group.ID, "user_id", actor.ID)
				return sent, fmt.Errorf("%w: %w", ErrDelivery, err)
			}
			sent++
		}
	}

	return sent, nil
}

// RegisterInterests replaces the interests of the actor
func (e *Engine) RegisterInterests(ctx context.Context, actor Actor, interests string) error {
	interests = strings.TrimSpace(interests)
	if interests == "" {
		return fmt.Errorf("%w: interests are required", ErrValidation)
	}
	return e.store.UpsertInterests(actor.ID, interests)
}

// SetGroupCreation switches group creation on or off
func (e *Engine) SetGroupCreation(ctx context.Context, actor Actor, enabled bool) error {
	if !actor.IsAdmin {
		return ErrNotAdmin
	}
	return e.toggle.Set(enabled)
}

func (e *Engine) GroupCreationEnabled() bool {
	return e.toggle.Enabled()
}

func (e *Engine) loadGroup(groupID string) (*storage.Group, error) {
	group, err := e.store.GetGroup(groupID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrGroupNotFound
	}
	return group, err
}

func (e *Engine) interests(userID int64) string {
	interests, err := e.store.GetInterests(userID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Warn("lifecycle: Failed to get interests", "error", err, "user_id", userID)
		}
		return noInterests
	}
	return interests
}

// notify delivers a best-effort message; failures are logged and counted only
func (e *Engine) notify(ctx context.Context, userID int64, msg Message) {
	if err := e.notifier.Notify(ctx, userID, msg); err != nil {
		deliveryFailures.Inc()
		slog.Warn("lifecycle: Failed to notify user", "error", err, "user_id", userID)
	}
}
