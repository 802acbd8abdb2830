package lifecycle

import (
	"context"

	"git.skobk.in/skobkin/group-formation-bot/storage"
)

// Store is the record store the engine drives
type Store interface {
	SettingsStore

	CreateGroup(group *storage.Group) error
	GetGroup(id string) (*storage.Group, error)
	ListGroups() ([]storage.Group, error)
	ListGroupsByCreator(creatorID int64) ([]storage.Group, error)
	SetAnnouncementMessage(id string, messageID int) error
	MarkGroupComplete(id, channelRef, channelInvite string) error

	AddApplicant(applicant *storage.Applicant) error
	GetApplicant(groupID string, userID int64) (*storage.Applicant, error)
	RemoveApplicant(groupID string, userID int64) error
	ListApplicants(groupID string) ([]storage.Applicant, error)
	RemoveAllApplicants(groupID string) (int64, error)

	AddMember(groupID string, userID int64) error
	ListMembers(groupID string) ([]int64, error)
	CountMembers(groupID string) (int, error)
	IsMember(groupID string, userID int64) (bool, error)

	GetInterests(userID int64) (string, error)
	UpsertInterests(userID int64, interests string) error
}

// Channel is a provisioned private communication space
type Channel struct {
	Ref        string
	InviteLink string
}

// ChannelProvisioner creates a channel readable and writable only by the given members
type ChannelProvisioner interface {
	Provision(ctx context.Context, group *storage.Group, memberIDs []int64) (*Channel, error)
}

// Message is a user-facing notification, optionally offering actions to the recipient
type Message struct {
	Text    string
	Actions []Action
}

// Notifier delivers messages to users and operators
type Notifier interface {
	Notify(ctx context.Context, userID int64, msg Message) error
	NotifyOperators(ctx context.Context, text string) error
}

// Announcer publishes groups and their apply affordance
type Announcer interface {
	Announce(ctx context.Context, group *storage.Group) (int, error)
	DisableApply(ctx context.Context, group *storage.Group) error
}

// Actor is the user performing an action. IsAdmin comes from the hosting platform and is trusted.
type Actor struct {
	ID      int64
	Name    string
	IsAdmin bool
}
