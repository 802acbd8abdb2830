package storage

import (
	"time"
)

// ValidMemberCounts lists the target sizes a group may be created with
var ValidMemberCounts = []int{3, 4}

// Group is a proposed small group. The creator is always an accepted member.
type Group struct {
	ID                    string `gorm:"primaryKey;size:10"`
	CreatorID             int64  `gorm:"index;not null"`
	CreatorName           string
	Name                  string `gorm:"not null"`
	Description           string
	Topics                string
	MemberCount           int `gorm:"not null"`
	AnnouncementMessageID *int
	ChannelRef            *string
	ChannelInvite         *string
	Complete              bool `gorm:"not null;default:false"`
	CreatedAt             time.Time
}

// Applicant is an open application of a user to a group
type Applicant struct {
	GroupID   string `gorm:"primaryKey;size:10"`
	UserID    int64  `gorm:"primaryKey;autoIncrement:false"`
	UserName  string
	Reason    string
	CreatedAt time.Time
}

// AcceptedMember is a user accepted into a group
type AcceptedMember struct {
	GroupID   string `gorm:"primaryKey;size:10"`
	UserID    int64  `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time
}

// UserInterests holds the free-text interests a user registered
type UserInterests struct {
	UserID    int64 `gorm:"primaryKey;autoIncrement:false"`
	Interests string
	UpdatedAt time.Time
}

// Setting is a persisted process-wide key/value pair
type Setting struct {
	Key   string `gorm:"primaryKey;column:name"`
	Value string
}

// ChannelSlot is a private chat from the pool, claimed by at most one group
type ChannelSlot struct {
	ChatID     int64   `gorm:"primaryKey;autoIncrement:false"`
	GroupID    *string `gorm:"uniqueIndex;size:10"`
	InviteLink string
	ClaimedAt  *time.Time
}

// ChannelGrant allows a user into a provisioned chat
type ChannelGrant struct {
	ChatID int64 `gorm:"primaryKey;autoIncrement:false"`
	UserID int64 `gorm:"primaryKey;autoIncrement:false"`
}

// IsValidMemberCount reports whether n is an allowed group size
func IsValidMemberCount(n int) bool {
	for _, c := range ValidMemberCounts {
		if c == n {
			return true
		}
	}
	return false
}
