package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func createTestGroup(t *testing.T, s *Storage, id string, creatorID int64, memberCount int) *Group {
	t.Helper()

	group := &Group{
		ID:          id,
		CreatorID:   creatorID,
		CreatorName: "creator",
		Name:        "Board games",
		Description: "Weekly meetups",
		Topics:      "games, tea",
		MemberCount: memberCount,
	}
	require.NoError(t, s.CreateGroup(group))

	return group
}

func TestCreateGroupAddsCreatorAsMember(t *testing.T) {
	s := newTestStorage(t)
	createTestGroup(t, s, "G1", 100, 3)

	group, err := s.GetGroup("G1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), group.CreatorID)
	assert.False(t, group.Complete)
	assert.Nil(t, group.ChannelRef)
	assert.Nil(t, group.AnnouncementMessageID)

	members, err := s.ListMembers("G1")
	require.NoError(t, err)
	assert.Equal(t, []int64{100}, members)
}

func TestCreateGroupRejectsInvalidMemberCount(t *testing.T) {
	s := newTestStorage(t)

	for _, count := range []int{0, 2, 5} {
		err := s.CreateGroup(&Group{ID: "BAD", CreatorID: 1, Name: "x", MemberCount: count})
		assert.ErrorIs(t, err, ErrInvalidMemberCount)
	}

	_, err := s.GetGroup("BAD")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetGroupNotFound(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetGroup("MISSING")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListGroupsByCreator(t *testing.T) {
	s := newTestStorage(t)
	createTestGroup(t, s, "G1", 100, 3)
	createTestGroup(t, s, "G2", 200, 4)
	createTestGroup(t, s, "G3", 100, 4)

	all, err := s.ListGroups()
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := s.ListGroupsByCreator(100)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.ElementsMatch(t, []string{"G1", "G3"}, []string{mine[0].ID, mine[1].ID})
}

func TestSetAnnouncementMessage(t *testing.T) {
	s := newTestStorage(t)
	createTestGroup(t, s, "G1", 100, 3)

	require.NoError(t, s.SetAnnouncementMessage("G1", 42))
	group, err := s.GetGroup("G1")
	require.NoError(t, err)
	require.NotNil(t, group.AnnouncementMessageID)
	assert.Equal(t, 42, *group.AnnouncementMessageID)

	assert.ErrorIs(t, s.SetAnnouncementMessage("MISSING", 1), ErrNotFound)
}

func TestMarkGroupCompleteIsMonotonic(t *testing.T) {
	s := newTestStorage(t)
	createTestGroup(t, s, "G1", 100, 3)

	require.NoError(t, s.MarkGroupComplete("G1", "-1001", "https://t.me/+abc"))

	group, err := s.GetGroup("G1")
	require.NoError(t, err)
	assert.True(t, group.Complete)
	require.NotNil(t, group.ChannelRef)
	assert.Equal(t, "-1001", *group.ChannelRef)

	err = s.MarkGroupComplete("G1", "-1002", "")
	assert.ErrorIs(t, err, ErrAlreadyComplete)

	group, err = s.GetGroup("G1")
	require.NoError(t, err)
	assert.True(t, group.Complete)
	assert.Equal(t, "-1001", *group.ChannelRef)

	assert.ErrorIs(t, s.MarkGroupComplete("MISSING", "x", ""), ErrNotFound)
}

func TestApplicantLifecycle(t *testing.T) {
	s := newTestStorage(t)
	createTestGroup(t, s, "G1", 100, 3)

	require.NoError(t, s.AddApplicant(&Applicant{GroupID: "G1", UserID: 200, UserName: "bob", Reason: "hi"}))
	err := s.AddApplicant(&Applicant{GroupID: "G1", UserID: 200, UserName: "bob", Reason: "again"})
	assert.ErrorIs(t, err, ErrDuplicate)

	applicant, err := s.GetApplicant("G1", 200)
	require.NoError(t, err)
	assert.Equal(t, "hi", applicant.Reason)

	require.NoError(t, s.RemoveApplicant("G1", 200))
	require.NoError(t, s.RemoveApplicant("G1", 200), "removal is idempotent")

	_, err = s.GetApplicant("G1", 200)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveAllApplicants(t *testing.T) {
	s := newTestStorage(t)
	createTestGroup(t, s, "G1", 100, 3)
	createTestGroup(t, s, "G2", 100, 3)

	for _, id := range []int64{200, 300, 400} {
		require.NoError(t, s.AddApplicant(&Applicant{GroupID: "G1", UserID: id}))
	}
	require.NoError(t, s.AddApplicant(&Applicant{GroupID: "G2", UserID: 200}))

	removed, err := s.RemoveAllApplicants("G1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	left, err := s.ListApplicants("G1")
	require.NoError(t, err)
	assert.Empty(t, left)

	other, err := s.ListApplicants("G2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestAddMemberIsIdempotent(t *testing.T) {
	s := newTestStorage(t)
	createTestGroup(t, s, "G1", 100, 3)

	require.NoError(t, s.AddMember("G1", 200))
	require.NoError(t, s.AddMember("G1", 200))

	count, err := s.CountMembers("G1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	isMember, err := s.IsMember("G1", 200)
	require.NoError(t, err)
	assert.True(t, isMember)

	require.NoError(t, s.RemoveMember("G1", 200))
	isMember, err = s.IsMember("G1", 200)
	require.NoError(t, err)
	assert.False(t, isMember)
}

func TestInterestsUpsert(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetInterests(1)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.UpsertInterests(1, "chess"))
	require.NoError(t, s.UpsertInterests(1, "hiking, chess"))

	interests, err := s.GetInterests(1)
	require.NoError(t, err)
	assert.Equal(t, "hiking, chess", interests)
}

func TestSettings(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetSetting("group_creation_allowed")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SetSetting("group_creation_allowed", "true"))
	require.NoError(t, s.SetSetting("group_creation_allowed", "false"))

	value, err := s.GetSetting("group_creation_allowed")
	require.NoError(t, err)
	assert.Equal(t, "false", value)
}

func TestChannelPool(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.SyncChannelPool([]int64{-1002, -1001}))
	require.NoError(t, s.SyncChannelPool([]int64{-1002, -1001}))

	first, err := s.ClaimChannelSlot("G1")
	require.NoError(t, err)

	again, err := s.ClaimChannelSlot("G1")
	require.NoError(t, err)
	assert.Equal(t, first.ChatID, again.ChatID, "a group keeps its slot")

	second, err := s.ClaimChannelSlot("G2")
	require.NoError(t, err)
	assert.NotEqual(t, first.ChatID, second.ChatID)

	_, err = s.ClaimChannelSlot("G3")
	assert.ErrorIs(t, err, ErrPoolExhausted)

	require.NoError(t, s.SetSlotInviteLink(first.ChatID, "https://t.me/+xyz"))
	slot, err := s.FindSlotByChat(first.ChatID)
	require.NoError(t, err)
	require.NotNil(t, slot.GroupID)
	assert.Equal(t, "G1", *slot.GroupID)
	assert.Equal(t, "https://t.me/+xyz", slot.InviteLink)
}

func TestChannelGrants(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.GrantChannelAccess(-1001, []int64{1, 2}))
	require.NoError(t, s.GrantChannelAccess(-1001, []int64{2}))

	ok, err := s.HasChannelAccess(-1001, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.HasChannelAccess(-1001, 3)
	require.NoError(t, err)
	assert.False(t, ok)
}
