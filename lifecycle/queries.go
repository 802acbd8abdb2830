package lifecycle

import (
	"context"

	"git.skobk.in/skobkin/group-formation-bot/storage"
)

// MemberSummary is an accepted member with the interests they registered
type MemberSummary struct {
	UserID    int64
	Interests string
}

// GroupSummary is a group with its accepted members
type GroupSummary struct {
	Group   storage.Group
	Members []MemberSummary
}

func (s GroupSummary) AcceptedCount() int {
	return len(s.Members)
}

// ListGroups summarizes every group
func (e *Engine) ListGroups(ctx context.Context) ([]GroupSummary, error) {
	groups, err := e.store.ListGroups()
	if err != nil {
		return nil, err
	}
	return e.summarize(groups, false)
}

// ListCreatedGroups summarizes the groups created by the actor, including member interests
func (e *Engine) ListCreatedGroups(ctx context.Context, actor Actor) ([]GroupSummary, error) {
	groups, err := e.store.ListGroupsByCreator(actor.ID)
	if err != nil {
		return nil, err
	}
	return e.summarize(groups, true)
}

func (e *Engine) summarize(groups []storage.Group, withInterests bool) ([]GroupSummary, error) {
	summaries := make([]GroupSummary, 0, len(groups))
	for _, group := range groups {
		memberIDs, err := e.store.ListMembers(group.ID)
		if err != nil {
			return nil, err
		}

		members := make([]MemberSummary, 0, len(memberIDs))
		for _, id := range memberIDs {
			member := MemberSummary{UserID: id}
			if withInterests {
				member.Interests = e.interests(id)
			}
			members = append(members, member)
		}

		summaries = append(summaries, GroupSummary{Group: group, Members: members})
	}
	return summaries, nil
}
