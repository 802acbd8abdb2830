package lifecycle

import (
	"fmt"
	"strconv"
	"strings"
)

type ActionKind int

const (
	ActionApply ActionKind = iota + 1
	ActionAccept
	ActionReject
)

const actionSeparator = "_"

var actionNames = map[ActionKind]string{
	ActionApply:  "apply",
	ActionAccept: "accept",
	ActionReject: "reject",
}

func (k ActionKind) String() string {
	if name, ok := actionNames[k]; ok {
		return name
	}
	return "unknown"
}

// Action is a user decision carried through the platform (button data, deep link payloads)
type Action struct {
	Kind    ActionKind
	GroupID string
	UserID  int64
}

func ApplyAction(groupID string) Action {
	return Action{Kind: ActionApply, GroupID: groupID}
}

func AcceptAction(groupID string, userID int64) Action {
	return Action{Kind: ActionAccept, GroupID: groupID, UserID: userID}
}

func RejectAction(groupID string, userID int64) Action {
	return Action{Kind: ActionReject, GroupID: groupID, UserID: userID}
}

// Encode renders the action as apply_<group>, accept_<group>_<user> or reject_<group>_<user>
func (a Action) Encode() string {
	if a.Kind == ActionApply {
		return a.Kind.String() + actionSeparator + a.GroupID
	}
	return a.Kind.String() + actionSeparator + a.GroupID + actionSeparator + strconv.FormatInt(a.UserID, 10)
}

// ParseAction decodes data produced by Encode
func ParseAction(data string) (Action, error) {
	parts := strings.Split(data, actionSeparator)

	var kind ActionKind
	for k, name := range actionNames {
		if parts[0] == name {
			kind = k
		}
	}
	if kind == 0 {
		return Action{}, fmt.Errorf("%w: unknown action %q", ErrValidation, data)
	}

	want := 3
	if kind == ActionApply {
		want = 2
	}
	if len(parts) != want || !IsGroupID(parts[1]) {
		return Action{}, fmt.Errorf("%w: malformed action %q", ErrValidation, data)
	}

	action := Action{Kind: kind, GroupID: parts[1]}
	if kind != ActionApply {
		userID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return Action{}, fmt.Errorf("%w: malformed user id in %q", ErrValidation, data)
		}
		action.UserID = userID
	}

	return action, nil
}

// IsGroupID reports whether s has the shape of a generated group id
func IsGroupID(s string) bool {
	if len(s) != idLength {
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune(idAlphabet, c) {
			return false
		}
	}
	return true
}
