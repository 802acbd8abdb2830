package bot

import (
	"fmt"
	"regexp"
	"strings"

	"git.skobk.in/skobkin/group-formation-bot/storage"
)

const (
	startupText = "👋 The group formation bot is online. Use /listgroups to see open groups or " +
		"/creategroup to start your own."

	startText = "Hi! I help people form small study and project groups.\n\n" +
		"Open groups are announced in the community chat. Tap \"Apply\" under an announcement to join one, " +
		"or see /help for all commands."

	helpText = "Commands:\n" +
		"/creategroup <3|4> | <name> | <description> | <topics> - start a new group\n" +
		"/apply <group id> <reason> - apply to a group\n" +
		"/interests <text> - tell group creators what you are interested in\n" +
		"/listgroups - show all groups\n" +
		"/listmygroups - show your groups and their members\n" +
		"/listapplications - receive the open applications to your groups\n\n" +
		"Administrators:\n" +
		"/forcegroup <group id> - complete a group now\n" +
		"/allowgroupcreation, /stopgroupcreation - switch group creation on or off"

	createGroupUsage = "Usage: /creategroup <3|4> | <name> | <description> | <topics>"
	applyUsage       = "Usage: /apply <group id> <reason>"
	interestsUsage   = "Usage: /interests <what you would like to work on>"

	dmFailedText = "I couldn't send you a private message. Please start a chat with me first and try again."
)

const applyPromptMarker = "📝 Applying to "

// The group id in the prompt is how a reply is matched back to its group
var applyPromptPattern = regexp.MustCompile(`\(ID: ([A-Z0-9]+)\)`)

func applyPromptText(group *storage.Group) string {
	return fmt.Sprintf("%s\"%s\" (ID: %s).\nReply to this message with why you want to join.",
		applyPromptMarker, group.Name, group.ID)
}

// promptGroupID extracts the group id from an apply prompt, or returns ""
func promptGroupID(text string) string {
	if !strings.HasPrefix(text, applyPromptMarker) {
		return ""
	}
	matches := applyPromptPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return ""
	}
	// the group name comes first and may contain anything
	return matches[len(matches)-1][1]
}
