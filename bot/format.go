package bot

import (
	"fmt"
	"strings"

	"git.skobk.in/skobkin/group-formation-bot/lifecycle"
)

func groupStatus(summary lifecycle.GroupSummary) string {
	if summary.Group.Complete {
		return "✅ complete"
	}
	return fmt.Sprintf("🟢 open, %d/%d", summary.AcceptedCount(), summary.Group.MemberCount)
}

func formatMention(userID int64) string {
	return fmt.Sprintf("[user %d](tg://user?id=%d)", userID, userID)
}

func formatGroupList(summaries []lifecycle.GroupSummary) string {
	if len(summaries) == 0 {
		return escapeMarkdownV2("No groups yet.")
	}

	lines := make([]string, 0, len(summaries)+1)
	lines = append(lines, "*Groups:*")
	for _, summary := range summaries {
		lines = append(lines, escapeMarkdownV2(fmt.Sprintf("• %s (ID: %s) by %s: %s",
			summary.Group.Name, summary.Group.ID, summary.Group.CreatorName, groupStatus(summary))))
	}
	return strings.Join(lines, "\n")
}

func formatMyGroups(summaries []lifecycle.GroupSummary) string {
	if len(summaries) == 0 {
		return escapeMarkdownV2("🧙 You haven't created any groups yet. Use /creategroup to start one!")
	}

	var sb strings.Builder
	sb.WriteString("*Your groups:*\n")
	for _, summary := range summaries {
		fmt.Fprintf(&sb, "\n*%s* %s\n",
			escapeMarkdownV2(summary.Group.Name),
			escapeMarkdownV2(fmt.Sprintf("(ID: %s, %s)", summary.Group.ID, groupStatus(summary))))
		if summary.Group.Topics != "" {
			sb.WriteString(escapeMarkdownV2("Topics: "+summary.Group.Topics) + "\n")
		}
		for _, member := range summary.Members {
			interests := member.Interests
			if interests == "" {
				interests = "No interests provided."
			}
			fmt.Fprintf(&sb, "%s %s\n", formatMention(member.UserID), escapeMarkdownV2("- "+interests))
		}
	}
	return sb.String()
}
