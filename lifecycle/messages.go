package lifecycle

import (
	"fmt"
	"strings"

	"git.skobk.in/skobkin/group-formation-bot/storage"
)

const noInterests = "No interests provided."

func applicationText(group *storage.Group, applicant *storage.Applicant, interests string) string {
	return fmt.Sprintf("%s applied to your group \"%s\" (ID: %s).\nReason: %s\nInterests: %s",
		applicant.UserName, group.Name, group.ID, applicant.Reason, interests)
}

func pendingApplicationText(group *storage.Group, applicant *storage.Applicant, interests string) string {
	return fmt.Sprintf("Applicant for group \"%s\" (ID: %s)\nApplicant: %s\nReason: %s\nInterests: %s",
		group.Name, group.ID, applicant.UserName, applicant.Reason, interests)
}

func acceptedText(group *storage.Group) string {
	return fmt.Sprintf("You have been accepted to the group \"%s\". Congrats!", group.Name)
}

func rejectedText(group *storage.Group) string {
	return fmt.Sprintf("Your application to \"%s\" was rejected.", group.Name)
}

func filledText(group *storage.Group) string {
	return fmt.Sprintf("The group \"%s\" you applied to has been filled. Your application has been closed.", group.Name)
}

func completedText(group *storage.Group, channel *Channel) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "The group \"%s\" is complete!", group.Name)
	if channel.InviteLink != "" {
		fmt.Fprintf(&sb, " Join your private chat: %s", channel.InviteLink)
	}
	return sb.String()
}

func completionFailedText(group *storage.Group) string {
	return fmt.Sprintf("Your group \"%s\" is full, but the private chat could not be created. "+
		"An administrator may need to use /forcegroup %s.", group.Name, group.ID)
}

func operatorProvisionText(group *storage.Group, err error) string {
	return fmt.Sprintf("Channel provisioning failed for group \"%s\" (ID: %s): %v. Retry with /forcegroup %s.",
		group.Name, group.ID, err, group.ID)
}
