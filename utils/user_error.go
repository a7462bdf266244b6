package utils

import (
	"allowlist-bot/allowlist"
	"errors"
	"fmt"
	"time"
)

// UserErrorMessage turns a workflow error into the text shown to the person who
// triggered it. Store failures never leak driver details.
func UserErrorMessage(err error, now time.Time) string {
	var e *allowlist.Error
	if !errors.As(err, &e) {
		return "An unexpected error occurred. Please try again later."
	}

	switch e.Code {
	case allowlist.CodeValidation:
		return e.Message
	case allowlist.CodeDuplicatePending:
		return "You already have an application pending review. Please wait for a moderator to review it."
	case allowlist.CodeCooldownActive:
		return fmt.Sprintf("You have applied recently. You can apply again <t:%d:R>.", now.Add(e.Remaining).Unix())
	case allowlist.CodeNotFound:
		return "Application not found!"
	case allowlist.CodeAlreadyDecided:
		return fmt.Sprintf("This application has already been %s.", e.Status)
	default:
		return "An error occurred while processing your request. Please try again later."
	}
}
