package utils

import (
	"allowlist-bot/allowlist"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserErrorMessage(t *testing.T) {
	now := time.Unix(1_000_000, 0)

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "validation message is shown as is",
			err:  &allowlist.Error{Code: allowlist.CodeValidation, Message: "Please enter a valid number for age."},
			want: "Please enter a valid number for age.",
		},
		{
			name: "cooldown shows relative time",
			err:  fmt.Errorf("submit: %w", &allowlist.Error{Code: allowlist.CodeCooldownActive, Remaining: time.Hour}),
			want: "You have applied recently. You can apply again <t:1003600:R>.",
		},
		{
			name: "already decided names the status",
			err:  &allowlist.Error{Code: allowlist.CodeAlreadyDecided, Status: "approved"},
			want: "This application has already been approved.",
		},
		{
			name: "store failure hides the cause",
			err:  &allowlist.Error{Code: allowlist.CodeStoreUnavailable, Message: "insert", Cause: errors.New("disk I/O error")},
			want: "An error occurred while processing your request. Please try again later.",
		},
		{
			name: "foreign error",
			err:  errors.New("boom"),
			want: "An unexpected error occurred. Please try again later.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserErrorMessage(tt.err, now))
		})
	}

	assert.Contains(t, UserErrorMessage(&allowlist.Error{Code: allowlist.CodeDuplicatePending}, now), "pending review")
}
