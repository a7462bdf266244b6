package model

import "time"

// Status is the lifecycle state of an allowlist application.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDeclined Status = "declined"
)

// Terminal reports whether no further transition can leave s.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusDeclined
}

// Application is a single row of the 'applications' table.
type Application struct {
	ID              int64   `db:"id"`
	UserID          string  `db:"user_id"`
	UserName        string  `db:"user_name"`
	GuildID         string  `db:"guild_id"`
	HexID           string  `db:"hex_id"`
	RealName        string  `db:"real_name"`
	CharacterName   string  `db:"character_name"`
	Age             int     `db:"age"`
	AgeAttested     bool    `db:"age_attested"`
	Backstory       string  `db:"backstory"`
	Status          Status  `db:"status"`
	DecisionReason  *string `db:"decision_reason"`
	ModeratorID     *string `db:"moderator_id"`
	ReviewMessageID *string `db:"review_message_id"`
	SubmittedAt     int64   `db:"submitted_at"` // unix seconds
	DecidedAt       *int64  `db:"decided_at"`
}

// SubmittedTime returns SubmittedAt as a time.Time.
func (a *Application) SubmittedTime() time.Time {
	return time.Unix(a.SubmittedAt, 0)
}

// Reason returns the decision reason, or "" when none was recorded.
func (a *Application) Reason() string {
	if a.DecisionReason == nil {
		return ""
	}
	return *a.DecisionReason
}

// ApplicationFields is what the applicant typed into the form.
type ApplicationFields struct {
	UserName      string
	GuildID       string
	HexID         string
	RealName      string
	CharacterName string
	Age           string
	Backstory     string
}

// Exemption is a row of 'cooldown_exemptions'.
type Exemption struct {
	UserID    string `db:"user_id"`
	GrantedBy string `db:"granted_by"`
	CreatedAt int64  `db:"created_at"`
}

// Action log verbs.
const (
	ActionSubmitted       = "submitted"
	ActionApproved        = "approved"
	ActionDeclined        = "declined"
	ActionExemptAdded     = "exemption_added"
	ActionExemptRemoved   = "exemption_removed"
	ActionRoleGrantFailed = "role_grant_failed"
)

// ActionLogEntry is a row of 'action_log'.
type ActionLogEntry struct {
	ID           int64  `db:"id"`
	ActorID      string `db:"actor_id"`
	Action       string `db:"action"`
	TargetUserID string `db:"target_user_id"`
	CreatedAt    int64  `db:"created_at"`
	Detail       string `db:"detail"`
}
