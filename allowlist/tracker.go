// Package allowlist owns the application lifecycle: submission, moderator
// decisions and the cooldown/exemption rules that gate resubmission.
//
// Every operation reads current rows from the store; nothing about applications
// or exemptions is kept in memory between calls.
package allowlist

import (
	"allowlist-bot/metrics"
	"allowlist-bot/model"
	"allowlist-bot/utils/database/applications"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

// RoleGranter assigns the allowlisted role once an application is approved.
type RoleGranter interface {
	GrantRole(ctx context.Context, guildID, userID string) error
}

// Options configures a Tracker.
type Options struct {
	Cooldown time.Duration
	MinAge   int
	// StaticExemptions are user IDs exempt from the cooldown by configuration.
	StaticExemptions []string
	Roles            RoleGranter
	Now              func() time.Time
}

// Tracker runs the application state machine against the store.
type Tracker struct {
	db               *sqlx.DB
	cooldown         time.Duration
	minAge           int
	staticExemptions map[string]struct{}
	roles            RoleGranter
	now              func() time.Time
}

// Decision is the result of a successful Decide call.
type Decision struct {
	Application *model.Application
	// RoleGranted is true when the approval also assigned the role.
	RoleGranted bool
	// RoleErr holds the role assignment failure; the decision stands regardless.
	RoleErr error
}

// NewTracker creates a Tracker over db.
func NewTracker(db *sqlx.DB, opts Options) *Tracker {
	static := make(map[string]struct{}, len(opts.StaticExemptions))
	for _, id := range opts.StaticExemptions {
		if id = strings.TrimSpace(id); id != "" {
			static[id] = struct{}{}
		}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		db:               db,
		cooldown:         opts.Cooldown,
		minAge:           opts.MinAge,
		staticExemptions: static,
		roles:            opts.Roles,
		now:              now,
	}
}

// Cooldown returns the configured cooldown window.
func (t *Tracker) Cooldown() time.Duration {
	return t.cooldown
}

// Submit validates the form, enforces the pending and cooldown rules and stores
// a new pending application, all inside one transaction.
func (t *Tracker) Submit(ctx context.Context, userID string, fields model.ApplicationFields) (app *model.Application, err error) {
	defer func() {
		if err != nil {
			metrics.RecordSubmission(string(CodeOf(err)))
		} else {
			metrics.RecordSubmission("created")
		}
	}()

	app, err = t.validate(userID, fields)
	if err != nil {
		return nil, err
	}

	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storeError("begin submission", err)
	}
	defer tx.Rollback()

	if err := t.checkEligibility(ctx, tx, userID); err != nil {
		return nil, err
	}

	app.Status = model.StatusPending
	app.SubmittedAt = ceilUnix(t.now())
	app.ID, err = applications.InsertApplication(ctx, tx, app)
	if err != nil {
		if applications.IsUniqueViolation(err) {
			// a concurrent submission won the partial unique index
			return nil, &Error{Code: CodeDuplicatePending, Message: "an application is already pending", Cause: err}
		}
		return nil, storeError("insert application", err)
	}

	if err := applications.AppendActionLog(ctx, tx, model.ActionLogEntry{
		ActorID:      userID,
		Action:       model.ActionSubmitted,
		TargetUserID: userID,
		CreatedAt:    app.SubmittedAt,
		Detail:       fmt.Sprintf("application #%d", app.ID),
	}); err != nil {
		return nil, storeError("append action log", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storeError("commit submission", err)
	}

	log.WithFields(log.Fields{
		"application_id": app.ID,
		"user_id":        userID,
	}).Info("Application submitted")
	return app, nil
}

// CheckEligibility reports, without writing, whether userID may submit right now.
// It returns nil, a DuplicatePending error or a CooldownActive error.
func (t *Tracker) CheckEligibility(ctx context.Context, userID string) error {
	return t.checkEligibility(ctx, t.db, userID)
}

func (t *Tracker) checkEligibility(ctx context.Context, q sqlx.ExtContext, userID string) error {
	pending, err := applications.GetPendingByUserID(ctx, q, userID)
	switch {
	case err == nil:
		return duplicatePendingError(pending.ID)
	case !errors.Is(err, sql.ErrNoRows):
		return storeError("check pending application", err)
	}

	remaining, err := t.remainingCooldown(ctx, q, userID)
	if err != nil {
		return err
	}
	if remaining > 0 {
		return cooldownError(remaining)
	}
	return nil
}

func (t *Tracker) validate(userID string, fields model.ApplicationFields) (*model.Application, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, validationError("", "missing applicant")
	}

	required := []struct {
		field, label, value string
	}{
		{FieldHexID, "Steam Hex ID", fields.HexID},
		{FieldRealName, "Real Name", fields.RealName},
		{FieldCharacterName, "Character Name", fields.CharacterName},
		{FieldAge, "Age", fields.Age},
		{FieldBackstory, "Character Story", fields.Backstory},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, validationError(r.field, fmt.Sprintf("%s is required.", r.label))
		}
	}

	age, err := strconv.Atoi(strings.TrimSpace(fields.Age))
	if err != nil || age <= 0 {
		return nil, validationError(FieldAge, "Please enter a valid number for age.")
	}
	if age < t.minAge {
		return nil, validationError(FieldAgeAttestation, fmt.Sprintf("You must be %d+ to apply for the allowlist.", t.minAge))
	}

	return &model.Application{
		UserID:        userID,
		UserName:      strings.TrimSpace(fields.UserName),
		GuildID:       fields.GuildID,
		HexID:         strings.TrimSpace(fields.HexID),
		RealName:      strings.TrimSpace(fields.RealName),
		CharacterName: strings.TrimSpace(fields.CharacterName),
		Age:           age,
		AgeAttested:   true,
		Backstory:     strings.TrimSpace(fields.Backstory),
	}, nil
}

// Decide records a moderator's terminal decision on a pending application.
// Approvals then request the allowlisted role; a failed grant is logged and
// reported on the Decision but never reverts the stored outcome.
func (t *Tracker) Decide(ctx context.Context, applicationID int64, moderatorID string, outcome model.Status, reason string) (decision *Decision, err error) {
	defer func() {
		if err != nil {
			metrics.RecordDecision(string(CodeOf(err)))
		} else {
			metrics.RecordDecision(string(outcome))
		}
	}()

	if !outcome.Terminal() {
		return nil, validationError(FieldOutcome, fmt.Sprintf("%q is not a decision", outcome))
	}
	reason = strings.TrimSpace(reason)
	if outcome == model.StatusDeclined && reason == "" {
		return nil, validationError(FieldReason, "A reason is required to decline an application.")
	}
	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}

	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storeError("begin decision", err)
	}
	defer tx.Rollback()

	now := t.now().Unix()
	app, err := applications.DecideApplication(ctx, tx, applicationID, outcome, moderatorID, reasonPtr, now)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, storeError("update application", err)
		}
		existing, getErr := applications.GetApplicationByID(ctx, tx, applicationID)
		if errors.Is(getErr, sql.ErrNoRows) {
			return nil, notFoundError(applicationID)
		}
		if getErr != nil {
			return nil, storeError("load application", getErr)
		}
		return nil, alreadyDecidedError(applicationID, existing.Status)
	}

	detail := fmt.Sprintf("application #%d", app.ID)
	if reason != "" {
		detail += ": " + reason
	}
	if err := applications.AppendActionLog(ctx, tx, model.ActionLogEntry{
		ActorID:      moderatorID,
		Action:       string(outcome),
		TargetUserID: app.UserID,
		CreatedAt:    now,
		Detail:       detail,
	}); err != nil {
		return nil, storeError("append action log", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storeError("commit decision", err)
	}

	logger := log.WithFields(log.Fields{
		"application_id": app.ID,
		"user_id":        app.UserID,
		"moderator_id":   moderatorID,
		"outcome":        outcome,
	})
	logger.Info("Application decided")

	decision = &Decision{Application: app}
	if outcome == model.StatusApproved && t.roles != nil {
		if err := t.roles.GrantRole(ctx, app.GuildID, app.UserID); err != nil {
			logger.WithError(err).Warn("Failed to assign allowlisted role")
			metrics.RecordRoleGrantFailure()
			decision.RoleErr = err
			if logErr := applications.AppendActionLog(ctx, t.db, model.ActionLogEntry{
				ActorID:      moderatorID,
				Action:       model.ActionRoleGrantFailed,
				TargetUserID: app.UserID,
				CreatedAt:    now,
				Detail:       err.Error(),
			}); logErr != nil {
				logger.WithError(logErr).Warn("Failed to record role grant failure")
			}
		} else {
			decision.RoleGranted = true
		}
	}
	return decision, nil
}

// ceilUnix rounds ts up to whole seconds. Submission times are stored in
// seconds, and rounding down would let the cooldown end early.
func ceilUnix(ts time.Time) int64 {
	sec := ts.Unix()
	if ts.Nanosecond() > 0 {
		sec++
	}
	return sec
}

// Get loads one application.
func (t *Tracker) Get(ctx context.Context, applicationID int64) (*model.Application, error) {
	app, err := applications.GetApplicationByID(ctx, t.db, applicationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFoundError(applicationID)
	}
	if err != nil {
		return nil, storeError("load application", err)
	}
	return app, nil
}

// AttachReviewMessage stores the ID of the review channel message for an application.
func (t *Tracker) AttachReviewMessage(ctx context.Context, applicationID int64, messageID string) error {
	if err := applications.SetReviewMessageID(ctx, t.db, applicationID, messageID); err != nil {
		return storeError("attach review message", err)
	}
	return nil
}

// StalePending lists pending applications submitted more than olderThan ago, oldest first.
func (t *Tracker) StalePending(ctx context.Context, olderThan time.Duration) ([]model.Application, error) {
	apps, err := applications.GetPendingSubmittedBefore(ctx, t.db, t.now().Add(-olderThan).Unix())
	if err != nil {
		return nil, storeError("list pending applications", err)
	}
	return apps, nil
}

// UnpostedPending lists pending applications submitted more than olderThan ago
// that never got a review message, oldest first.
func (t *Tracker) UnpostedPending(ctx context.Context, olderThan time.Duration) ([]model.Application, error) {
	apps, err := applications.GetUnpostedPendingBefore(ctx, t.db, t.now().Add(-olderThan).Unix())
	if err != nil {
		return nil, storeError("list unposted applications", err)
	}
	return apps, nil
}

// Ping checks that the store is reachable.
func (t *Tracker) Ping(ctx context.Context) error {
	if err := t.db.PingContext(ctx); err != nil {
		return storeError("ping", err)
	}
	return nil
}
