package allowlist

import (
	"allowlist-bot/model"
	"allowlist-bot/utils/database/applications"
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

// IsExempt reports whether userID skips the cooldown, either by configuration or by a stored exemption.
func (t *Tracker) IsExempt(ctx context.Context, userID string) (bool, error) {
	return t.isExempt(ctx, t.db, userID)
}

func (t *Tracker) isExempt(ctx context.Context, q sqlx.ExtContext, userID string) (bool, error) {
	if _, ok := t.staticExemptions[userID]; ok {
		return true, nil
	}
	exempt, err := applications.IsExempt(ctx, q, userID)
	if err != nil {
		return false, storeError("check exemption", err)
	}
	return exempt, nil
}

// RemainingCooldown returns how long userID must still wait before submitting.
// It is zero for exempt users and users without any application. The newest
// application counts whatever its outcome.
func (t *Tracker) RemainingCooldown(ctx context.Context, userID string) (time.Duration, error) {
	return t.remainingCooldown(ctx, t.db, userID)
}

func (t *Tracker) remainingCooldown(ctx context.Context, q sqlx.ExtContext, userID string) (time.Duration, error) {
	exempt, err := t.isExempt(ctx, q, userID)
	if err != nil {
		return 0, err
	}
	if exempt {
		return 0, nil
	}

	last, err := applications.GetLatestByUserID(ctx, q, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, storeError("load last application", err)
	}

	remaining := t.cooldown - t.now().Sub(last.SubmittedTime())
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// SetExempt adds or removes a stored exemption. Redundant calls succeed and
// report changed=false.
func (t *Tracker) SetExempt(ctx context.Context, actorID, userID string, exempt bool) (changed bool, err error) {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, storeError("begin exemption update", err)
	}
	defer tx.Rollback()

	now := t.now().Unix()
	action := model.ActionExemptAdded
	if exempt {
		changed, err = applications.AddExemption(ctx, tx, model.Exemption{UserID: userID, GrantedBy: actorID, CreatedAt: now})
	} else {
		action = model.ActionExemptRemoved
		changed, err = applications.RemoveExemption(ctx, tx, userID)
	}
	if err != nil {
		return false, storeError("update exemption", err)
	}
	if !changed {
		return false, nil
	}

	if err := applications.AppendActionLog(ctx, tx, model.ActionLogEntry{
		ActorID:      actorID,
		Action:       action,
		TargetUserID: userID,
		CreatedAt:    now,
	}); err != nil {
		return false, storeError("append action log", err)
	}
	if err := tx.Commit(); err != nil {
		return false, storeError("commit exemption update", err)
	}

	log.WithFields(log.Fields{
		"actor_id": actorID,
		"user_id":  userID,
		"action":   action,
	}).Info("Cooldown exemption updated")
	return true, nil
}

// ListExemptions returns the stored exemptions, oldest first.
func (t *Tracker) ListExemptions(ctx context.Context) ([]model.Exemption, error) {
	exemptions, err := applications.ListExemptions(ctx, t.db)
	if err != nil {
		return nil, storeError("list exemptions", err)
	}
	return exemptions, nil
}

// StaticExemptions returns the configured exemptions in sorted order.
func (t *Tracker) StaticExemptions() []string {
	ids := make([]string, 0, len(t.staticExemptions))
	for id := range t.staticExemptions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// UserStatus summarizes a user's standing for moderators.
type UserStatus struct {
	// Latest is nil when the user never applied.
	Latest    *model.Application
	Exempt    bool
	Remaining time.Duration
}

// Status reports the user's newest application, exemption and remaining cooldown.
func (t *Tracker) Status(ctx context.Context, userID string) (*UserStatus, error) {
	status := &UserStatus{}
	latest, err := applications.GetLatestByUserID(ctx, t.db, userID)
	switch {
	case err == nil:
		status.Latest = latest
	case !errors.Is(err, sql.ErrNoRows):
		return nil, storeError("load last application", err)
	}

	if status.Exempt, err = t.IsExempt(ctx, userID); err != nil {
		return nil, err
	}
	if status.Remaining, err = t.RemainingCooldown(ctx, userID); err != nil {
		return nil, err
	}
	return status, nil
}
