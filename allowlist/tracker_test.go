package allowlist

import (
	"allowlist-bot/model"
	"allowlist-bot/utils/database/applications"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCooldown = 24 * time.Hour

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeRoles struct {
	mu     sync.Mutex
	err    error
	grants []string
}

func (r *fakeRoles) GrantRole(ctx context.Context, guildID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grants = append(r.grants, guildID+"/"+userID)
	return r.err
}

type fixture struct {
	db      *sqlx.DB
	clock   *fakeClock
	roles   *fakeRoles
	tracker *Tracker
}

func newFixture(t *testing.T, static ...string) *fixture {
	t.Helper()
	db, err := applications.Init(filepath.Join(t.TempDir(), "allowlist.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	clock := &fakeClock{now: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)}
	roles := &fakeRoles{}
	tracker := NewTracker(db, Options{
		Cooldown:         testCooldown,
		MinAge:           18,
		StaticExemptions: static,
		Roles:            roles,
		Now:              clock.Now,
	})
	return &fixture{db: db, clock: clock, roles: roles, tracker: tracker}
}

func validFields() model.ApplicationFields {
	return model.ApplicationFields{
		UserName:      "Alex",
		GuildID:       "guild-1",
		HexID:         "steam:110000112345678",
		RealName:      "Alex Smith",
		CharacterName: "Jimmy Carter",
		Age:           "21",
		Backstory:     "Grew up in Sandy Shores and never left.",
	}
}

func TestSubmit_NewUserCreatesPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	app, err := f.tracker.Submit(ctx, "user-a", validFields())
	require.NoError(t, err)
	assert.Positive(t, app.ID)
	assert.Equal(t, model.StatusPending, app.Status)
	assert.Equal(t, 21, app.Age)
	assert.True(t, app.AgeAttested)
	assert.Equal(t, f.clock.Now().Unix(), app.SubmittedAt)

	entries, err := applications.GetActionLogByTarget(ctx, f.db, "user-a")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.ActionSubmitted, entries[0].Action)
}

func TestSubmit_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*model.ApplicationFields)
		field  string
	}{
		{"missing hex id", func(fl *model.ApplicationFields) { fl.HexID = "  " }, FieldHexID},
		{"missing real name", func(fl *model.ApplicationFields) { fl.RealName = "" }, FieldRealName},
		{"missing character name", func(fl *model.ApplicationFields) { fl.CharacterName = "" }, FieldCharacterName},
		{"missing backstory", func(fl *model.ApplicationFields) { fl.Backstory = "" }, FieldBackstory},
		{"age not a number", func(fl *model.ApplicationFields) { fl.Age = "twenty" }, FieldAge},
		{"under age", func(fl *model.ApplicationFields) { fl.Age = "17" }, FieldAgeAttestation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := validFields()
			tt.mutate(&fields)

			_, err := f.tracker.Submit(ctx, "user-a", fields)
			require.ErrorIs(t, err, ErrValidation)
			var verr *Error
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	// nothing was stored, so the user is free to apply
	require.NoError(t, f.tracker.CheckEligibility(ctx, "user-a"))
}

func TestSubmit_DuplicatePending(t *testing.T) {
	f := newFixture(t, "user-a")
	ctx := context.Background()

	_, err := f.tracker.Submit(ctx, "user-a", validFields())
	require.NoError(t, err)

	// exemption does not bypass the pending rule
	_, err = f.tracker.Submit(ctx, "user-a", validFields())
	assert.ErrorIs(t, err, ErrDuplicatePending)
}

func TestSubmit_CooldownWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	app, err := f.tracker.Submit(ctx, "user-a", validFields())
	require.NoError(t, err)
	_, err = f.tracker.Decide(ctx, app.ID, "mod-1", model.StatusApproved, "")
	require.NoError(t, err)

	f.clock.Advance(testCooldown - time.Hour)
	_, err = f.tracker.Submit(ctx, "user-a", validFields())
	require.ErrorIs(t, err, ErrCooldownActive)
	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, time.Hour, cerr.Remaining)

	f.clock.Advance(time.Hour)
	_, err = f.tracker.Submit(ctx, "user-a", validFields())
	assert.NoError(t, err)
}

func TestSubmit_CooldownNeverEndsEarlyWithFractionalSeconds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.clock.Advance(900 * time.Millisecond)

	app, err := f.tracker.Submit(ctx, "user-a", validFields())
	require.NoError(t, err)
	_, err = f.tracker.Decide(ctx, app.ID, "mod-1", model.StatusDeclined, "wrong hex id")
	require.NoError(t, err)

	f.clock.Advance(testCooldown - 500*time.Millisecond)
	_, err = f.tracker.Submit(ctx, "user-a", validFields())
	require.ErrorIs(t, err, ErrCooldownActive)

	remaining, err := f.tracker.RemainingCooldown(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, 600*time.Millisecond, remaining)

	f.clock.Advance(remaining)
	_, err = f.tracker.Submit(ctx, "user-a", validFields())
	assert.NoError(t, err)
}

func TestSubmit_ExemptUserNeverHitsCooldown(t *testing.T) {
	f := newFixture(t, "static-user")
	ctx := context.Background()

	_, err := f.tracker.SetExempt(ctx, "admin", "stored-user", true)
	require.NoError(t, err)

	for _, user := range []string{"static-user", "stored-user"} {
		for i := 0; i < 3; i++ {
			app, err := f.tracker.Submit(ctx, user, validFields())
			require.NoError(t, err, "user %s attempt %d", user, i)
			_, err = f.tracker.Decide(ctx, app.ID, "mod-1", model.StatusDeclined, "try again")
			require.NoError(t, err)
		}
	}
}

func TestDecide_SecondCallIsAlreadyDecided(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	app, err := f.tracker.Submit(ctx, "user-a", validFields())
	require.NoError(t, err)

	_, err = f.tracker.Decide(ctx, app.ID, "mod-1", model.StatusDeclined, "incomplete backstory")
	require.NoError(t, err)

	_, err = f.tracker.Decide(ctx, app.ID, "mod-2", model.StatusApproved, "")
	require.ErrorIs(t, err, ErrAlreadyDecided)
	var derr *Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, model.StatusDeclined, derr.Status)

	stored, err := f.tracker.Get(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDeclined, stored.Status)
	assert.Empty(t, f.roles.grants)
}

func TestDecide_ApprovedRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	submitted, err := f.tracker.Submit(ctx, "user-a", validFields())
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	decision, err := f.tracker.Decide(ctx, submitted.ID, "mod-1", model.StatusApproved, "")
	require.NoError(t, err)
	assert.True(t, decision.RoleGranted)
	assert.NoError(t, decision.RoleErr)
	assert.Equal(t, []string{"guild-1/user-a"}, f.roles.grants)

	stored, err := f.tracker.Get(ctx, submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, stored.Status)
	require.NotNil(t, stored.ModeratorID)
	assert.Equal(t, "mod-1", *stored.ModeratorID)
	require.NotNil(t, stored.DecidedAt)
	assert.Equal(t, f.clock.Now().Unix(), *stored.DecidedAt)
	assert.Nil(t, stored.DecisionReason)

	assert.Equal(t, submitted.HexID, stored.HexID)
	assert.Equal(t, submitted.RealName, stored.RealName)
	assert.Equal(t, submitted.CharacterName, stored.CharacterName)
	assert.Equal(t, submitted.Age, stored.Age)
	assert.Equal(t, submitted.Backstory, stored.Backstory)
	assert.Equal(t, submitted.SubmittedAt, stored.SubmittedAt)
}

func TestDecide_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.tracker.Decide(context.Background(), 404, "mod-1", model.StatusApproved, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecide_RejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	app, err := f.tracker.Submit(ctx, "user-a", validFields())
	require.NoError(t, err)

	_, err = f.tracker.Decide(ctx, app.ID, "mod-1", model.StatusPending, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.tracker.Decide(ctx, app.ID, "mod-1", model.StatusDeclined, "   ")
	assert.ErrorIs(t, err, ErrValidation)

	stored, err := f.tracker.Get(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, stored.Status)
}

func TestDecide_RoleGrantFailureKeepsApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.roles.err = errors.New("missing permissions")

	app, err := f.tracker.Submit(ctx, "user-a", validFields())
	require.NoError(t, err)

	decision, err := f.tracker.Decide(ctx, app.ID, "mod-1", model.StatusApproved, "")
	require.NoError(t, err)
	assert.False(t, decision.RoleGranted)
	assert.EqualError(t, decision.RoleErr, "missing permissions")

	stored, err := f.tracker.Get(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, stored.Status)

	entries, err := applications.GetActionLogByTarget(ctx, f.db, "user-a")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, model.ActionApproved, entries[1].Action)
	assert.Equal(t, model.ActionRoleGrantFailed, entries[2].Action)
}

func TestScenario_DeclineStartsCooldown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fields := validFields()
	fields.Age = "16"
	_, err := f.tracker.Submit(ctx, "user-a", fields)
	require.ErrorIs(t, err, ErrValidation)

	app, err := f.tracker.Submit(ctx, "user-a", validFields())
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, app.Status)

	decision, err := f.tracker.Decide(ctx, app.ID, "mod-1", model.StatusDeclined, "incomplete backstory")
	require.NoError(t, err)
	assert.Equal(t, model.StatusDeclined, decision.Application.Status)
	assert.Equal(t, "incomplete backstory", decision.Application.Reason())

	_, err = f.tracker.Submit(ctx, "user-a", validFields())
	assert.ErrorIs(t, err, ErrCooldownActive)
}

func TestScenario_ExemptUserResubmitsAfterDecline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	changed, err := f.tracker.SetExempt(ctx, "admin", "user-b", true)
	require.NoError(t, err)
	assert.True(t, changed)

	app, err := f.tracker.Submit(ctx, "user-b", validFields())
	require.NoError(t, err)
	_, err = f.tracker.Decide(ctx, app.ID, "mod-1", model.StatusDeclined, "wrong hex id")
	require.NoError(t, err)

	_, err = f.tracker.Submit(ctx, "user-b", validFields())
	assert.NoError(t, err)
}

func TestRemainingCooldown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	remaining, err := f.tracker.RemainingCooldown(ctx, "user-a")
	require.NoError(t, err)
	assert.Zero(t, remaining)

	_, err = f.tracker.Submit(ctx, "user-a", validFields())
	require.NoError(t, err)

	f.clock.Advance(10 * time.Hour)
	remaining, err = f.tracker.RemainingCooldown(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, 14*time.Hour, remaining)

	_, err = f.tracker.SetExempt(ctx, "admin", "user-a", true)
	require.NoError(t, err)
	remaining, err = f.tracker.RemainingCooldown(ctx, "user-a")
	require.NoError(t, err)
	assert.Zero(t, remaining)

	_, err = f.tracker.SetExempt(ctx, "admin", "user-a", false)
	require.NoError(t, err)
	f.clock.Advance(20 * time.Hour)
	remaining, err = f.tracker.RemainingCooldown(ctx, "user-a")
	require.NoError(t, err)
	assert.Zero(t, remaining)
}

func TestSetExempt_IsIdempotent(t *testing.T) {
	f := newFixture(t, "static-user")
	ctx := context.Background()

	changed, err := f.tracker.SetExempt(ctx, "admin", "user-b", true)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = f.tracker.SetExempt(ctx, "admin", "user-b", true)
	require.NoError(t, err)
	assert.False(t, changed)

	exempt, err := f.tracker.IsExempt(ctx, "user-b")
	require.NoError(t, err)
	assert.True(t, exempt)

	exempt, err = f.tracker.IsExempt(ctx, "static-user")
	require.NoError(t, err)
	assert.True(t, exempt)
	assert.Equal(t, []string{"static-user"}, f.tracker.StaticExemptions())

	list, err := f.tracker.ListExemptions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "admin", list[0].GrantedBy)

	changed, err = f.tracker.SetExempt(ctx, "admin", "user-b", false)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = f.tracker.SetExempt(ctx, "admin", "user-b", false)
	require.NoError(t, err)
	assert.False(t, changed)

	entries, err := applications.GetActionLogByTarget(ctx, f.db, "user-b")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.ActionExemptAdded, entries[0].Action)
	assert.Equal(t, model.ActionExemptRemoved, entries[1].Action)
}

func TestConcurrentSubmissionsCreateOnePending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.tracker.Submit(ctx, "user-a", validFields())
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, ErrDuplicatePending)
	}
	assert.Equal(t, 1, created)
}

func TestConcurrentDecisionsHaveOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	app, err := f.tracker.Submit(ctx, "user-a", validFields())
	require.NoError(t, err)

	outcomes := []model.Status{model.StatusApproved, model.StatusDeclined, model.StatusApproved, model.StatusDeclined}
	errs := make([]error, len(outcomes))
	var wg sync.WaitGroup
	for i, outcome := range outcomes {
		wg.Add(1)
		go func(i int, outcome model.Status) {
			defer wg.Done()
			_, errs[i] = f.tracker.Decide(ctx, app.ID, "mod-1", outcome, "reason")
		}(i, outcome)
	}
	wg.Wait()

	winners := 0
	var winner model.Status
	for i, err := range errs {
		if err == nil {
			winners++
			winner = outcomes[i]
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyDecided)
	}
	require.Equal(t, 1, winners)

	stored, err := f.tracker.Get(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, winner, stored.Status)
}

func TestStalePending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	old, err := f.tracker.Submit(ctx, "user-a", validFields())
	require.NoError(t, err)
	f.clock.Advance(30 * time.Hour)
	_, err = f.tracker.Submit(ctx, "user-b", validFields())
	require.NoError(t, err)

	stale, err := f.tracker.StalePending(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, old.ID, stale[0].ID)
}

func TestAttachReviewMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	app, err := f.tracker.Submit(ctx, "user-a", validFields())
	require.NoError(t, err)
	require.NoError(t, f.tracker.AttachReviewMessage(ctx, app.ID, "msg-1"))

	stored, err := f.tracker.Get(ctx, app.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ReviewMessageID)
	assert.Equal(t, "msg-1", *stored.ReviewMessageID)

	assert.ErrorIs(t, f.tracker.AttachReviewMessage(ctx, app.ID+1, "msg-2"), ErrStoreUnavailable)
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	status, err := f.tracker.Status(ctx, "user-a")
	require.NoError(t, err)
	assert.Nil(t, status.Latest)
	assert.False(t, status.Exempt)
	assert.Zero(t, status.Remaining)

	app, err := f.tracker.Submit(ctx, "user-a", validFields())
	require.NoError(t, err)
	f.clock.Advance(time.Hour)

	status, err = f.tracker.Status(ctx, "user-a")
	require.NoError(t, err)
	require.NotNil(t, status.Latest)
	assert.Equal(t, app.ID, status.Latest.ID)
	assert.Equal(t, testCooldown-time.Hour, status.Remaining)
}

func TestUnpostedPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lost, err := f.tracker.Submit(ctx, "user-a", validFields())
	require.NoError(t, err)
	posted, err := f.tracker.Submit(ctx, "user-b", validFields())
	require.NoError(t, err)
	require.NoError(t, f.tracker.AttachReviewMessage(ctx, posted.ID, "msg-1"))

	apps, err := f.tracker.UnpostedPending(ctx, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, apps, "fresh submissions may still be posting")

	f.clock.Advance(5 * time.Minute)
	apps, err = f.tracker.UnpostedPending(ctx, time.Minute)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, lost.ID, apps[0].ID)
}
