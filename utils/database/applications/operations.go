package applications

import (
	"allowlist-bot/model"
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

const applicationColumns = `id, user_id, user_name, guild_id, hex_id, real_name, character_name, age, age_attested,
	backstory, status, decision_reason, moderator_id, review_message_id, submitted_at, decided_at`

// InsertApplication adds a new application row and returns its ID.
func InsertApplication(ctx context.Context, q sqlx.ExtContext, app *model.Application) (int64, error) {
	query, args, err := q.BindNamed(`INSERT INTO applications (user_id, user_name, guild_id, hex_id, real_name, character_name, age, age_attested, backstory, status, submitted_at)
			  VALUES (:user_id, :user_name, :guild_id, :hex_id, :real_name, :character_name, :age, :age_attested, :backstory, :status, :submitted_at)
			  RETURNING id`, app)
	if err != nil {
		return 0, fmt.Errorf("failed to bind application insert: %w", err)
	}

	var id int64
	if err := q.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert application for user %s: %w", app.UserID, err)
	}
	return id, nil
}

// GetApplicationByID retrieves a single application by its primary key.
// The returned error wraps sql.ErrNoRows when it does not exist.
func GetApplicationByID(ctx context.Context, q sqlx.ExtContext, id int64) (*model.Application, error) {
	var app model.Application
	query := q.Rebind("SELECT " + applicationColumns + " FROM applications WHERE id = ?")
	if err := sqlx.GetContext(ctx, q, &app, query, id); err != nil {
		return nil, fmt.Errorf("failed to get application by id %d: %w", id, err)
	}
	return &app, nil
}

// GetPendingByUserID retrieves the user's open application, if any.
func GetPendingByUserID(ctx context.Context, q sqlx.ExtContext, userID string) (*model.Application, error) {
	var app model.Application
	query := q.Rebind("SELECT " + applicationColumns + " FROM applications WHERE user_id = ? AND status = 'pending'")
	if err := sqlx.GetContext(ctx, q, &app, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get pending application for user %s: %w", userID, err)
	}
	return &app, nil
}

// GetLatestByUserID retrieves the most recently submitted application of a user, whatever its status.
func GetLatestByUserID(ctx context.Context, q sqlx.ExtContext, userID string) (*model.Application, error) {
	var app model.Application
	query := q.Rebind("SELECT " + applicationColumns + " FROM applications WHERE user_id = ? ORDER BY submitted_at DESC, id DESC LIMIT 1")
	if err := sqlx.GetContext(ctx, q, &app, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get latest application for user %s: %w", userID, err)
	}
	return &app, nil
}

// DecideApplication moves a pending application into a terminal status.
// Only a pending row is updated; otherwise the error wraps sql.ErrNoRows.
func DecideApplication(ctx context.Context, q sqlx.ExtContext, id int64, status model.Status, moderatorID string, reason *string, decidedAt int64) (*model.Application, error) {
	var app model.Application
	query := q.Rebind(`UPDATE applications
			  SET status = ?, moderator_id = ?, decision_reason = ?, decided_at = ?
			  WHERE id = ? AND status = 'pending'
			  RETURNING ` + applicationColumns)
	if err := sqlx.GetContext(ctx, q, &app, query, status, moderatorID, reason, decidedAt, id); err != nil {
		return nil, fmt.Errorf("failed to decide application %d: %w", id, err)
	}
	return &app, nil
}

// SetReviewMessageID records the review channel message that carries the decision buttons.
func SetReviewMessageID(ctx context.Context, q sqlx.ExtContext, id int64, messageID string) error {
	query := q.Rebind("UPDATE applications SET review_message_id = ? WHERE id = ?")
	result, err := q.ExecContext(ctx, query, messageID, id)
	if err != nil {
		return fmt.Errorf("failed to set review message for application %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected for application %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no application found with id %d", id)
	}
	return nil
}

// GetPendingSubmittedBefore retrieves pending applications submitted before the given unix time, oldest first.
func GetPendingSubmittedBefore(ctx context.Context, q sqlx.ExtContext, before int64) ([]model.Application, error) {
	var apps []model.Application
	query := q.Rebind("SELECT " + applicationColumns + " FROM applications WHERE status = 'pending' AND submitted_at < ? ORDER BY submitted_at ASC")
	if err := sqlx.SelectContext(ctx, q, &apps, query, before); err != nil {
		return nil, fmt.Errorf("failed to get pending applications: %w", err)
	}
	return apps, nil
}

// GetUnpostedPendingBefore retrieves pending applications that have no review message yet
// and were submitted before the given unix time, oldest first.
func GetUnpostedPendingBefore(ctx context.Context, q sqlx.ExtContext, before int64) ([]model.Application, error) {
	var apps []model.Application
	query := q.Rebind("SELECT " + applicationColumns + " FROM applications WHERE status = 'pending' AND review_message_id IS NULL AND submitted_at < ? ORDER BY submitted_at ASC")
	if err := sqlx.SelectContext(ctx, q, &apps, query, before); err != nil {
		return nil, fmt.Errorf("failed to get unposted applications: %w", err)
	}
	return apps, nil
}

// IsExempt reports whether the user has a stored cooldown exemption.
func IsExempt(ctx context.Context, q sqlx.ExtContext, userID string) (bool, error) {
	var count int
	query := q.Rebind("SELECT COUNT(*) FROM cooldown_exemptions WHERE user_id = ?")
	if err := sqlx.GetContext(ctx, q, &count, query, userID); err != nil {
		return false, fmt.Errorf("failed to check cooldown exemption for user %s: %w", userID, err)
	}
	return count > 0, nil
}

// AddExemption stores an exemption. It reports false when the user was already exempt.
func AddExemption(ctx context.Context, q sqlx.ExtContext, exemption model.Exemption) (bool, error) {
	query, args, err := q.BindNamed(`INSERT INTO cooldown_exemptions (user_id, granted_by, created_at)
			  VALUES (:user_id, :granted_by, :created_at)
			  ON CONFLICT (user_id) DO NOTHING`, exemption)
	if err != nil {
		return false, fmt.Errorf("failed to bind exemption insert: %w", err)
	}
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to add cooldown exemption for user %s: %w", exemption.UserID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected for exemption %s: %w", exemption.UserID, err)
	}
	return rowsAffected > 0, nil
}

// RemoveExemption deletes an exemption. It reports false when the user was not exempt.
func RemoveExemption(ctx context.Context, q sqlx.ExtContext, userID string) (bool, error) {
	result, err := q.ExecContext(ctx, q.Rebind("DELETE FROM cooldown_exemptions WHERE user_id = ?"), userID)
	if err != nil {
		return false, fmt.Errorf("failed to remove cooldown exemption for user %s: %w", userID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected for exemption %s: %w", userID, err)
	}
	return rowsAffected > 0, nil
}

// ListExemptions retrieves every stored exemption, oldest first.
func ListExemptions(ctx context.Context, q sqlx.ExtContext) ([]model.Exemption, error) {
	var exemptions []model.Exemption
	if err := sqlx.SelectContext(ctx, q, &exemptions, "SELECT user_id, granted_by, created_at FROM cooldown_exemptions ORDER BY created_at ASC"); err != nil {
		return nil, fmt.Errorf("failed to list cooldown exemptions: %w", err)
	}
	return exemptions, nil
}

// AppendActionLog adds an audit entry.
func AppendActionLog(ctx context.Context, q sqlx.ExtContext, entry model.ActionLogEntry) error {
	query, args, err := q.BindNamed(`INSERT INTO action_log (actor_id, action, target_user_id, created_at, detail)
			  VALUES (:actor_id, :action, :target_user_id, :created_at, :detail)`, entry)
	if err != nil {
		return fmt.Errorf("failed to bind action log insert: %w", err)
	}
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to append action log %s for user %s: %w", entry.Action, entry.TargetUserID, err)
	}
	return nil
}

// GetActionLogByTarget retrieves the audit trail for a user in insertion order.
func GetActionLogByTarget(ctx context.Context, q sqlx.ExtContext, userID string) ([]model.ActionLogEntry, error) {
	var entries []model.ActionLogEntry
	query := q.Rebind("SELECT id, actor_id, action, target_user_id, created_at, detail FROM action_log WHERE target_user_id = ? ORDER BY id ASC")
	if err := sqlx.SelectContext(ctx, q, &entries, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get action log for user %s: %w", userID, err)
	}
	return entries, nil
}

// IsUniqueViolation reports whether err came from a unique constraint on either backend.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

