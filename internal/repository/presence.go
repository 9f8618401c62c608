package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/classroom-assistant/classroom-go/internal/database"
	"github.com/classroom-assistant/classroom-go/internal/model"
)

// PresenceRepository tracks logged-in students and their login history.
type PresenceRepository interface {
	MarkLoggedIn(ctx context.Context, student *model.Student) error
	MarkLoggedOut(ctx context.Context, userID string) (bool, error)
	List(ctx context.Context) ([]model.StudentPresence, error)
	Count(ctx context.Context) (int, error)
	CountUniqueLogins(ctx context.Context) (int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	PruneHistory(ctx context.Context, cutoff time.Time) (int64, error)
}

type presenceRepo struct {
	db *database.DB
}

func NewPresenceRepository(db *database.DB) PresenceRepository {
	return &presenceRepo{db: db}
}

// MarkLoggedIn refreshes the presence row and appends to login history in one transaction.
func (r *presenceRepo) MarkLoggedIn(ctx context.Context, student *model.Student) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO student_presence (user_id, name, preferred_language, logged_in_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (user_id) DO UPDATE SET
				name = EXCLUDED.name,
				preferred_language = EXCLUDED.preferred_language,
				logged_in_at = NOW()
		`, student.UserID, student.Name, student.PreferredLanguage); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO student_logins (user_id, logged_in_at) VALUES ($1, NOW())
		`, student.UserID)
		return err
	})
}

func (r *presenceRepo) MarkLoggedOut(ctx context.Context, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM student_presence WHERE user_id = $1`, userID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

func (r *presenceRepo) List(ctx context.Context) ([]model.StudentPresence, error) {
	var rows []model.StudentPresence
	err := r.db.SelectContext(ctx, &rows, `
		SELECT user_id, name, preferred_language, logged_in_at
		FROM student_presence
		ORDER BY logged_in_at DESC
	`)
	return rows, err
}

func (r *presenceRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM student_presence`)
	return count, err
}

func (r *presenceRepo) CountUniqueLogins(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(DISTINCT user_id) FROM student_logins`)
	return count, err
}

func (r *presenceRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM student_presence WHERE logged_in_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *presenceRepo) PruneHistory(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM student_logins WHERE logged_in_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
