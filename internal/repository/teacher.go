package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/classroom-assistant/classroom-go/internal/database"
	"github.com/classroom-assistant/classroom-go/internal/model"
)

type TeacherRepository interface {
	FindByID(ctx context.Context, id string) (*model.Teacher, error)
	FindByEmail(ctx context.Context, email string) (*model.Teacher, error)
	Create(ctx context.Context, params model.CreateTeacherParams) (*model.Teacher, error)
	UpsertGoogle(ctx context.Context, params model.UpsertGoogleTeacherParams) (*model.Teacher, error)
	UpdateLastLogin(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	WithTx(tx *sqlx.Tx) TeacherRepository
}

type teacherRepo struct {
	db database.DBTX
}

func NewTeacherRepository(db *sqlx.DB) TeacherRepository {
	return &teacherRepo{db: db}
}

func (r *teacherRepo) WithTx(tx *sqlx.Tx) TeacherRepository {
	return &teacherRepo{db: tx}
}

func (r *teacherRepo) FindByID(ctx context.Context, id string) (*model.Teacher, error) {
	return getOne[model.Teacher](ctx, r.db, `SELECT * FROM teachers WHERE id = $1`, id)
}

func (r *teacherRepo) FindByEmail(ctx context.Context, email string) (*model.Teacher, error) {
	return getOne[model.Teacher](ctx, r.db, `
		SELECT * FROM teachers WHERE email = $1
	`, strings.ToLower(strings.TrimSpace(email)))
}

// Create returns ErrDuplicate when the email is already registered.
func (r *teacherRepo) Create(ctx context.Context, params model.CreateTeacherParams) (*model.Teacher, error) {
	var t model.Teacher
	err := r.db.GetContext(ctx, &t, `
		INSERT INTO teachers (id, email, name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.ID, strings.ToLower(strings.TrimSpace(params.Email)), params.Name, params.PasswordHash)
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpsertGoogle creates a Google-only teacher or links the Google account to
// the teacher already registered under the email. ErrDuplicate means the
// Google account is linked to another teacher.
func (r *teacherRepo) UpsertGoogle(ctx context.Context, params model.UpsertGoogleTeacherParams) (*model.Teacher, error) {
	var t model.Teacher
	err := r.db.GetContext(ctx, &t, `
		INSERT INTO teachers (id, email, name, password_hash, google_id, auth_method, last_login_at)
		VALUES ($1, $2, $3, '', $4, $5, NOW())
		ON CONFLICT (email) DO UPDATE SET
			google_id = EXCLUDED.google_id,
			name = CASE WHEN teachers.name = '' THEN EXCLUDED.name ELSE teachers.name END,
			last_login_at = NOW()
		RETURNING *
	`, params.ID, strings.ToLower(strings.TrimSpace(params.Email)), strings.TrimSpace(params.Name), params.GoogleID, model.AuthMethodGoogle)
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *teacherRepo) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE teachers SET last_login_at = NOW() WHERE id = $1
	`, id)
	return err
}

func (r *teacherRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM teachers`)
	return count, err
}
