package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/classroom-assistant/classroom-go/internal/database"
	"github.com/classroom-assistant/classroom-go/internal/model"
)

type StudentRepository interface {
	FindByUserID(ctx context.Context, userID string) (*model.Student, error)
	Upsert(ctx context.Context, params model.UpsertStudentParams) (*model.Student, error)
	Count(ctx context.Context) (int, error)
	WithTx(tx *sqlx.Tx) StudentRepository
}

type studentRepo struct {
	db database.DBTX
}

func NewStudentRepository(db *sqlx.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) WithTx(tx *sqlx.Tx) StudentRepository {
	return &studentRepo{db: tx}
}

func (r *studentRepo) FindByUserID(ctx context.Context, userID string) (*model.Student, error) {
	return getOne[model.Student](ctx, r.db, `SELECT * FROM students WHERE user_id = $1`, userID)
}

func (r *studentRepo) Upsert(ctx context.Context, params model.UpsertStudentParams) (*model.Student, error) {
	var s model.Student
	err := r.db.GetContext(ctx, &s, `
		INSERT INTO students (user_id, name, password_hash, role, preferred_language)
		VALUES ($1, $2, $3, 'student', $4)
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			password_hash = EXCLUDED.password_hash,
			preferred_language = EXCLUDED.preferred_language
		RETURNING *
	`, params.UserID, params.Name, params.PasswordHash, params.PreferredLanguage)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *studentRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM students`)
	return count, err
}
