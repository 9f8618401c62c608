package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/classroom-assistant/classroom-go/internal/database"
)

const pqUniqueViolation = "23505"

// getOne scans a single row into a new T. A missing row is (nil, nil).
func getOne[T any](ctx context.Context, db database.DBTX, query string, args ...any) (*T, error) {
	var item T
	err := db.GetContext(ctx, &item, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
