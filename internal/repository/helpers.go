package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/RodrigoCastroMoura/trackerbot/internal/database"
)

// getOne scans a single row into a new T. A missing row is (nil, nil).
func getOne[T any](ctx context.Context, db database.DBTX, query string, args ...interface{}) (*T, error) {
	var result T
	err := db.GetContext(ctx, &result, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}
