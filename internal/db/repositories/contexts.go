package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"lacewing/internal/db"
	lwerrors "lacewing/internal/errors"
)

// ContextRepository persists the whole-map variable context per execution.
type ContextRepository struct {
	conn *sql.DB
}

func NewContextRepository(conn *sql.DB) *ContextRepository {
	return &ContextRepository{conn: conn}
}

// SaveContext overwrites the persisted variable map for an execution.
func (r *ContextRepository) SaveContext(ctx context.Context, executionID string, variables map[string]any) error {
	ctx, span := tracer.Start(ctx, "db.contexts.save")
	defer span.End()
	span.SetAttributes(attribute.String("execution.id", executionID))

	data, err := json.Marshal(variables)
	if err != nil {
		return recordErr(span, lwerrors.StorageWrap(err, "failed to marshal context for %s", executionID))
	}

	err = db.Guard(func() error {
		_, err := r.conn.ExecContext(ctx, `
			INSERT INTO contexts (execution_id, variables, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(execution_id) DO UPDATE SET variables = excluded.variables, updated_at = excluded.updated_at`,
			executionID, string(data), time.Now().UTC())
		return err
	})
	if err != nil {
		return recordErr(span, lwerrors.StorageWrap(err, "failed to save context for %s", executionID))
	}
	return nil
}

// GetContext reads the persisted variable map for an execution. A missing
// row returns an empty map, not an error.
func (r *ContextRepository) GetContext(ctx context.Context, executionID string) (map[string]any, error) {
	ctx, span := tracer.Start(ctx, "db.contexts.get")
	defer span.End()
	span.SetAttributes(attribute.String("execution.id", executionID))

	var data string
	err := r.conn.QueryRowContext(ctx, `SELECT variables FROM contexts WHERE execution_id = ?`, executionID).Scan(&data)
	if err == sql.ErrNoRows {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, recordErr(span, lwerrors.StorageWrap(err, "failed to load context for %s", executionID))
	}

	var variables map[string]any
	if err := json.Unmarshal([]byte(data), &variables); err != nil {
		return nil, recordErr(span, lwerrors.StorageWrap(err, "failed to decode context for %s", executionID))
	}
	return variables, nil
}
