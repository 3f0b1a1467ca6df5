package repositories

import (
	"context"
	"database/sql"
	"encoding/json"

	"go.opentelemetry.io/otel/attribute"

	"lacewing/internal/db"
	lwerrors "lacewing/internal/errors"
)

// StepRepository implements the Storage Adapter's step-row operations.
type StepRepository struct {
	conn *sql.DB
}

func NewStepRepository(conn *sql.DB) *StepRepository {
	return &StepRepository{conn: conn}
}

// SaveStepResult inserts or replaces the row at (execution_id, step_index),
// matching spec.md §4.3's "insert-or-replace" and §8's idempotent-replay
// invariant.
func (r *StepRepository) SaveStepResult(ctx context.Context, s *StepResult) error {
	ctx, span := tracer.Start(ctx, "db.steps.save")
	defer span.End()
	span.SetAttributes(
		attribute.String("execution.id", s.ExecutionID),
		attribute.Int("step.index", s.StepIndex),
	)

	input, err := json.Marshal(s.Input)
	if err != nil {
		return recordErr(span, lwerrors.StorageWrap(err, "failed to marshal step input"))
	}
	output, err := json.Marshal(s.Output)
	if err != nil {
		return recordErr(span, lwerrors.StorageWrap(err, "failed to marshal step output"))
	}

	err = db.Guard(func() error {
		_, err := r.conn.ExecContext(ctx, `
			INSERT INTO steps (
				execution_id, step_index, step_name, action, description,
				status, started_at, completed_at, duration_ms,
				input, output, error, error_stack,
				child_execution_id, retry_attempt, skip_reason
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(execution_id, step_index) DO UPDATE SET
				step_name = excluded.step_name,
				action = excluded.action,
				description = excluded.description,
				status = excluded.status,
				started_at = excluded.started_at,
				completed_at = excluded.completed_at,
				duration_ms = excluded.duration_ms,
				input = excluded.input,
				output = excluded.output,
				error = excluded.error,
				error_stack = excluded.error_stack,
				child_execution_id = excluded.child_execution_id,
				retry_attempt = excluded.retry_attempt,
				skip_reason = excluded.skip_reason`,
			s.ExecutionID, s.StepIndex, s.StepName, s.Action, s.Description,
			s.Status, s.StartedAt, s.CompletedAt, s.DurationMS,
			string(input), string(output), s.Error, s.ErrorStack,
			nullableString(s.ChildExecutionID), s.RetryAttempt, s.SkipReason,
		)
		return err
	})
	if err != nil {
		return recordErr(span, lwerrors.StorageWrap(err, "failed to save step %d of execution %s", s.StepIndex, s.ExecutionID))
	}
	return nil
}

// GetSteps returns every step row for an execution, ordered by step_index.
func (r *StepRepository) GetSteps(ctx context.Context, executionID string) ([]StepResult, error) {
	ctx, span := tracer.Start(ctx, "db.steps.list")
	defer span.End()
	span.SetAttributes(attribute.String("execution.id", executionID))

	rows, err := r.conn.QueryContext(ctx, `
		SELECT execution_id, step_index, step_name, action, description,
		       status, started_at, completed_at, duration_ms,
		       input, output, error, error_stack,
		       child_execution_id, retry_attempt, skip_reason
		FROM steps WHERE execution_id = ? ORDER BY step_index ASC`, executionID)
	if err != nil {
		return nil, recordErr(span, lwerrors.StorageWrap(err, "failed to list steps for %s", executionID))
	}
	defer rows.Close()

	var out []StepResult
	for rows.Next() {
		s, err := scanStep(rows)
		if err != nil {
			return nil, recordErr(span, lwerrors.StorageWrap(err, "failed to scan step row"))
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func scanStep(row rowScanner) (*StepResult, error) {
	var s StepResult
	var stepName, description, errMsg, errStack, skipReason sql.NullString
	var childExecutionID sql.NullString
	var completedAt sql.NullTime
	var durationMS sql.NullInt64
	var inputJSON, outputJSON string

	if err := row.Scan(
		&s.ExecutionID, &s.StepIndex, &stepName, &s.Action, &description,
		&s.Status, &s.StartedAt, &completedAt, &durationMS,
		&inputJSON, &outputJSON, &errMsg, &errStack,
		&childExecutionID, &s.RetryAttempt, &skipReason,
	); err != nil {
		return nil, err
	}

	s.StepName = stepName.String
	s.Description = description.String
	s.Error = errMsg.String
	s.ErrorStack = errStack.String
	s.SkipReason = skipReason.String
	s.ChildExecutionID = childExecutionID.String
	if completedAt.Valid {
		s.CompletedAt = &completedAt.Time
	}
	if durationMS.Valid {
		s.DurationMS = &durationMS.Int64
	}
	if inputJSON != "" {
		_ = json.Unmarshal([]byte(inputJSON), &s.Input)
	}
	if outputJSON != "" {
		_ = json.Unmarshal([]byte(outputJSON), &s.Output)
	}
	return &s, nil
}
