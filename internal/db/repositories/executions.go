package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"lacewing/internal/db"
	lwerrors "lacewing/internal/errors"
)

var tracer = otel.Tracer("lacewing/internal/db/repositories")

// ExecutionRepository implements the Storage Adapter's execution-row
// operations, per spec.md §4.3.
type ExecutionRepository struct {
	conn *sql.DB
}

func NewExecutionRepository(conn *sql.DB) *ExecutionRepository {
	return &ExecutionRepository{conn: conn}
}

// SaveExecution inserts a new execution row.
func (r *ExecutionRepository) SaveExecution(ctx context.Context, e *Execution) error {
	ctx, span := tracer.Start(ctx, "db.executions.save")
	defer span.End()
	span.SetAttributes(attribute.String("execution.id", e.ID), attribute.String("workflow.name", e.WorkflowName))

	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return recordErr(span, lwerrors.StorageWrap(err, "failed to marshal execution metadata"))
	}

	err = db.Guard(func() error {
		_, err := r.conn.ExecContext(ctx, `
			INSERT INTO executions (
				id, workflow_name, status, started_at, completed_at, duration_ms,
				current_step, total_steps, error, error_stack,
				parent_execution_id, parent_step_index, depth,
				trigger_type, trigger_source, metadata
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.WorkflowName, e.Status, e.StartedAt, e.CompletedAt, e.DurationMS,
			e.CurrentStep, e.TotalSteps, e.Error, e.ErrorStack,
			nullableString(e.ParentExecutionID), e.ParentStepIndex, e.Depth,
			e.Trigger.Type, e.Trigger.Source, string(metadata),
		)
		return err
	})
	if err != nil {
		return recordErr(span, lwerrors.StorageWrap(err, "failed to save execution %s", e.ID))
	}
	return nil
}

// GetExecution fetches one execution row by id.
func (r *ExecutionRepository) GetExecution(ctx context.Context, id string) (*Execution, error) {
	ctx, span := tracer.Start(ctx, "db.executions.get")
	defer span.End()
	span.SetAttributes(attribute.String("execution.id", id))

	row := r.conn.QueryRowContext(ctx, `
		SELECT id, workflow_name, status, started_at, completed_at, duration_ms,
		       current_step, total_steps, error, error_stack,
		       parent_execution_id, parent_step_index, depth,
		       trigger_type, trigger_source, metadata
		FROM executions WHERE id = ?`, id)

	e, err := scanExecution(row)
	if err == sql.ErrNoRows {
		return nil, recordErr(span, lwerrors.StorageWrap(err, "execution %s not found", id))
	}
	if err != nil {
		return nil, recordErr(span, lwerrors.StorageWrap(err, "failed to load execution %s", id))
	}
	return e, nil
}

// UpdateExecution applies a partial patch; only non-nil fields change.
func (r *ExecutionRepository) UpdateExecution(ctx context.Context, id string, patch ExecutionPatch) error {
	ctx, span := tracer.Start(ctx, "db.executions.update")
	defer span.End()
	span.SetAttributes(attribute.String("execution.id", id))

	sets := []string{}
	args := []any{}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *patch.Status)
	}
	if patch.CompletedAt != nil {
		sets = append(sets, "completed_at = ?")
		args = append(args, *patch.CompletedAt)
	}
	if patch.DurationMS != nil {
		sets = append(sets, "duration_ms = ?")
		args = append(args, *patch.DurationMS)
	}
	if patch.CurrentStep != nil {
		sets = append(sets, "current_step = ?")
		args = append(args, *patch.CurrentStep)
	}
	if patch.Error != nil {
		sets = append(sets, "error = ?")
		args = append(args, *patch.Error)
	}
	if patch.ErrorStack != nil {
		sets = append(sets, "error_stack = ?")
		args = append(args, *patch.ErrorStack)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE executions SET %s WHERE id = ?", strings.Join(sets, ", "))
	err := db.Guard(func() error {
		_, err := r.conn.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return recordErr(span, lwerrors.StorageWrap(err, "failed to update execution %s", id))
	}
	return nil
}

// QueryExecutions filters and lists executions, most recent first.
func (r *ExecutionRepository) QueryExecutions(ctx context.Context, filter ExecutionFilter) ([]*Execution, error) {
	ctx, span := tracer.Start(ctx, "db.executions.query")
	defer span.End()

	where := []string{}
	args := []any{}
	if filter.WorkflowName != "" {
		where = append(where, "workflow_name = ?")
		args = append(args, filter.WorkflowName)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.StartedAfter != nil {
		where = append(where, "started_at >= ?")
		args = append(args, *filter.StartedAfter)
	}
	if filter.StartedBefore != nil {
		where = append(where, "started_at <= ?")
		args = append(args, *filter.StartedBefore)
	}
	if filter.ParentExecutionID != "" {
		where = append(where, "parent_execution_id = ?")
		args = append(args, filter.ParentExecutionID)
	}
	if filter.RootOnly {
		where = append(where, "parent_execution_id IS NULL")
	}

	query := `SELECT id, workflow_name, status, started_at, completed_at, duration_ms,
	                 current_step, total_steps, error, error_stack,
	                 parent_execution_id, parent_step_index, depth,
	                 trigger_type, trigger_source, metadata
	          FROM executions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, recordErr(span, lwerrors.StorageWrap(err, "failed to query executions"))
	}
	defer rows.Close()

	var out []*Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, recordErr(span, lwerrors.StorageWrap(err, "failed to scan execution row"))
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetChildExecutions returns the direct children of parentID, ascending by
// start time.
func (r *ExecutionRepository) GetChildExecutions(ctx context.Context, parentID string) ([]*Execution, error) {
	ctx, span := tracer.Start(ctx, "db.executions.get_children")
	defer span.End()
	span.SetAttributes(attribute.String("execution.parent_id", parentID))

	rows, err := r.conn.QueryContext(ctx, `
		SELECT id, workflow_name, status, started_at, completed_at, duration_ms,
		       current_step, total_steps, error, error_stack,
		       parent_execution_id, parent_step_index, depth,
		       trigger_type, trigger_source, metadata
		FROM executions WHERE parent_execution_id = ? ORDER BY started_at ASC`, parentID)
	if err != nil {
		return nil, recordErr(span, lwerrors.StorageWrap(err, "failed to query children of %s", parentID))
	}
	defer rows.Close()

	var out []*Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, recordErr(span, lwerrors.StorageWrap(err, "failed to scan child execution row"))
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Cleanup bulk-deletes executions started before cutoff, cascading to steps
// and contexts.
func (r *ExecutionRepository) Cleanup(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, span := tracer.Start(ctx, "db.executions.cleanup")
	defer span.End()

	var affected int64
	err := db.Guard(func() error {
		tx, err := r.conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin cleanup transaction: %w", err)
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM contexts WHERE execution_id IN (SELECT id FROM executions WHERE started_at < ?)`, cutoff); err != nil {
			return fmt.Errorf("failed to cleanup contexts: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM steps WHERE execution_id IN (SELECT id FROM executions WHERE started_at < ?)`, cutoff); err != nil {
			return fmt.Errorf("failed to cleanup steps: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM executions WHERE started_at < ?`, cutoff)
		if err != nil {
			return fmt.Errorf("failed to cleanup executions: %w", err)
		}
		affected, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read cleanup result: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit cleanup: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, recordErr(span, lwerrors.StorageWrap(err, "cleanup failed"))
	}
	return affected, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExecution(row rowScanner) (*Execution, error) {
	var e Execution
	var parentExecutionID sql.NullString
	var parentStepIndex sql.NullInt64
	var currentStep sql.NullInt64
	var totalSteps sql.NullInt64
	var completedAt sql.NullTime
	var durationMS sql.NullInt64
	var errMsg, errStack, triggerSource sql.NullString
	var metadataJSON string

	if err := row.Scan(
		&e.ID, &e.WorkflowName, &e.Status, &e.StartedAt, &completedAt, &durationMS,
		&currentStep, &totalSteps, &errMsg, &errStack,
		&parentExecutionID, &parentStepIndex, &e.Depth,
		&e.Trigger.Type, &triggerSource, &metadataJSON,
	); err != nil {
		return nil, err
	}

	if completedAt.Valid {
		e.CompletedAt = &completedAt.Time
	}
	if durationMS.Valid {
		e.DurationMS = &durationMS.Int64
	}
	if currentStep.Valid {
		v := int(currentStep.Int64)
		e.CurrentStep = &v
	}
	if totalSteps.Valid {
		v := int(totalSteps.Int64)
		e.TotalSteps = &v
	}
	if parentExecutionID.Valid {
		e.ParentExecutionID = parentExecutionID.String
	}
	if parentStepIndex.Valid {
		v := int(parentStepIndex.Int64)
		e.ParentStepIndex = &v
	}
	e.Error = errMsg.String
	e.ErrorStack = errStack.String
	e.Trigger.Source = triggerSource.String

	if metadataJSON != "" {
		_ = json.Unmarshal([]byte(metadataJSON), &e.Metadata)
	}
	return &e, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// recordErr records a non-nil error on span and returns it unchanged, so
// call sites can write `return recordErr(span, lwerrors.StorageWrap(...))`.
func recordErr(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
