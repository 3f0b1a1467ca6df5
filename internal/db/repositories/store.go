package repositories

import (
	"context"
	"database/sql"
)

// Store bundles the three table-scoped repositories behind the single
// Storage Adapter surface spec.md §4.3 describes, and implements the one
// operation that spans all three tables: GetExecutionTree.
type Store struct {
	Executions *ExecutionRepository
	Steps      *StepRepository
	Contexts   *ContextRepository
}

// NewStore constructs a Store against a single database connection.
func NewStore(conn *sql.DB) *Store {
	return &Store{
		Executions: NewExecutionRepository(conn),
		Steps:      NewStepRepository(conn),
		Contexts:   NewContextRepository(conn),
	}
}

// GetExecutionTree assembles the depth-first {execution, steps, children}
// tree rooted at id, per spec.md §4.3. Reads across the three tables are
// not wrapped in one transaction (spec.md §5: a consistent-per-row, not
// transactionally-consistent-across-rows, snapshot is acceptable).
func (s *Store) GetExecutionTree(ctx context.Context, id string) (*ExecutionTree, error) {
	execution, err := s.Executions.GetExecution(ctx, id)
	if err != nil {
		return nil, err
	}

	steps, err := s.Steps.GetSteps(ctx, id)
	if err != nil {
		return nil, err
	}

	children, err := s.Executions.GetChildExecutions(ctx, id)
	if err != nil {
		return nil, err
	}

	tree := &ExecutionTree{Execution: *execution, Steps: steps}
	for _, child := range children {
		childTree, err := s.GetExecutionTree(ctx, child.ID)
		if err != nil {
			return nil, err
		}
		tree.Children = append(tree.Children, childTree)
	}
	return tree, nil
}
