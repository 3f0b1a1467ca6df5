// Package progress implements the Executor's typed publish-subscribe event
// stream. Grounded on the teacher's internal/execution/tracking/tracker.go
// callback-registration idiom, restructured per spec.md §9's redesign note
// into multi-subscriber pub-sub with per-handler panic isolation — the
// teacher's Tracker holds one logCallback and offers no isolation, which
// spec §4.6 requires ("Handler exceptions must be caught and logged; they
// must not abort execution").
package progress

import (
	"log/slog"
	"sync"
	"time"

	"lacewing/internal/logging"
)

// EventType enumerates every event the bus emits.
type EventType string

const (
	ExecutionStart    EventType = "execution:start"
	ExecutionComplete EventType = "execution:complete"
	ExecutionFailed   EventType = "execution:failed"
	StepStart         EventType = "step:start"
	StepComplete      EventType = "step:complete"
	StepFailed        EventType = "step:failed"
	StepSkipped       EventType = "step:skipped"
	ChildStart        EventType = "child:start"
	ChildComplete     EventType = "child:complete"
)

// Data carries the optional step/child-specific payload of an Event.
type Data struct {
	StepIndex         int    `json:"step_index,omitempty"`
	StepName          string `json:"step_name,omitempty"`
	Action            string `json:"action,omitempty"`
	Description       string `json:"description,omitempty"`
	DurationMS        int64  `json:"duration,omitempty"`
	Error             string `json:"error,omitempty"`
	ChildExecutionID  string `json:"child_execution_id,omitempty"`
	Output            any    `json:"output,omitempty"`
}

// Event is one emission on the bus.
type Event struct {
	Type          EventType `json:"type"`
	ExecutionID   string    `json:"execution_id"`
	WorkflowName  string    `json:"workflow_name"`
	Timestamp     time.Time `json:"timestamp"`
	Depth         int       `json:"depth"`
	Data          *Data     `json:"data,omitempty"`
}

// Handler receives events synchronously in emission order.
type Handler func(Event)

// Bus is a synchronous multi-subscriber publisher. It is safe for
// concurrent use by multiple executions; each execution's own events are
// still emitted in strict per-execution order because one Executor drives
// one execution single-threaded (spec.md §5).
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	logger   *slog.Logger
}

// New constructs a Bus. Pass nil to log handler panics via slog.Default().
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger}
}

// NewWithLogger constructs a Bus backed by the module's shared Logger type.
func NewWithLogger(l *logging.Logger) *Bus {
	if l == nil {
		return New(nil)
	}
	return New(l.Slog())
}

// Subscribe registers a handler invoked for every future event. It returns
// an unsubscribe function.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := len(b.handlers)
	b.handlers = append(b.handlers, h)
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if idx < len(b.handlers) {
			b.handlers[idx] = nil
		}
	}
}

// Publish emits ev to every subscribed handler. A handler panic is
// recovered, logged, and does not prevent subsequent handlers (or
// subsequent events) from running.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		if h == nil {
			continue
		}
		b.invoke(h, ev)
	}
}

func (b *Bus) invoke(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("progress handler panicked", "event", ev.Type, "execution_id", ev.ExecutionID, "recovered", r)
		}
	}()
	h(ev)
}
