// Package history records launch lifecycle events for later audit.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Phase marks where in the launch lifecycle an event was produced.
type Phase string

const (
	PhaseLaunched Phase = "launched" // child created, pid known
	PhaseFailed   Phase = "failed"   // spawn syscall failed, no child exists
	PhaseReaped   Phase = "reaped"   // wait status collected and decoded
)

// Event is one audit record for a launch.
type Event struct {
	OccurredAt time.Time `json:"occurred_at"`
	Name       string    `json:"name"`
	PID        int       `json:"pid"`
	Phase      Phase     `json:"phase"`
	Outcome    string    `json:"outcome,omitempty"` // decoded outcome for PhaseReaped
	Code       int       `json:"code,omitempty"`    // exit code or signal number
	Error      string    `json:"error,omitempty"`
}

// Sink is a destination for launch events. Implementations must be safe
// for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
	Close() error
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) Send(context.Context, Event) error { return nil }
func (NopSink) Close() error                      { return nil }

// Open builds a sink from a DSN. Supported schemes: "sqlite://" (or a bare
// filesystem path, or ":memory:"). An empty DSN yields a NopSink.
func Open(dsn string) (Sink, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return NopSink{}, nil
	}
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "sqlite://"), strings.HasPrefix(dsn, "/"),
		strings.HasPrefix(dsn, "./"), dsn == ":memory:":
		return newSQLite(dsn)
	}
	if i := strings.Index(dsn, "://"); i > 0 {
		return nil, fmt.Errorf("history: unsupported sink scheme %q", dsn[:i])
	}
	return nil, errors.New("history: unrecognized DSN")
}
