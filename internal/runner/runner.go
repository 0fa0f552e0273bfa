// Package runner is the thin glue above the launch primitive: it turns a
// configured launch spec into a Request, spawns the child, reaps it, and
// records the decoded outcome. It applies no restart policy.
package runner

import (
	"context"
	"log/slog"
	"time"

	"github.com/loykin/spawnr/internal/env"
	"github.com/loykin/spawnr/internal/history"
	"github.com/loykin/spawnr/internal/launch"
)

// DefaultTermGrace is the wait between SIGTERM and SIGKILL on cancellation.
const DefaultTermGrace = 5 * time.Second

type Runner struct {
	logger *slog.Logger
	env    *env.Overlay
	sink   history.Sink

	// TermGrace overrides DefaultTermGrace when positive.
	TermGrace time.Duration

	// OnLaunch, when set, is called once per successful spawn before the
	// child is reaped. Callers use it to observe the pid of an in-flight
	// run; it must not block.
	OnLaunch func(name string, child *launch.Child)
}

// New wires a Runner. logger must be non-nil; sink may be a history.NopSink.
func New(logger *slog.Logger, overlay *env.Overlay, sink history.Sink) *Runner {
	if overlay == nil {
		overlay = env.New()
	}
	if sink == nil {
		sink = history.NopSink{}
	}
	return &Runner{logger: logger, env: overlay, sink: sink}
}

// Result is the reaped end of one run.
type Result struct {
	Child    *launch.Child
	Status   launch.WaitStatus
	Outcome  launch.Outcome
	Code     int // exit code or signal number, per Outcome
	Duration time.Duration
}

func (r *Runner) grace() time.Duration {
	if r.TermGrace > 0 {
		return r.TermGrace
	}
	return DefaultTermGrace
}

// record ships an audit event; sink failures are logged, never fatal to
// the run itself.
func (r *Runner) record(e history.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := r.sink.Send(ctx, e); err != nil {
		r.logger.Warn("history sink", "error", err)
	}
}
