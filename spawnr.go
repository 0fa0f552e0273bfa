package spawnr

import (
	"context"
	"log/slog"
	"net/http"

	cfg "github.com/loykin/spawnr/internal/config"
	"github.com/loykin/spawnr/internal/env"
	"github.com/loykin/spawnr/internal/history"
	"github.com/loykin/spawnr/internal/launch"
	"github.com/loykin/spawnr/internal/metrics"
	"github.com/loykin/spawnr/internal/runner"
	iapi "github.com/loykin/spawnr/internal/server"
	"github.com/prometheus/client_golang/prometheus"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Request = launch.Request

type Identity = launch.Identity

type FDAction = launch.FDAction

type Child = launch.Child

type WaitStatus = launch.WaitStatus

type Outcome = launch.Outcome

const (
	OutcomeExited    = launch.OutcomeExited
	OutcomeSignaled  = launch.OutcomeSignaled
	OutcomeSuspended = launch.OutcomeSuspended
	OutcomeUnknown   = launch.OutcomeUnknown
)

// DecodeWaitStatus interprets a raw wait status word.
func DecodeWaitStatus(raw uint32) (Outcome, int, error) {
	return launch.WaitStatus(raw).Decode()
}

var (
	ErrUnsupported   = launch.ErrUnsupported
	ErrUnknownStatus = launch.ErrUnknownStatus
)

type LaunchSpec = cfg.LaunchSpec

type Config = cfg.Config

type HistorySink = history.Sink

type Result = runner.Result

// Launch spawns a child per the request and returns its handle. The call
// does not wait for the child; the caller owns reaping.
func Launch(req *Request) (*Child, error) { return launch.Launch(req) }

// Runner is a thin facade over internal/runner.Runner.
type Runner struct {
	inner   *runner.Runner
	overlay *env.Overlay
}

// NewRunner wires a Runner. sink may be nil for no audit trail.
func NewRunner(logger *slog.Logger, sink HistorySink) *Runner {
	ov := env.New()
	return &Runner{inner: runner.New(logger, ov, sink), overlay: ov}
}

// SetGlobalEnv layers KEY=VALUE pairs over the inherited environment for
// every subsequent run.
func (r *Runner) SetGlobalEnv(kvs []string) { r.overlay.SetAll(kvs) }

func (r *Runner) Run(ctx context.Context, spec LaunchSpec) (*Result, error) {
	return r.inner.Run(ctx, spec)
}

func LoadConfig(path string) (*Config, error) { return cfg.Load(path) }

// OpenHistory builds a history sink from a DSN; empty DSN discards events.
func OpenHistory(dsn string) (HistorySink, error) { return history.Open(dsn) }

// NewHTTPServer starts an HTTP server exposing the launch API.
func NewHTTPServer(addr, basePath string, c *Config, r *Runner, sink HistorySink) *http.Server {
	router := iapi.NewRouter(c, r.inner, sink, basePath)
	return iapi.NewServer(addr, router)
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }

// MetricsHandler exposes the Prometheus scrape endpoint for embedding.
func MetricsHandler() http.Handler { return metrics.Handler() }
