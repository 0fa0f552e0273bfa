package server

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loykin/spawnr/internal/config"
	"github.com/loykin/spawnr/internal/history"
	"github.com/loykin/spawnr/internal/launch"
	"github.com/loykin/spawnr/internal/metrics"
	"github.com/loykin/spawnr/internal/procinfo"
	"github.com/loykin/spawnr/internal/runner"
)

// Router provides embeddable HTTP handlers over configured launches.
// Endpoints:
//   POST {basePath}/launch       query: name=... (configured launch), runs async
//   GET  {basePath}/status       query: name=...
//   GET  {basePath}/history      query: limit=N (sqlite-backed sinks only)
//   GET  {basePath}/metrics
// basePath may be empty or start with '/'; no trailing slash.

type Router struct {
	cfg      *config.Config
	run      *runner.Runner
	recent   historyReader
	basePath string

	mu   sync.Mutex
	runs map[string]*runState
}

// historyReader is the optional query side of a history sink.
type historyReader interface {
	Recent(ctx context.Context, limit int) ([]history.Event, error)
}

type runState struct {
	pid     int
	started time.Time
	done    chan struct{}
	res     *runner.Result
	err     error
}

// NewRouter constructs a Router with a configurable basePath. sink is
// consulted for the history endpoint when it supports queries; pass nil
// otherwise.
func NewRouter(cfg *config.Config, run *runner.Runner, sink history.Sink, basePath string) *Router {
	r := &Router{
		cfg:      cfg,
		run:      run,
		basePath: sanitizeBase(basePath),
		runs:     make(map[string]*runState),
	}
	if hr, ok := sink.(historyReader); ok {
		r.recent = hr
	}
	run.OnLaunch = r.noteLaunch
	return r
}

// Handler returns an http.Handler powered by gin that can be mounted in
// any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.POST("/launch", r.handleLaunch)
	group.GET("/status", r.handleStatus)
	group.GET("/history", r.handleHistory)
	group.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr string, r *Router) *http.Server {
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server
}

// --- Handlers ---

type errorResp struct {
	Error string `json:"error"`
}

type launchResp struct {
	OK   bool   `json:"ok"`
	Name string `json:"name"`
}

type statusResp struct {
	Name      string `json:"name"`
	PID       int    `json:"pid"`
	Running   bool   `json:"running"`
	StartedAt string `json:"started_at,omitempty"`
	Outcome   string `json:"outcome,omitempty"`
	Code      int    `json:"code"`
	Error     string `json:"error,omitempty"`
}

func (r *Router) noteLaunch(name string, child *launch.Child) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.runs[name]; ok {
		st.pid = child.PID
	}
}

func (r *Router) handleLaunch(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "name query param required"})
		return
	}
	if !isSafeName(name) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid name: allowed [A-Za-z0-9._-] and no '..' or path separators"})
		return
	}
	spec, err := r.cfg.Find(name)
	if err != nil {
		writeJSON(c, http.StatusNotFound, errorResp{Error: err.Error()})
		return
	}

	r.mu.Lock()
	if st, ok := r.runs[name]; ok {
		select {
		case <-st.done:
		default:
			r.mu.Unlock()
			writeJSON(c, http.StatusConflict, errorResp{Error: "launch already in flight: " + name})
			return
		}
	}
	st := &runState{started: time.Now(), done: make(chan struct{})}
	r.runs[name] = st
	r.mu.Unlock()

	go func() {
		res, err := r.run.Run(context.Background(), *spec)
		r.mu.Lock()
		st.res, st.err = res, err
		r.mu.Unlock()
		close(st.done)
	}()

	writeJSON(c, http.StatusAccepted, launchResp{OK: true, Name: name})
}

func (r *Router) handleStatus(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "name query param required"})
		return
	}
	// st.pid is written by the OnLaunch callback; every read of the run
	// state happens under the same lock.
	r.mu.Lock()
	st, ok := r.runs[name]
	if !ok {
		r.mu.Unlock()
		writeJSON(c, http.StatusNotFound, errorResp{Error: "no launch recorded for " + name})
		return
	}
	resp := statusResp{Name: name, PID: st.pid, StartedAt: st.started.UTC().Format(time.RFC3339)}
	pid := st.pid
	finished := false
	select {
	case <-st.done:
		finished = true
		if st.err != nil {
			resp.Error = st.err.Error()
		}
		if st.res != nil {
			resp.Outcome = string(st.res.Outcome)
			resp.Code = st.res.Code
		}
	default:
	}
	r.mu.Unlock()

	if !finished {
		resp.Running = pid != 0 && procinfo.Alive(pid)
	}
	writeJSON(c, http.StatusOK, resp)
}

func (r *Router) handleHistory(c *gin.Context) {
	if r.recent == nil {
		writeJSON(c, http.StatusNotFound, errorResp{Error: "history storage not configured"})
		return
	}
	limit := 50
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}
	events, err := r.recent.Recent(c.Request.Context(), limit)
	if err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, events)
}
