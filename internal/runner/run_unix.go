//go:build !windows

package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/loykin/spawnr/internal/config"
	"github.com/loykin/spawnr/internal/history"
	"github.com/loykin/spawnr/internal/launch"
	"github.com/loykin/spawnr/internal/metrics"
	"github.com/loykin/spawnr/internal/procinfo"
)

// Run launches the spec's child, blocks until it is reaped, and returns
// the decoded result. Cancelling ctx sends SIGTERM to the child (or its
// group when the spec creates one), escalating to SIGKILL after the grace
// window; the call still returns the child's actual decoded status.
func (r *Runner) Run(ctx context.Context, spec config.LaunchSpec) (*Result, error) {
	req, cleanup, err := r.buildRequest(spec)
	if err != nil {
		return nil, err
	}

	began := time.Now()
	child, err := launch.Launch(req)
	// The child holds its own copies now; the parent-side descriptors for
	// the child's table must go regardless of outcome.
	cleanup()
	if err != nil {
		metrics.IncLaunchFailure(spec.Name)
		r.record(history.Event{
			OccurredAt: time.Now(), Name: spec.Name, Phase: history.PhaseFailed, Error: err.Error(),
		})
		return nil, fmt.Errorf("launch %q: %w", spec.Name, err)
	}
	metrics.IncLaunch(spec.Name)
	r.record(history.Event{
		OccurredAt: time.Now(), Name: spec.Name, PID: child.PID, Phase: history.PhaseLaunched,
	})
	r.logger.Info("launched", "name", spec.Name, "pid", child.PID)
	if r.OnLaunch != nil {
		r.OnLaunch(spec.Name, child)
	}

	st, err := r.reap(ctx, spec, child.PID)
	if err != nil {
		return nil, err
	}
	outcome, code, derr := st.Decode()
	dur := time.Since(began)
	metrics.IncExit(spec.Name, string(outcome))
	metrics.ObserveRunDuration(spec.Name, dur.Seconds())
	ev := history.Event{
		OccurredAt: time.Now(), Name: spec.Name, PID: child.PID,
		Phase: history.PhaseReaped, Outcome: string(outcome), Code: code,
	}
	if derr != nil {
		ev.Error = derr.Error()
	}
	r.record(ev)
	res := &Result{Child: child, Status: st, Outcome: outcome, Code: code, Duration: dur}
	if derr != nil {
		return res, derr
	}
	r.logger.Info("reaped", "name", spec.Name, "pid", child.PID, "outcome", outcome, "code", code)
	return res, nil
}

// buildRequest assembles the Request and the parent-side descriptor
// cleanup. Stdin is always the null device; stdout/stderr go to the null
// device or, when capture is configured, through pipes into rotated files.
func (r *Runner) buildRequest(spec config.LaunchSpec) (*launch.Request, func(), error) {
	identity, err := spec.Identity()
	if err != nil {
		return nil, nil, err
	}

	var parentFiles []*os.File
	cleanup := func() {
		for _, f := range parentFiles {
			_ = f.Close()
		}
	}

	devNullIn, err := os.OpenFile(os.DevNull, os.O_RDONLY, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", os.DevNull, err)
	}
	parentFiles = append(parentFiles, devNullIn)
	files := []launch.FDAction{{Child: 0, File: devNullIn}}

	if spec.Capture.Enabled() {
		outW, errW, err := spec.Capture.Writers(spec.Name)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		outFile, err := capturePipe(outW)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		parentFiles = append(parentFiles, outFile)
		errFile, err := capturePipe(errW)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		parentFiles = append(parentFiles, errFile)
		files = append(files,
			launch.FDAction{Child: 1, File: outFile},
			launch.FDAction{Child: 2, File: errFile},
		)
	} else {
		devNullOut, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("open %s: %w", os.DevNull, err)
		}
		parentFiles = append(parentFiles, devNullOut)
		files = append(files,
			launch.FDAction{Child: 1, File: devNullOut},
			launch.FDAction{Child: 2, File: devNullOut},
		)
	}

	req := &launch.Request{
		Path:       spec.Path,
		Args:       spec.Argv(),
		Env:        r.env.Compose(spec.Env),
		Dir:        spec.WorkDir,
		Identity:   identity,
		NewSession: spec.NewSession,
		SetPgid:    spec.SetPgid,
		Pgid:       spec.Pgid,
		Files:      files,
	}
	if err := req.Validate(); err != nil {
		cleanup()
		return nil, nil, err
	}
	return req, cleanup, nil
}

// capturePipe hands back the write end for the child's table and pumps the
// read end into w until the child closes its copy.
func capturePipe(w io.WriteCloser) (*os.File, error) {
	if w == nil {
		return os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	}
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	go func() {
		_, _ = io.Copy(w, pr)
		_ = pr.Close()
		_ = w.Close()
	}()
	return pw, nil
}

// reap collects the child's terminal status. Suspensions and resumptions
// are observed and logged but not terminal; the wait continues.
func (r *Runner) reap(ctx context.Context, spec config.LaunchSpec, pid int) (launch.WaitStatus, error) {
	type waitResult struct {
		st  launch.WaitStatus
		err error
	}
	ch := make(chan waitResult, 1)
	go func() {
		for {
			var ws syscall.WaitStatus
			_, err := syscall.Wait4(pid, &ws, syscall.WUNTRACED|syscall.WCONTINUED, nil)
			if err != nil {
				if errors.Is(err, syscall.EINTR) {
					continue
				}
				ch <- waitResult{err: fmt.Errorf("wait4 pid %d: %w", pid, err)}
				return
			}
			st := launch.WaitStatus(ws)
			switch {
			case st.Suspended():
				r.logger.Info("suspended", "name", spec.Name, "pid", pid, "signal", st.StopSignal())
				continue
			case st.Continued():
				r.logger.Info("resumed", "name", spec.Name, "pid", pid)
				continue
			}
			ch <- waitResult{st: st}
			return
		}
	}()

	select {
	case res := <-ch:
		return res.st, res.err
	case <-ctx.Done():
		r.terminate(spec, pid)
		res := <-ch
		return res.st, res.err
	}
}

// terminate asks the child to exit, escalating after the grace window.
// The final status still arrives through the wait goroutine.
func (r *Runner) terminate(spec config.LaunchSpec, pid int) {
	target := pid
	switch {
	case spec.SetPgid && spec.Pgid != 0:
		// The child joined an existing group; it does not lead group pid.
		target = -spec.Pgid
	case spec.NewSession || spec.SetPgid:
		target = -pid // group led by the child
	}
	r.logger.Info("terminating", "name", spec.Name, "pid", pid)
	_ = syscall.Kill(target, syscall.SIGTERM)
	go func() {
		time.Sleep(r.grace())
		if procinfo.Alive(pid) {
			_ = syscall.Kill(target, syscall.SIGKILL)
		}
	}()
}
