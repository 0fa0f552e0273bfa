//go:build !windows

package launch

import (
	"runtime"

	"github.com/loykin/spawnr/internal/procinfo"
)

// Child identifies a successfully launched process. The caller owns it from
// here: this package never waits on or signals the pid. StartedAt is the
// kernel-reported start time of the pid, recorded so later observers can
// tell the child apart from an unrelated process that reused its pid.
type Child struct {
	PID       int   `json:"pid"`
	StartedAt int64 `json:"started_at"` // Unix seconds; 0 when unavailable
}

type starterFunc func(*Request) (int, error)

// start is fixed at package init: the platform is probed once, never per
// call.
var start = pickStarter()

// Launch spawns a child process described by req. Failure means no process
// was created; success means a process image matching the request is
// running (or already exited) under the returned pid. Failures that occur
// in the child after the fork point are invisible here and surface later
// through the child's wait status.
func Launch(req *Request) (*Child, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	pid, err := start(req)
	if err != nil {
		return nil, err
	}
	return &Child{PID: pid, StartedAt: procinfo.StartTimeUnix(pid)}, nil
}

// pickStarter selects the spawn strategy. The fast path needs the runtime
// to apply descriptor actions and credentials atomically between process
// creation and exec, with no window where the child runs with the parent's
// identity; every first-class Unix port provides that. The raw fork/exec
// path stays as the fallback for ports where os.StartProcess cannot carry
// the full attribute set.
func pickStarter() starterFunc {
	if atomicAttrsSupported() {
		return startFast
	}
	return startForkExec
}

func atomicAttrsSupported() bool {
	switch runtime.GOOS {
	case "linux", "darwin", "freebsd", "netbsd", "openbsd", "dragonfly", "solaris", "illumos":
		return true
	}
	return false
}
