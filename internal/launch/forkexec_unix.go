//go:build !windows

package launch

import (
	"os"
	"runtime"
	"syscall"
)

// startForkExec is the portable fallback: fork, then in the child apply
// working directory, descriptor dispositions, session or process group,
// supplementary groups, primary group and uid, in that order, then exec.
// Any child-side failure terminates the child; there is no channel back
// across the fork boundary, so the parent observes only the pid or a
// fork-level error. The child-side sequence runs inside the runtime's fork
// child, which restricts itself to async-signal-safe raw syscalls; no
// caller code executes in that window.
func startForkExec(req *Request) (int, error) {
	table := req.fdTable()
	fds := make([]uintptr, len(table))
	for i, f := range table {
		// A nil entry yields the close sentinel: the slot stays closed in
		// the child.
		fds[i] = f.Fd()
	}
	env := req.Env
	if env == nil {
		// syscall.ForkExec passes the vector through as-is; inherit
		// explicitly here.
		env = os.Environ()
	}
	attr := &syscall.ProcAttr{
		Dir:   req.Dir,
		Env:   env,
		Files: fds,
		Sys:   buildSysProcAttr(req),
	}
	pid, err := syscall.ForkExec(req.Path, req.Args, attr)
	// The *os.Files must outlive the fork: a finalizer closing a parent
	// descriptor mid-launch would hand the child the wrong file.
	runtime.KeepAlive(table)
	if err != nil {
		return 0, err
	}
	return pid, nil
}
