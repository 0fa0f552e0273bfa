//go:build !windows

package launch

import "os"

// startFast issues the launch as a single os.StartProcess call. The
// descriptor table, working directory, session flags and credential travel
// inside one ProcAttr, and the runtime applies them in the child before
// the new image loads. On Linux this rides the vfork-accelerated clone
// path. All-or-nothing: on error no process exists.
func startFast(req *Request) (int, error) {
	attr := &os.ProcAttr{
		Dir:   req.Dir,
		Env:   req.Env, // nil = inherit, resolved by os.StartProcess
		Files: req.fdTable(),
		Sys:   buildSysProcAttr(req),
	}
	p, err := os.StartProcess(req.Path, req.Args, attr)
	if err != nil {
		return 0, err
	}
	pid := p.Pid
	// The caller owns the pid. Release only drops the finalizer; it does
	// not touch the process.
	_ = p.Release()
	return pid, nil
}
