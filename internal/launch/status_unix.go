//go:build !windows

package launch

import (
	"errors"
	"fmt"
	"syscall"
)

// ErrUnknownStatus reports a wait status matching none of the known
// encodings. Callers must treat it as an error condition, never as a clean
// exit.
var ErrUnknownStatus = errors.New("launch: unrecognized wait status")

// Outcome labels how a waited-on child stopped running.
type Outcome string

const (
	OutcomeExited    Outcome = "exited"
	OutcomeSignaled  Outcome = "signaled"
	OutcomeSuspended Outcome = "suspended"
	OutcomeUnknown   Outcome = "unknown"
)

// WaitStatus is the raw integer produced by wait4. The bit layout is the
// platform's own; every predicate below delegates to syscall.WaitStatus
// rather than re-deriving the encoding.
type WaitStatus uint32

func (w WaitStatus) sys() syscall.WaitStatus { return syscall.WaitStatus(w) }

// Exited reports whether the child terminated normally through exit.
func (w WaitStatus) Exited() bool { return w.sys().Exited() }

// ExitCode returns the exit code when Exited is true, -1 otherwise.
func (w WaitStatus) ExitCode() int { return w.sys().ExitStatus() }

// Signaled reports whether the child was terminated by a signal.
func (w WaitStatus) Signaled() bool { return w.sys().Signaled() }

// Signal returns the terminating signal when Signaled is true, -1 otherwise.
func (w WaitStatus) Signal() syscall.Signal { return w.sys().Signal() }

// Suspended reports whether the child is currently stopped by a signal.
// A suspended child may later resume; this is not a terminal state.
func (w WaitStatus) Suspended() bool { return w.sys().Stopped() }

// StopSignal returns the stopping signal when Suspended is true, -1 otherwise.
func (w WaitStatus) StopSignal() syscall.Signal { return w.sys().StopSignal() }

// Continued reports a stopped child resumed by SIGCONT (visible only to
// WCONTINUED waits). Continuation is not an outcome: Decode rejects such
// statuses, so callers observing them should simply keep waiting.
func (w WaitStatus) Continued() bool { return w.sys().Continued() }

// Decode classifies the status into exactly one outcome and its code: the
// exit code for OutcomeExited, the terminating or stopping signal number
// otherwise. A status matching no predicate yields OutcomeUnknown and
// ErrUnknownStatus.
func (w WaitStatus) Decode() (Outcome, int, error) {
	switch {
	case w.Exited():
		return OutcomeExited, w.ExitCode(), nil
	case w.Signaled():
		return OutcomeSignaled, int(w.Signal()), nil
	case w.Suspended():
		return OutcomeSuspended, int(w.StopSignal()), nil
	}
	return OutcomeUnknown, 0, fmt.Errorf("%w: %#x", ErrUnknownStatus, uint32(w))
}
