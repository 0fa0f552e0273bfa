//go:build windows

package launch

import (
	"errors"
	"syscall"
)

var ErrUnknownStatus = errors.New("launch: unrecognized wait status")

// Outcome labels how a waited-on child stopped running.
type Outcome string

const (
	OutcomeExited    Outcome = "exited"
	OutcomeSignaled  Outcome = "signaled"
	OutcomeSuspended Outcome = "suspended"
	OutcomeUnknown   Outcome = "unknown"
)

// WaitStatus decoding follows the POSIX bit layout; the Windows branch
// reports statuses through its own wait machinery.
type WaitStatus uint32

func (w WaitStatus) Exited() bool               { return false }
func (w WaitStatus) ExitCode() int              { return -1 }
func (w WaitStatus) Signaled() bool             { return false }
func (w WaitStatus) Signal() syscall.Signal     { return -1 }
func (w WaitStatus) Suspended() bool            { return false }
func (w WaitStatus) StopSignal() syscall.Signal { return -1 }
func (w WaitStatus) Continued() bool            { return false }

func (w WaitStatus) Decode() (Outcome, int, error) {
	return OutcomeUnknown, 0, ErrUnsupported
}
