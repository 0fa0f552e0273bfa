// Package launch spawns child processes with precisely controlled
// descriptors, environment, identity and session membership, and decodes
// the wait statuses they eventually produce. It never waits on or signals
// the processes it creates; that is the caller's side of the contract.
package launch

import (
	"errors"
	"fmt"
	"os"
)

// ErrUnsupported marks operations that have no implementation on this
// platform. The Windows spawning path lives in a separate branch.
var ErrUnsupported = errors.New("launch: not supported on this platform")

// Request describes a single child process launch. It is built by the
// caller, consumed by exactly one Launch call, and not reused.
type Request struct {
	Path string   // executable path; resolved by the caller (no PATH search here)
	Args []string // argv; Args[0] is conventionally the program name
	Env  []string // environment in "K=V" form; nil inherits the parent environment
	Dir  string   // optional working directory applied in the child before exec

	Identity *Identity // optional credential the child assumes before exec

	NewSession bool // detach into a new session (setsid); excludes SetPgid
	SetPgid    bool // place the child in a process group
	Pgid       int  // group to join when SetPgid; 0 creates a group led by the child

	Files []FDAction // child descriptor table; see FDAction
}

// Identity is the credential the child assumes before exec. The child-side
// ordering is fixed: supplementary groups, then primary group, then uid.
// Setting the uid first would drop the privilege needed for the rest.
type Identity struct {
	UID         uint32
	GID         uint32
	Groups      []uint32 // supplementary groups
	NoSetGroups bool     // skip setgroups entirely, keeping the inherited set
}

// FDAction assigns one slot of the child's descriptor table: the parent
// File is duplicated onto descriptor Child before exec, and a nil File
// leaves the slot closed. Slots between listed ones are closed too, and
// every parent descriptor above the table never reaches the child (the os
// package opens files close-on-exec). Entries may appear in any order: the
// exec path relocates overlapping descriptors through spare slots, so a
// source is never clobbered before it has been duplicated.
type FDAction struct {
	Child int
	File  *os.File
}

// Validate checks the request for contract violations that would otherwise
// surface as confusing child-side failures.
func (r *Request) Validate() error {
	if r.Path == "" {
		return errors.New("launch: empty executable path")
	}
	if len(r.Args) == 0 {
		return errors.New("launch: empty argument vector")
	}
	if r.NewSession && r.SetPgid {
		return errors.New("launch: NewSession and SetPgid are mutually exclusive")
	}
	if !r.SetPgid && r.Pgid != 0 {
		return errors.New("launch: Pgid set without SetPgid")
	}
	if r.SetPgid && r.Pgid < 0 {
		return fmt.Errorf("launch: negative process group %d", r.Pgid)
	}
	seen := make(map[int]struct{}, len(r.Files))
	for _, fa := range r.Files {
		if fa.Child < 0 {
			return fmt.Errorf("launch: negative child descriptor %d", fa.Child)
		}
		if _, dup := seen[fa.Child]; dup {
			return fmt.Errorf("launch: duplicate disposition for child descriptor %d", fa.Child)
		}
		seen[fa.Child] = struct{}{}
	}
	return nil
}

// fdTable flattens the disposition list into the positional descriptor
// table the exec machinery consumes: index = child descriptor, nil = closed.
func (r *Request) fdTable() []*os.File {
	max := -1
	for _, fa := range r.Files {
		if fa.Child > max {
			max = fa.Child
		}
	}
	if max < 0 {
		return nil
	}
	table := make([]*os.File, max+1)
	for _, fa := range r.Files {
		table[fa.Child] = fa.File
	}
	return table
}
