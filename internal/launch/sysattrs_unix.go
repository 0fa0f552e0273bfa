//go:build !windows

package launch

import "syscall"

// buildSysProcAttr translates session, process-group and identity fields
// into the kernel attribute set the exec machinery applies in the child.
// Identity maps onto Credential, which the child applies as setgroups,
// then setgid, then setuid; reversing that order would leave the child
// unable to change its groups after dropping the uid.
func buildSysProcAttr(req *Request) *syscall.SysProcAttr {
	attr := &syscall.SysProcAttr{}
	switch {
	case req.NewSession:
		attr.Setsid = true
	case req.SetPgid:
		attr.Setpgid = true
		attr.Pgid = req.Pgid
	}
	if id := req.Identity; id != nil {
		attr.Credential = &syscall.Credential{
			Uid:         id.UID,
			Gid:         id.GID,
			Groups:      id.Groups,
			NoSetGroups: id.NoSetGroups,
		}
	}
	return attr
}
