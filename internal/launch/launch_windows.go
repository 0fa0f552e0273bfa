//go:build windows

package launch

// Child identifies a successfully launched process.
type Child struct {
	PID       int   `json:"pid"`
	StartedAt int64 `json:"started_at"`
}

// Launch is implemented by the Windows branch; this build always refuses.
func Launch(req *Request) (*Child, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return nil, ErrUnsupported
}
