// Package env composes the environment vector handed to a launch request.
package env

import (
	"os"
	"strings"
)

// Overlay layers environment sources for a launch: an OS base snapshot,
// facility-wide overrides, then per-launch overrides, with ${VAR} expansion
// against the composed result.
type Overlay struct {
	vars map[string]string // facility-wide overrides
	base map[string]string // cached OS snapshot; nil until first use
}

func New() *Overlay {
	return &Overlay{vars: make(map[string]string)}
}

// SnapshotOS caches the current process environment as the base layer.
// Compose calls it lazily when the caller never did.
func (o *Overlay) SnapshotOS() {
	base := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := splitKV(kv); ok {
			base[k] = v
		}
	}
	o.base = base
}

// Set records a facility-wide override.
func (o *Overlay) Set(k, v string) {
	if o.vars == nil {
		o.vars = make(map[string]string)
	}
	o.vars[k] = v
}

// Unset removes a facility-wide override.
func (o *Overlay) Unset(k string) {
	delete(o.vars, k)
}

// SetAll records each "K=V" entry as a facility-wide override, skipping
// malformed entries.
func (o *Overlay) SetAll(kvs []string) {
	for _, kv := range kvs {
		if k, v, ok := splitKV(kv); ok {
			o.Set(k, v)
		}
	}
}

// Compose builds the final "K=V" vector: OS base, then facility overrides,
// then perLaunch overrides, then a single ${VAR} expansion pass over the
// composed map. No recursion; a value referencing itself stays literal
// after one substitution round.
func (o *Overlay) Compose(perLaunch []string) []string {
	if o.base == nil {
		o.SnapshotOS()
	}
	m := make(map[string]string, len(o.base)+len(o.vars)+len(perLaunch))
	for k, v := range o.base {
		m[k] = v
	}
	for k, v := range o.vars {
		m[k] = v
	}
	for _, kv := range perLaunch {
		if k, v, ok := splitKV(kv); ok {
			m[k] = v
		}
	}
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+expand(v, m))
	}
	return out
}

func splitKV(kv string) (string, string, bool) {
	i := strings.IndexByte(kv, '=')
	if i <= 0 { // empty keys are malformed
		return "", "", false
	}
	return kv[:i], kv[i+1:], true
}

// expand substitutes ${VAR} references using the composed map.
func expand(s string, m map[string]string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	res := s
	for k, v := range m {
		res = strings.ReplaceAll(res, "${"+k+"}", v)
	}
	return res
}
