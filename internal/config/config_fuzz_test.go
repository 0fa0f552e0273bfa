package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// FuzzLoadTOML feeds random-ish fields into a minimal launch TOML and
// ensures the loader never panics, and that anything it accepts passes
// the same validation it claims to enforce.
func FuzzLoadTOML(f *testing.F) {
	f.Add("demo", "/bin/true", "", false, false, 0)
	f.Add("", "/bin/sh", "PORT=8080", true, false, 0)
	f.Add("a b", "", "NOEQ", false, true, 7)
	f.Add("dup", "/bin/true", "K=${K}", false, true, -1)

	f.Fuzz(func(t *testing.T, name, path, envKV string, newSession, setPgid bool, pgid int) {
		clean := func(s string) string {
			s = strings.ReplaceAll(s, "\"", "")
			s = strings.ReplaceAll(s, "\\", "")
			s = strings.ReplaceAll(s, "\n", "")
			return s
		}
		b := strings.Builder{}
		b.WriteString("[[launches]]\n")
		b.WriteString("name = \"" + clean(name) + "\"\n")
		b.WriteString("path = \"" + clean(path) + "\"\n")
		if envKV != "" {
			b.WriteString("env = [\"" + clean(envKV) + "\"]\n")
		}
		if newSession {
			b.WriteString("new_session = true\n")
		}
		if setPgid {
			b.WriteString("set_pgid = true\n")
		}
		if pgid != 0 {
			b.WriteString("pgid = " + strconv.Itoa(pgid) + "\n")
		}

		tmp := filepath.Join(t.TempDir(), "fuzz.toml")
		if err := os.WriteFile(tmp, []byte(b.String()), 0o644); err != nil {
			t.Skip()
		}
		c, err := Load(tmp) // must not panic
		if err != nil {
			return
		}
		for i := range c.Launches {
			if verr := c.Launches[i].Validate(); verr != nil {
				t.Errorf("Load accepted a spec its own validation rejects: %v", verr)
			}
		}
	})
}
