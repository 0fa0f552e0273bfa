package server

import (
	"strings"
	"testing"
)

// FuzzIsSafeName checks the launch-name validator never panics and never
// accepts anything that could traverse paths.
func FuzzIsSafeName(f *testing.F) {
	f.Add("valid-name_123")
	f.Add("")
	f.Add("..")
	f.Add("../etc/passwd")
	f.Add("name/with/slash")
	f.Add(`name\with\backslash`)
	f.Add("valid.name")
	f.Add("...dotted")
	f.Add("name\x00null")
	f.Add("name\nnewline")
	f.Add("unicode한글name")

	f.Fuzz(func(t *testing.T, name string) {
		if len(name) > 200 {
			t.Skip("name too long")
		}
		ok := isSafeName(name)
		if ok != isSafeName(name) {
			t.Fatalf("isSafeName inconsistent for %q", name)
		}
		if !ok {
			return
		}
		if name == "" {
			t.Error("empty name accepted")
		}
		if strings.Contains(name, "..") {
			t.Errorf("name with .. accepted: %q", name)
		}
		if strings.ContainsAny(name, "/\\") {
			t.Errorf("name with path separator accepted: %q", name)
		}
		for _, r := range name {
			if r > 0x7f || r < 0x20 {
				t.Errorf("name with non-printable or non-ASCII rune accepted: %q", name)
			}
		}
	})
}

// FuzzSanitizeBase checks base-path sanitization always yields either ""
// or a slash-prefixed path with no trailing slash.
func FuzzSanitizeBase(f *testing.F) {
	f.Add("")
	f.Add("/")
	f.Add("/api")
	f.Add("/api/")
	f.Add("api")
	f.Add("  /api/v1/  ")
	f.Add("//multiple//slashes//")
	f.Add("/path\x00null")

	f.Fuzz(func(t *testing.T, basePath string) {
		if len(basePath) > 200 {
			t.Skip("base path too long")
		}
		got := sanitizeBase(basePath)
		if got == "" {
			return
		}
		if !strings.HasPrefix(got, "/") {
			t.Errorf("sanitizeBase(%q) = %q: missing leading slash", basePath, got)
		}
		if strings.HasSuffix(got, "/") {
			t.Errorf("sanitizeBase(%q) = %q: trailing slash survived", basePath, got)
		}
	})
}
