package main

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestBuildRootHasSubcommands(t *testing.T) {
	root := buildRoot()
	want := map[string]bool{"run": false, "serve": false, "decode": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestResolveSpecAdHoc(t *testing.T) {
	spec, sink, err := resolveSpec(&GlobalFlags{}, &RunFlags{LogDir: "/tmp/logs"}, []string{"/bin/sleep", "1"})
	if err != nil {
		t.Fatalf("resolveSpec: %v", err)
	}
	defer func() { _ = sink.Close() }()
	if spec.Name != "sleep" || spec.Path != "/bin/sleep" {
		t.Fatalf("spec = %+v", spec)
	}
	if len(spec.Args) != 1 || spec.Args[0] != "1" {
		t.Fatalf("args = %v", spec.Args)
	}
	if !spec.Capture.Enabled() {
		t.Fatal("log-dir should enable capture")
	}
}

func TestResolveSpecRequiresCommand(t *testing.T) {
	if _, _, err := resolveSpec(&GlobalFlags{}, &RunFlags{}, nil); err == nil {
		t.Fatal("expected error without config or command")
	}
}

func TestResolveSpecFromConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spawnr.toml")
	body := `
[[launches]]
name = "web"
path = "/bin/sh"
args = ["-c", "exit 0"]
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	gf := &GlobalFlags{ConfigPath: path}

	spec, sink, err := resolveSpec(gf, &RunFlags{Name: "web"}, nil)
	if err != nil {
		t.Fatalf("resolveSpec: %v", err)
	}
	_ = sink.Close()
	if spec.Path != "/bin/sh" {
		t.Fatalf("spec = %+v", spec)
	}

	if _, _, err := resolveSpec(gf, &RunFlags{}, nil); err == nil {
		t.Fatal("expected error without --name")
	}
	if _, _, err := resolveSpec(gf, &RunFlags{Name: "nope"}, nil); err == nil {
		t.Fatal("expected error for unknown name")
	}
}

func TestDecodeCommand(t *testing.T) {
	if runtime.GOOS != "windows" {
		root := buildRoot()
		root.SetOut(io.Discard)
		root.SetErr(io.Discard)
		root.SetArgs([]string{"decode", "0"})
		if err := root.Execute(); err != nil {
			t.Fatalf("decode 0: %v", err)
		}
	}

	root := buildRoot()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"decode", "zebra"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected error for non-numeric status")
	}
}

func TestBaseName(t *testing.T) {
	cases := map[string]string{"/bin/sh": "sh", "sh": "sh", "/a/b/c": "c"}
	for in, want := range cases {
		if got := baseName(in); got != want {
			t.Errorf("baseName(%q) = %q, want %q", in, got, want)
		}
	}
}
