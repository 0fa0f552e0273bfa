package spawnr

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func requireUnix(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires Unix-like environment")
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLaunchRejectsEmptyRequest(t *testing.T) {
	if _, err := Launch(&Request{}); err == nil {
		t.Fatal("empty request should not launch")
	}
}

func TestRunnerFacadeRunsChild(t *testing.T) {
	requireUnix(t)
	r := NewRunner(discardLogger(), nil)
	res, err := r.Run(context.Background(), LaunchSpec{
		Name: "facade", Path: "/bin/sh", Args: []string{"-c", "exit 5"},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Outcome != OutcomeExited || res.Code != 5 {
		t.Fatalf("result = %+v", res)
	}
}

func TestRunnerFacadeGlobalEnv(t *testing.T) {
	requireUnix(t)
	r := NewRunner(discardLogger(), nil)
	r.SetGlobalEnv([]string{"SPAWNR_FACADE_MARK=yes"})
	dir := t.TempDir()
	out := filepath.Join(dir, "env.out")
	res, err := r.Run(context.Background(), LaunchSpec{
		Name: "genv", Path: "/bin/sh",
		Args: []string{"-c", "printf %s \"$SPAWNR_FACADE_MARK\" > " + out},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Code != 0 {
		t.Fatalf("result = %+v", res)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "yes" {
		t.Fatalf("child env mark = %q", string(b))
	}
}

func TestDecodeWaitStatusFacade(t *testing.T) {
	requireUnix(t)
	outcome, code, err := DecodeWaitStatus(0x0500)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if outcome != OutcomeExited || code != 5 {
		t.Fatalf("decode = %s %d", outcome, code)
	}
}

func TestLoadConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spawnr.toml")
	body := `
history_dsn = ""

[server]
listen = ":0"

[[launches]]
name = "probe"
path = "/bin/true"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := cfg.Find("probe"); err != nil {
		t.Fatalf("find: %v", err)
	}
}

func TestOpenHistoryEmptyDSNDiscards(t *testing.T) {
	sink, err := OpenHistory("")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = sink.Close() }()
}

func TestRegisterMetricsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := RegisterMetrics(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := RegisterMetrics(reg); err != nil {
		t.Fatalf("re-register: %v", err)
	}
}
