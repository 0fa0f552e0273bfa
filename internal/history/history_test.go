package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestOpenEmptyDSNYieldsNop(t *testing.T) {
	s, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := s.(NopSink); !ok {
		t.Fatalf("expected NopSink, got %T", s)
	}
	if err := s.Send(context.Background(), Event{}); err != nil {
		t.Fatalf("nop send: %v", err)
	}
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	if _, err := Open("postgres://localhost/db"); err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
	if _, err := Open("garbage"); err == nil {
		t.Fatal("expected error for unrecognized DSN")
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "hist.db")
	s, err := Open(dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = s.Close() }()

	base := time.Now().UTC().Truncate(time.Second)
	events := []Event{
		{OccurredAt: base, Name: "web", PID: 100, Phase: PhaseLaunched},
		{OccurredAt: base.Add(time.Second), Name: "web", PID: 100, Phase: PhaseReaped, Outcome: "exited", Code: 0},
		{OccurredAt: base.Add(2 * time.Second), Name: "job", PID: 0, Phase: PhaseFailed, Error: "no such file"},
	}
	for _, e := range events {
		if err := s.Send(context.Background(), e); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	sq, ok := s.(*SQLiteSink)
	if !ok {
		t.Fatalf("expected SQLiteSink, got %T", s)
	}
	got, err := sq.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3", len(got))
	}
	// newest first
	if got[0].Phase != PhaseFailed || got[0].Error != "no such file" {
		t.Fatalf("unexpected newest event: %+v", got[0])
	}
	if got[1].Outcome != "exited" || got[1].Code != 0 {
		t.Fatalf("reaped event mangled: %+v", got[1])
	}
}

func TestSQLiteInMemory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = s.Close() }()
	if err := s.Send(context.Background(), Event{OccurredAt: time.Now(), Name: "x", Phase: PhaseLaunched}); err != nil {
		t.Fatalf("send: %v", err)
	}
}
