package logging

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func tempLog(t *testing.T) *TransitionLog {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	l, err := NewTransitionLog(db)
	if err != nil {
		t.Fatalf("NewTransitionLog: %v", err)
	}
	return l
}

func TestAppendAndRecent(t *testing.T) {
	l := tempLog(t)

	entries := []TransitionEntry{
		{Trigger: TriggerLocalUpdate, StateJSON: `{"trust":0.5}`},
		{Trigger: TriggerServerReplace, StateJSON: `{"trust":0.7}`, Detail: "sync"},
		{Trigger: TriggerReset, StateJSON: `{"trust":0.5}`},
	}
	for _, e := range entries {
		if err := l.Append(e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := l.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	// Newest first
	if got[0].Trigger != TriggerReset || got[2].Trigger != TriggerLocalUpdate {
		t.Fatalf("unexpected order: %v, %v, %v", got[0].Trigger, got[1].Trigger, got[2].Trigger)
	}
	if got[1].Detail != "sync" {
		t.Fatalf("expected detail preserved, got %q", got[1].Detail)
	}
	if got[0].CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt backfilled")
	}
}

func TestRecentRespectsLimit(t *testing.T) {
	l := tempLog(t)
	for i := 0; i < 10; i++ {
		if err := l.Append(TransitionEntry{Trigger: TriggerLocalUpdate, StateJSON: "{}"}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	got, err := l.Recent(4)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(got))
	}
}

func TestAppendPreservesExplicitTimestamp(t *testing.T) {
	l := tempLog(t)
	ts := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	if err := l.Append(TransitionEntry{Trigger: TriggerServerDelta, StateJSON: "{}", CreatedAt: ts}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	got, _ := l.Recent(1)
	if len(got) != 1 || !got[0].CreatedAt.Equal(ts) {
		t.Fatalf("expected timestamp %s preserved, got %+v", ts, got)
	}
}
