package runlog_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/scgcore/quantd/pkg/runlog"
)

func TestLog(t *testing.T) {
	ctx := context.Background()

	t.Run("it appends and reads back events per group", func(t *testing.T) {
		l, err := runlog.Open(filepath.Join(t.TempDir(), "runlog.db"))
		if err != nil {
			t.Fatalf("failed to open runlog: %v", err)
		}
		defer l.Close()

		base := time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC)
		events := []runlog.Event{
			{At: base, GroupID: "PG1", Stage: "setup", Level: runlog.Info, Message: "experiment directory created"},
			{At: base.Add(time.Minute), GroupID: "PG1", Stage: "standards", Level: runlog.Info, Message: "RunDef submitted"},
			{At: base.Add(2 * time.Minute), GroupID: "PG2", Stage: "setup", Level: runlog.Error, Message: "not for PG1"},
			{At: base.Add(3 * time.Minute), GroupID: "PG1", Stage: "standards", Level: runlog.Error, Message: "rejected"},
		}
		for _, ev := range events {
			if err := l.Append(ctx, ev); err != nil {
				t.Fatalf("failed to append: %v", err)
			}
		}

		got, err := l.Recent(ctx, "PG1", 10)
		if err != nil {
			t.Fatalf("failed to read back: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("unmatch event count: %d, expected 3", len(got))
		}
		// newest first
		if got[0].Message != "rejected" || got[0].Level != runlog.Error {
			t.Errorf("unexpected newest event: %+v", got[0])
		}
		if got[2].Message != "experiment directory created" {
			t.Errorf("unexpected oldest event: %+v", got[2])
		}
		if !got[2].At.Equal(base) {
			t.Errorf("unmatch timestamp: %s, expected %s", got[2].At, base)
		}
	})

	t.Run("it honours the row limit", func(t *testing.T) {
		l, err := runlog.Open(filepath.Join(t.TempDir(), "runlog.db"))
		if err != nil {
			t.Fatalf("failed to open runlog: %v", err)
		}
		defer l.Close()

		for i := 0; i < 5; i++ {
			if err := l.Append(ctx, runlog.Event{
				GroupID: "PG1", Stage: "setup", Level: runlog.Info, Message: "event",
			}); err != nil {
				t.Fatalf("failed to append: %v", err)
			}
		}

		got, err := l.Recent(ctx, "PG1", 2)
		if err != nil {
			t.Fatalf("failed to read back: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("unmatch event count: %d, expected 2", len(got))
		}
	})

	t.Run("it survives reopening", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "runlog.db")
		l, err := runlog.Open(path)
		if err != nil {
			t.Fatalf("failed to open runlog: %v", err)
		}
		if err := l.Append(ctx, runlog.Event{
			GroupID: "PG1", Stage: "done", Level: runlog.Info, Message: "complete",
		}); err != nil {
			t.Fatalf("failed to append: %v", err)
		}
		l.Close()

		reopened, err := runlog.Open(path)
		if err != nil {
			t.Fatalf("failed to reopen runlog: %v", err)
		}
		defer reopened.Close()
		got, err := reopened.Recent(ctx, "PG1", 1)
		if err != nil {
			t.Fatalf("failed to read back: %v", err)
		}
		if len(got) != 1 || got[0].Message != "complete" {
			t.Errorf("unexpected events after reopen: %+v", got)
		}
	})
}
