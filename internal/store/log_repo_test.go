package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/anthropics/chemlab-engine/internal/domain"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := NewDB(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLogRepo_AppendAndListSince(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := &LogRepo{}
	now := time.Now().Unix()

	entries := []domain.LabLogEntry{
		{ID: "a", Seq: 1, Text: "Added Beaker (250ml).", CreatedAt: now},
		{ID: "b", Seq: 2, Text: "Added 50.0ml of Hydrochloric Acid.", CreatedAt: now},
		{ID: "c", Seq: 3, Text: "student note", Custom: true, CreatedAt: now},
	}
	for _, e := range entries {
		if err := repo.Append(ctx, db, e); err != nil {
			t.Fatalf("Append seq=%d: %v", e.Seq, err)
		}
	}

	got, err := repo.ListSince(ctx, db, 0)
	if err != nil {
		t.Fatalf("ListSince: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if !got[2].Custom {
		t.Error("custom flag lost on round trip")
	}

	got, err = repo.ListSince(ctx, db, 1)
	if err != nil {
		t.Fatalf("ListSince sinceSeq=1: %v", err)
	}
	if len(got) != 2 || got[0].Seq != 2 {
		t.Fatalf("ListSince(1) = %+v, want entries 2 and 3", got)
	}
}

func TestLogRepo_Clear(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := &LogRepo{}

	if err := repo.Append(ctx, db, domain.LabLogEntry{ID: "a", Seq: 1, Text: "x", CreatedAt: time.Now().Unix()}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := repo.Clear(ctx, db); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	got, err := repo.ListSince(ctx, db, 0)
	if err != nil {
		t.Fatalf("ListSince: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty log after clear, got %d entries", len(got))
	}
}

func TestPersistentLog_SatisfiesSink(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	sink := &PersistentLog{DB: db}

	if err := sink.Append(ctx, domain.LabLogEntry{ID: "a", Seq: 1, Text: "poured", CreatedAt: time.Now().Unix()}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := sink.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
}
