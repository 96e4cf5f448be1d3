package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starford/metacrate/internal/apperr"
	"github.com/starford/metacrate/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "metacrate-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM settings`).Scan(&count); err != nil {
		t.Fatalf("settings table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM crates`).Scan(&count); err != nil {
		t.Fatalf("crates table missing: %v", err)
	}
}

func TestSettings_AbsentVersusFalse(t *testing.T) {
	db := testDB(t)
	s := db.Settings("metacrate:plugin")
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "/w/Dataset"); err != nil || ok {
		t.Fatalf("absent key: ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "/w/Dataset", false); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := s.Get(ctx, "/w/Dataset")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if v != false {
		t.Errorf("value = %v, want false", v)
	}
}

func TestSettings_Overwrite(t *testing.T) {
	db := testDB(t)
	s := db.Settings("p")
	ctx := context.Background()

	_ = s.Set(ctx, "/w-title", "first")
	_ = s.Set(ctx, "/w-title", "second")
	v, _, _ := s.Get(ctx, "/w-title")
	if v != "second" {
		t.Errorf("value = %v, want second", v)
	}
}

func TestSettings_ScopedByPlugin(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_ = db.Settings("a").Set(ctx, "k", "from-a")

	if _, ok, _ := db.Settings("b").Get(ctx, "k"); ok {
		t.Error("plugin b must not see plugin a's key")
	}
}

func TestInsertAndGetCrate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	rec := models.CrateRecord{ID: "c1", Checksum: "abc", Body: []byte(`{"@graph":[]}`)}
	if err := db.InsertCrate(ctx, rec); err != nil {
		t.Fatalf("InsertCrate: %v", err)
	}
	got, err := db.GetCrate(ctx, "c1")
	if err != nil {
		t.Fatalf("GetCrate: %v", err)
	}
	if got.Checksum != "abc" || string(got.Body) != `{"@graph":[]}` {
		t.Errorf("got = %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}
}

func TestGetCrate_NotFound(t *testing.T) {
	db := testDB(t)
	_, err := db.GetCrate(context.Background(), "nope")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestInsertCrate_DuplicateID(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	rec := models.CrateRecord{ID: "dup", Checksum: "x", Body: []byte("{}")}
	_ = db.InsertCrate(ctx, rec)
	if err := db.InsertCrate(ctx, rec); err == nil {
		t.Error("expected error for duplicate id")
	}
}

func TestListCrates_NewestFirst(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		_ = db.InsertCrate(ctx, models.CrateRecord{
			ID: id, Checksum: id, Body: []byte("{}"), CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	recs, total, err := db.ListCrates(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ListCrates: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(recs) != 2 || recs[0].ID != "new" || recs[1].ID != "mid" {
		t.Errorf("recs = %+v", recs)
	}
	if recs[0].Body != nil {
		t.Error("list must not load bodies")
	}
}
