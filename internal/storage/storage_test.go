package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func testStorage(t *testing.T, store Storage) {
	t.Helper()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	records := []WorldRecord{
		{InstanceName: "alpha", Name: "Strahd", LastSeen: base, Background: "/img/a.webp"},
		{InstanceName: "beta", Name: "Lost Mines", LastSeen: base.Add(time.Hour)},
		{InstanceName: "alpha", Name: "Avernus", LastSeen: base.Add(-time.Hour)},
	}
	for _, rec := range records {
		if err := store.Upsert(rec); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	list, err := store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 records, got %d", len(list))
	}
	if list[0].Name != "Lost Mines" || list[1].Name != "Strahd" || list[2].Name != "Avernus" {
		t.Errorf("unexpected order: %s, %s, %s", list[0].Name, list[1].Name, list[2].Name)
	}

	// Re-sighting the same world replaces the record instead of duplicating it.
	if err := store.Upsert(WorldRecord{
		InstanceName: "alpha", Name: "Avernus",
		LastSeen: base.Add(2 * time.Hour), Background: "/img/b.webp",
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	list, err = store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 records after re-sighting, got %d", len(list))
	}
	if list[0].Name != "Avernus" || list[0].Background != "/img/b.webp" {
		t.Errorf("re-sighted record not first: %+v", list[0])
	}

	ok, err := store.Delete("beta", "Lost Mines")
	if err != nil || !ok {
		t.Fatalf("delete existing: ok=%v err=%v", ok, err)
	}
	ok, err = store.Delete("beta", "Lost Mines")
	if err != nil || ok {
		t.Fatalf("delete missing: ok=%v err=%v", ok, err)
	}

	if err := store.Cleanup(base.Add(time.Minute)); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	list, err = store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Avernus" {
		t.Fatalf("expected only Avernus after cleanup, got %d records", len(list))
	}
}

func TestMemoryStorage(t *testing.T) {
	store := NewMemoryStorage()
	defer store.Close()

	testStorage(t, store)
}

func TestSQLiteStorage(t *testing.T) {
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "worlds.db"))
	if err != nil {
		t.Fatalf("create storage: %v", err)
	}
	defer store.Close()

	testStorage(t, store)
}
