package modelcatalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	testhelpers "mercator-hq/ganymede/internal/providers"
	"mercator-hq/ganymede/pkg/providers"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	snapshot := &Snapshot{
		ProviderID: "ollama-local",
		Models: []providers.ModelInfo{
			{Name: "llama3.1:8b", Size: 4661224676},
			{Name: "mistral:7b", Size: 4113301824},
		},
		RefreshedAt: time.Now(),
	}
	if err := store.Save(ctx, snapshot); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := store.Load(ctx, "ollama-local")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected a snapshot")
	}
	if len(loaded.Models) != 2 || loaded.Models[0].Name != "llama3.1:8b" {
		t.Errorf("unexpected models: %+v", loaded.Models)
	}

	// The stored snapshot must not alias the caller's slice.
	snapshot.Models[0].Name = "mutated"
	loaded, _ = store.Load(ctx, "ollama-local")
	if loaded.Models[0].Name != "llama3.1:8b" {
		t.Error("stored snapshot aliases caller data")
	}
}

func TestMemoryStoreLoadMissing(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	loaded, err := store.Load(context.Background(), "missing")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded != nil {
		t.Errorf("expected nil snapshot, got %+v", loaded)
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	snapshot := &Snapshot{
		ProviderID: "ollama-local",
		Models: []providers.ModelInfo{
			{Name: "llama3.1:8b", Size: 4661224676, Family: "llama", IsRunning: true},
		},
		RefreshedAt: time.Now(),
	}
	if err := store.Save(ctx, snapshot); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := store.Load(ctx, "ollama-local")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected a snapshot")
	}
	if loaded.Models[0].Name != "llama3.1:8b" || !loaded.Models[0].IsRunning {
		t.Errorf("unexpected model: %+v", loaded.Models[0])
	}

	// Upsert replaces the previous snapshot.
	snapshot.Models = []providers.ModelInfo{{Name: "mistral:7b"}}
	if err := store.Save(ctx, snapshot); err != nil {
		t.Fatalf("second save failed: %v", err)
	}
	loaded, _ = store.Load(ctx, "ollama-local")
	if len(loaded.Models) != 1 || loaded.Models[0].Name != "mistral:7b" {
		t.Errorf("expected replaced snapshot, got %+v", loaded.Models)
	}

	if err := store.Delete(ctx, "ollama-local"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	loaded, _ = store.Load(ctx, "ollama-local")
	if loaded != nil {
		t.Error("expected snapshot to be deleted")
	}
}

func TestSQLiteStoreList(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	for _, id := range []string{"p1", "p2"} {
		err := store.Save(ctx, &Snapshot{
			ProviderID:  id,
			Models:      []providers.ModelInfo{{Name: "m"}},
			RefreshedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("save %q failed: %v", id, err)
		}
	}

	snapshots, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(snapshots) != 2 {
		t.Errorf("expected 2 snapshots, got %d", len(snapshots))
	}
}

func TestCatalogRefresh(t *testing.T) {
	catalog := NewCatalog(NewMemoryStore(), nil)
	defer catalog.Close()
	ctx := context.Background()

	fake := testhelpers.NewFakeProvider("p1", true)
	fake.SetModels("llama3.1:8b", "mistral:7b")

	if err := catalog.Refresh(ctx, fake); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	models := catalog.Models(ctx, "p1")
	if len(models) != 2 || models[0] != "llama3.1:8b" {
		t.Errorf("unexpected cached models: %v", models)
	}
}

func TestCatalogRefreshKeepsSnapshotOnEmptyEnumeration(t *testing.T) {
	catalog := NewCatalog(NewMemoryStore(), nil)
	defer catalog.Close()
	ctx := context.Background()

	fake := testhelpers.NewFakeProvider("p1", true)
	fake.SetModels("llama3.1:8b")
	if err := catalog.Refresh(ctx, fake); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	// A degraded backend yields an empty enumeration; the cache survives.
	fake.SetModels()
	if err := catalog.Refresh(ctx, fake); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	models := catalog.Models(ctx, "p1")
	if len(models) != 1 || models[0] != "llama3.1:8b" {
		t.Errorf("expected previous snapshot to survive, got %v", models)
	}
}

func TestCatalogModelsUncached(t *testing.T) {
	catalog := NewCatalog(NewMemoryStore(), nil)
	defer catalog.Close()

	if models := catalog.Models(context.Background(), "missing"); len(models) != 0 {
		t.Errorf("expected no models, got %v", models)
	}
}

func TestSchedulerInvalidSchedule(t *testing.T) {
	catalog := NewCatalog(NewMemoryStore(), nil)
	defer catalog.Close()

	s := NewScheduler(catalog, func() []providers.Provider { return nil }, "not a schedule")
	if err := s.Start(context.Background()); err == nil {
		t.Error("expected error for invalid cron schedule")
	}
}

func TestSchedulerEmptyScheduleIsNoop(t *testing.T) {
	catalog := NewCatalog(NewMemoryStore(), nil)
	defer catalog.Close()

	s := NewScheduler(catalog, func() []providers.Provider { return nil }, "")
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if s.IsRunning() {
		t.Error("expected scheduler to stay stopped without a schedule")
	}
}

func TestSchedulerStartStop(t *testing.T) {
	catalog := NewCatalog(NewMemoryStore(), nil)
	defer catalog.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewScheduler(catalog, func() []providers.Provider { return nil }, "0 * * * *")
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if !s.IsRunning() {
		t.Error("expected scheduler to be running")
	}
	if s.NextRun() == nil {
		t.Error("expected a next run time")
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("expected scheduler to stop")
	}
}
