package registry

import (
	"log/slog"
	"testing"

	testhelpers "mercator-hq/ganymede/internal/providers"
)

func newTestRegistry() *Registry {
	return New(slog.Default())
}

func TestRegisterAndHas(t *testing.T) {
	r := newTestRegistry()

	if err := r.Register(testhelpers.NewFakeProvider("ollama-local", true)); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if !r.Has("ollama-local") {
		t.Error("expected provider to be registered")
	}
	if r.Has("missing") {
		t.Error("did not expect unknown id to be registered")
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 provider, got %d", r.Len())
	}
}

func TestRegisterNil(t *testing.T) {
	r := newTestRegistry()

	if err := r.Register(nil); err == nil {
		t.Error("expected error registering nil provider")
	}
}

func TestRegisterReplacesAndClosesOld(t *testing.T) {
	r := newTestRegistry()

	old := testhelpers.NewFakeProvider("p1", true)
	if err := r.Register(old); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := r.Register(testhelpers.NewFakeProvider("p1", true)); err != nil {
		t.Fatalf("re-register failed: %v", err)
	}

	if old.CloseCount() != 1 {
		t.Errorf("expected replaced provider to be closed once, got %d", old.CloseCount())
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 provider after replacement, got %d", r.Len())
	}
}

func TestListPreservesRegistrationOrder(t *testing.T) {
	r := newTestRegistry()

	for _, id := range []string{"c", "a", "b"} {
		if err := r.Register(testhelpers.NewFakeProvider(id, true)); err != nil {
			t.Fatalf("register %q failed: %v", id, err)
		}
	}

	ids := r.List()
	want := []string{"c", "a", "b"}
	if len(ids) != len(want) {
		t.Fatalf("expected %d ids, got %d", len(want), len(ids))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], ids[i])
		}
	}
}

func TestUnregister(t *testing.T) {
	r := newTestRegistry()

	p := testhelpers.NewFakeProvider("p1", true)
	if err := r.Register(p); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := r.SetActive("p1"); err != nil {
		t.Fatalf("set active failed: %v", err)
	}

	if err := r.Unregister("p1"); err != nil {
		t.Fatalf("unregister failed: %v", err)
	}

	if r.Has("p1") {
		t.Error("expected provider to be removed")
	}
	if p.CloseCount() != 1 {
		t.Errorf("expected removed provider to be closed, got %d closes", p.CloseCount())
	}
	if _, ok := r.Active(); ok {
		t.Error("expected no active provider after removing the active one")
	}
}

func TestUnregisterUnknown(t *testing.T) {
	r := newTestRegistry()

	if err := r.Unregister("missing"); err == nil {
		t.Error("expected error unregistering unknown id")
	}
}

func TestSetActive(t *testing.T) {
	r := newTestRegistry()

	if err := r.Register(testhelpers.NewFakeProvider("p1", true)); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := r.Register(testhelpers.NewFakeProvider("p2", true)); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := r.SetActive("p2"); err != nil {
		t.Fatalf("set active failed: %v", err)
	}

	active, ok := r.Active()
	if !ok {
		t.Fatal("expected an active provider")
	}
	if active.Name() != "p2" {
		t.Errorf("expected active provider p2, got %q", active.Name())
	}
	if r.ActiveID() != "p2" {
		t.Errorf("expected active id p2, got %q", r.ActiveID())
	}
}

func TestSetActiveUnknownLeavesSelection(t *testing.T) {
	r := newTestRegistry()

	if err := r.Register(testhelpers.NewFakeProvider("p1", true)); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := r.SetActive("p1"); err != nil {
		t.Fatalf("set active failed: %v", err)
	}

	if err := r.SetActive("missing"); err == nil {
		t.Error("expected error selecting unknown id")
	}
	if r.ActiveID() != "p1" {
		t.Errorf("expected selection to stay p1, got %q", r.ActiveID())
	}
}

func TestNextAvailable(t *testing.T) {
	r := newTestRegistry()

	for _, id := range []string{"p1", "p2", "p3"} {
		if err := r.Register(testhelpers.NewFakeProvider(id, true)); err != nil {
			t.Fatalf("register %q failed: %v", id, err)
		}
	}

	next, ok := r.NextAvailable()
	if !ok || next.Name() != "p1" {
		t.Fatalf("expected first registered provider p1, got %v ok=%v", next, ok)
	}

	next, ok = r.NextAvailable("p1")
	if !ok || next.Name() != "p2" {
		t.Fatalf("expected p2 when excluding p1, got %v ok=%v", next, ok)
	}

	next, ok = r.NextAvailable("p1", "p2", "p3")
	if ok {
		t.Fatalf("expected no fallback when all excluded, got %v", next.Name())
	}
}

func TestNextAvailableEmpty(t *testing.T) {
	r := newTestRegistry()

	if _, ok := r.NextAvailable(); ok {
		t.Error("expected no fallback from an empty registry")
	}
}

func TestCloseClearsRegistry(t *testing.T) {
	r := newTestRegistry()

	p := testhelpers.NewFakeProvider("p1", true)
	if err := r.Register(p); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	if r.Len() != 0 {
		t.Errorf("expected empty registry after close, got %d", r.Len())
	}
	if p.CloseCount() != 1 {
		t.Errorf("expected provider closed once, got %d", p.CloseCount())
	}
}
