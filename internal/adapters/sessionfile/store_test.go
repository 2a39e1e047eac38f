package sessionfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/supa-modo/digiplotClassic/internal/domain"
	"github.com/supa-modo/digiplotClassic/internal/ports"
)

func testSession() ports.StoredSession {
	return ports.StoredSession{
		User: domain.User{
			ID:        uuid.New(),
			Role:      domain.RoleTenant,
			Email:     "tenant@example.com",
			FirstName: "Test",
			Tenant:    &domain.TenantProfile{UnitID: uuid.New()},
		},
		Token: "tok-123",
		Role:  domain.RoleTenant,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	want := testSession()
	if err := store.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil {
		t.Fatal("expected a stored session")
	}
	if got.User.ID != want.User.ID || got.Token != want.Token || got.Role != want.Role {
		t.Fatalf("round trip mismatch: got %+v", got)
	}
	if got.User.Tenant == nil || got.User.Tenant.UnitID != want.User.Tenant.UnitID {
		t.Fatalf("tenant profile lost in round trip: %+v", got.User.Tenant)
	}
}

func TestLoadEmptyDirIsNoSession(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no session, got %+v", got)
	}
}

func TestLoadPartialStateIsNoSession(t *testing.T) {
	t.Parallel()

	// Each key missing on its own must read as logged-out.
	for _, missing := range []string{userKey, tokenKey, roleKey} {
		dir := t.TempDir()
		store, err := New(dir)
		if err != nil {
			t.Fatalf("new store: %v", err)
		}
		if err := store.Save(testSession()); err != nil {
			t.Fatalf("save: %v", err)
		}
		if err := os.Remove(filepath.Join(dir, missing)); err != nil {
			t.Fatalf("remove %s: %v", missing, err)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("load with %s missing: %v", missing, err)
		}
		if got != nil {
			t.Fatalf("expected no session with %s missing, got %+v", missing, got)
		}
	}
}

func TestLoadCorruptUserSelfHeals(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Save(testSession()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, userKey), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("corrupt user blob: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no session from corrupt state, got %+v", got)
	}

	// All three keys must be gone, not just the corrupt one.
	for _, key := range []string{userKey, tokenKey, roleKey} {
		if _, err := os.Stat(filepath.Join(dir, key)); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed after self-heal, stat err %v", key, err)
		}
	}
}

func TestClearIsIdempotent(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Save(testSession()); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("first clear: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestSaveOverwritesPreviousSession(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	first := testSession()
	if err := store.Save(first); err != nil {
		t.Fatalf("save first: %v", err)
	}

	second := ports.StoredSession{
		User: domain.User{
			ID:    uuid.New(),
			Role:  domain.RoleLandlord,
			Email: "landlord@example.com",
		},
		Token: "tok-456",
		Role:  domain.RoleLandlord,
	}
	if err := store.Save(second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil || got.User.ID != second.User.ID || got.Role != domain.RoleLandlord {
		t.Fatalf("expected second session, got %+v", got)
	}
}
