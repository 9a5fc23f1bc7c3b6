package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"kittycore/pkg/domain"
)

func createKitty(t *testing.T, store *Store, id domain.KittyID, owner domain.AccountID) {
	t.Helper()
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.InsertKitty(domain.Kitty{ID: id, DNA: domain.DNA{byte(id), 0xee}}, owner); err != nil {
			return err
		}
		return tx.SetKittiesCount(id + 1)
	}); err != nil {
		t.Fatalf("create kitty: %v", err)
	}
}

func TestSQLiteStorePersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	createKitty(t, store, 1, "alice")
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateKitty(1, func(k *domain.Kitty) error {
			k.Price = domain.NewBalance(7).Ptr()
			return nil
		})
		return err
	}); err != nil {
		t.Fatalf("set price: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("db file missing: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reload sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	k, ok := reloaded.GetKitty(1)
	if !ok {
		t.Fatalf("expected persisted kitty")
	}
	if k.DNA != (domain.DNA{1, 0xee}) {
		t.Fatalf("unexpected dna %s", k.DNA)
	}
	if k.Price == nil || k.Price.String() != "7" {
		t.Fatalf("expected price 7, got %+v", k.Price)
	}
	if owner, _ := reloaded.GetOwner(1); owner != "alice" {
		t.Fatalf("expected alice, got %q", owner)
	}
	if count, ok := reloaded.KittiesCount(); !ok || count != 2 {
		t.Fatalf("expected counter 2, got %d %v", count, ok)
	}
	if reloaded.Path() != path {
		t.Fatalf("expected path %s, got %s", path, reloaded.Path())
	}
	if reloaded.DB() == nil {
		t.Fatalf("expected db handle")
	}
}

func TestSQLiteStoreSkipsPersistOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	boom := errors.New("boom")
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.InsertKitty(domain.Kitty{ID: 1}, "alice"); err != nil {
			return err
		}
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	var rows int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM state`).Scan(&rows); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rows != 0 {
		t.Fatalf("expected no snapshot rows, got %d", rows)
	}
}

func reassign(store *Store, id domain.KittyID, to domain.AccountID, hook domain.CommitHook) error {
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if err := tx.SetOwner(id, to); err != nil {
			return err
		}
		tx.OnCommit(hook)
		return nil
	})
	return err
}

func TestSQLiteStoreWriteFailureAbortsTransaction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	createKitty(t, store, 1, "alice")
	_ = store.DB().Close()

	hookRan := false
	err = reassign(store, 1, "dave", func(context.Context) error {
		hookRan = true
		return nil
	})
	if err == nil {
		t.Fatalf("expected write error on closed db")
	}
	if hookRan {
		t.Fatalf("commit hook must not run when the snapshot cannot be written")
	}
	if owner, _ := store.GetOwner(1); owner != "alice" {
		t.Fatalf("in-memory state changed after failed write: %q", owner)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })
	if owner, _ := reopened.GetOwner(1); owner != "alice" {
		t.Fatalf("stored owner changed after failed write: %q", owner)
	}
}

func TestSQLiteStoreHookFailureRollsBackWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	createKitty(t, store, 1, "alice")
	boom := errors.New("ledger refused")
	if err := reassign(store, 1, "dave", func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected hook error, got %v", err)
	}
	if owner, _ := store.GetOwner(1); owner != "alice" {
		t.Fatalf("in-memory owner changed: %q", owner)
	}
	// The rolled back write must not hold the database.
	createKitty(t, store, 2, "bob")
	_ = store.Close()

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })
	if owner, _ := reopened.GetOwner(1); owner != "alice" {
		t.Fatalf("stored owner changed after hook failure: %q", owner)
	}
	if owner, _ := reopened.GetOwner(2); owner != "bob" {
		t.Fatalf("expected later commit to persist, got %q", owner)
	}
}

func TestSQLiteStoreRejectsCorruptBucket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	if _, err := store.DB().Exec(`INSERT INTO state(bucket,payload) VALUES('kitties', '{')`); err != nil {
		t.Fatalf("seed corrupt bucket: %v", err)
	}
	_ = store.Close()
	if _, err := NewStore(path, nil); err == nil {
		t.Fatalf("expected decode error for corrupt bucket")
	}
}
