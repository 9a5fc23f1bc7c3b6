package domain

import "context"

// CommitHook runs after rule evaluation and before the staged state becomes
// visible. A hook error aborts the transaction.
type CommitHook func(ctx context.Context) error

// Transaction exposes the registry operations that a persistence
// implementation must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	KittiesCount() (KittyID, bool)
	SetKittiesCount(next KittyID) error
	FindKitty(id KittyID) (Kitty, bool)
	FindOwner(id KittyID) (AccountID, bool)
	// InsertKitty stores a new kitty together with its first owner.
	InsertKitty(k Kitty, owner AccountID) (Kitty, error)
	// UpdateKitty mutates price; attempts to change ID or DNA are rejected.
	UpdateKitty(id KittyID, mutator func(*Kitty) error) (Kitty, error)
	SetOwner(id KittyID, owner AccountID) error
	// OnCommit registers an external side effect that must succeed for the
	// transaction to commit. Hooks run in registration order.
	OnCommit(hook CommitHook)
}

// TransactionView provides read-only point lookups for rules and readers.
type TransactionView interface {
	KittiesCount() (KittyID, bool)
	FindKitty(id KittyID) (Kitty, bool)
	FindOwner(id KittyID) (AccountID, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetKitty(id KittyID) (Kitty, bool)
	GetOwner(id KittyID) (AccountID, bool)
	KittiesCount() (KittyID, bool)
}
