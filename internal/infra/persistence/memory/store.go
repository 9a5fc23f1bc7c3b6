// Package memory provides an in-memory implementation of the kitty registry
// store used for tests, ephemeral environments and as the transactional core
// of the durable backends.
package memory

import (
	"context"
	"fmt"
	"sync"

	"kittycore/pkg/domain"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Kitty aliases domain.Kitty for in-memory persistence operations.
	Kitty = domain.Kitty
	// KittyID aliases domain.KittyID.
	KittyID = domain.KittyID
	// AccountID aliases domain.AccountID.
	AccountID = domain.AccountID
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	counter    KittyID
	hasCounter bool
	kitties    map[KittyID]Kitty
	owners     map[KittyID]AccountID
}

// Snapshot captures a point-in-time clone of the store state. The three
// fields are the persisted buckets: counter, kitties by id and owners by id.
type Snapshot struct {
	KittiesCount *KittyID              `json:"kitties_count,omitempty"`
	Kitties      map[KittyID]Kitty     `json:"kitties"`
	Owners       map[KittyID]AccountID `json:"owners"`
}

func newMemoryState() memoryState {
	return memoryState{
		kitties: make(map[KittyID]Kitty),
		owners:  make(map[KittyID]AccountID),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	cloned.counter = s.counter
	cloned.hasCounter = s.hasCounter
	for k, v := range s.kitties {
		cloned.kitties[k] = cloneKitty(v)
	}
	for k, v := range s.owners {
		cloned.owners[k] = v
	}
	return cloned
}

func cloneKitty(k Kitty) Kitty {
	cp := k
	if k.Price != nil {
		cp.Price = k.Price.Ptr()
	}
	return cp
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Kitties: make(map[KittyID]Kitty, len(state.kitties)),
		Owners:  make(map[KittyID]AccountID, len(state.owners)),
	}
	if state.hasCounter {
		counter := state.counter
		s.KittiesCount = &counter
	}
	for k, v := range state.kitties {
		s.Kitties[k] = cloneKitty(v)
	}
	for k, v := range state.owners {
		s.Owners[k] = v
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	if s.KittiesCount != nil {
		state.counter = *s.KittiesCount
		state.hasCounter = true
	}
	for k, v := range s.Kitties {
		v.ID = k
		state.kitties[k] = cloneKitty(v)
	}
	for k, v := range s.Owners {
		state.owners[k] = v
	}
	return state
}

// Store provides an in-memory transactional store for the kitty registry.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
	}
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	hooks   []domain.CommitHook
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

func (v transactionView) KittiesCount() (KittyID, bool) {
	return v.state.counter, v.state.hasCounter
}

func (v transactionView) FindKitty(id KittyID) (Kitty, bool) {
	k, ok := v.state.kitties[id]
	if !ok {
		return Kitty{}, false
	}
	return cloneKitty(k), true
}

func (v transactionView) FindOwner(id KittyID) (AccountID, bool) {
	owner, ok := v.state.owners[id]
	return owner, ok
}

// Stage is a prepared durable write of a transaction's resulting state.
// *sql.Tx satisfies it.
type Stage interface {
	Commit() error
	Rollback() error
}

// Stager prepares a durable write of the staged snapshot without committing
// it.
type Stager func(ctx context.Context, staged Snapshot) (Stage, error)

// RunInTransaction executes fn within a transactional copy of the store
// state. After fn succeeds the rules engine runs, then commit hooks run in
// order; only if all of them succeed does the copy replace the live state.
// The write lock is held throughout, so transactions are applied one at a
// time.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	return s.RunStaged(ctx, fn, nil)
}

// RunStaged is RunInTransaction with a durable write prepared by stager
// between rule evaluation and the commit hooks. The stage is rolled back if a
// hook fails and committed before the live state is replaced, so a failed
// write leaves both the store and the hooks' side effects untouched.
func (s *Store) RunStaged(ctx context.Context, fn func(tx Transaction) error, stager Stager) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	var stage Stage
	if stager != nil {
		st, err := stager(ctx, snapshotFromMemoryState(tx.state))
		if err != nil {
			return result, fmt.Errorf("stage snapshot: %w", err)
		}
		stage = st
	}

	for _, hook := range tx.hooks {
		if err := hook(ctx); err != nil {
			if stage != nil {
				_ = stage.Rollback()
			}
			return result, err
		}
	}

	if stage != nil {
		if err := stage.Commit(); err != nil {
			return result, fmt.Errorf("commit snapshot: %w", err)
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

// helper to record and append change entries.
func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

func (tx *transaction) KittiesCount() (KittyID, bool) {
	return tx.state.counter, tx.state.hasCounter
}

// SetKittiesCount advances the counter. It never moves backwards.
func (tx *transaction) SetKittiesCount(next KittyID) error {
	if tx.state.hasCounter && next < tx.state.counter {
		return fmt.Errorf("kitties count cannot decrease from %d to %d", tx.state.counter, next)
	}
	var before any
	if tx.state.hasCounter {
		before = tx.state.counter
	}
	tx.state.counter = next
	tx.state.hasCounter = true
	tx.recordChange(Change{Entity: domain.EntityCounter, Action: domain.ActionUpdate, Before: before, After: next})
	return nil
}

func (tx *transaction) FindKitty(id KittyID) (Kitty, bool) {
	return newTransactionView(&tx.state).FindKitty(id)
}

func (tx *transaction) FindOwner(id KittyID) (AccountID, bool) {
	owner, ok := tx.state.owners[id]
	return owner, ok
}

// InsertKitty stores a new kitty and its first owner.
func (tx *transaction) InsertKitty(k Kitty, owner AccountID) (Kitty, error) {
	if k.ID == 0 {
		return Kitty{}, fmt.Errorf("kitty id 0 is reserved")
	}
	if owner == "" {
		return Kitty{}, fmt.Errorf("kitty %d requires an owner", k.ID)
	}
	if _, exists := tx.state.kitties[k.ID]; exists {
		return Kitty{}, fmt.Errorf("kitty %d already exists", k.ID)
	}
	if k.Price != nil && !k.Price.IsPositive() {
		return Kitty{}, domain.ErrPriceMustBePositive
	}
	tx.state.kitties[k.ID] = cloneKitty(k)
	tx.state.owners[k.ID] = owner
	tx.recordChange(Change{Entity: domain.EntityKitty, Action: domain.ActionCreate, KittyID: k.ID, After: cloneKitty(k)})
	tx.recordChange(Change{Entity: domain.EntityOwner, Action: domain.ActionCreate, KittyID: k.ID, After: owner})
	return cloneKitty(k), nil
}

// UpdateKitty mutates a kitty using the provided mutator function. The ID and
// DNA are immutable.
func (tx *transaction) UpdateKitty(id KittyID, mutator func(*Kitty) error) (Kitty, error) {
	current, ok := tx.state.kitties[id]
	if !ok {
		return Kitty{}, domain.UnknownKittyError(id)
	}
	before := cloneKitty(current)
	if err := mutator(&current); err != nil {
		return Kitty{}, err
	}
	if current.ID != id || current.DNA != before.DNA {
		return Kitty{}, fmt.Errorf("kitty %d: id and dna are immutable", id)
	}
	tx.state.kitties[id] = cloneKitty(current)
	tx.recordChange(Change{Entity: domain.EntityKitty, Action: domain.ActionUpdate, KittyID: id, Before: before, After: cloneKitty(current)})
	return cloneKitty(current), nil
}

// SetOwner reassigns ownership of an existing kitty.
func (tx *transaction) SetOwner(id KittyID, owner AccountID) error {
	before, ok := tx.state.owners[id]
	if !ok {
		return domain.UnknownKittyError(id)
	}
	if owner == "" {
		return fmt.Errorf("kitty %d requires an owner", id)
	}
	tx.state.owners[id] = owner
	tx.recordChange(Change{Entity: domain.EntityOwner, Action: domain.ActionUpdate, KittyID: id, Before: before, After: owner})
	return nil
}

// OnCommit registers a hook run after rule evaluation and before the state
// swap.
func (tx *transaction) OnCommit(hook domain.CommitHook) {
	if hook == nil {
		return
	}
	tx.hooks = append(tx.hooks, hook)
}

// Read helpers ---------------------------------------------------------------

// GetKitty retrieves a kitty by ID from committed state.
func (s *Store) GetKitty(id KittyID) (Kitty, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.state.kitties[id]
	if !ok {
		return Kitty{}, false
	}
	return cloneKitty(k), true
}

// GetOwner retrieves the owner of a kitty from committed state.
func (s *Store) GetOwner(id KittyID) (AccountID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.state.owners[id]
	return owner, ok
}

// KittiesCount returns the committed counter; false means no kitty was ever
// issued.
func (s *Store) KittiesCount() (KittyID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.counter, s.state.hasCounter
}
