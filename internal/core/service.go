package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kittycore/internal/dna"
	"kittycore/pkg/domain"
)

// Operation names used for logging, metrics, tracing and audit.
const (
	OpCreate   = "create_kitty"
	OpBreed    = "breed_kitty"
	OpSetPrice = "set_price"
	OpBuy      = "buy_kitty"
	OpTransfer = "transfer_kitty"
)

var errCapabilityMissing = errors.New("core: capability not configured")

// Capabilities bundles the external collaborators consumed by the entry points.
type Capabilities struct {
	Randomness domain.Randomness
	Blocks     domain.BlockNumberProvider
	Currency   domain.Currency
}

// Service exposes the registry entry points. Every mutating call runs as one
// store transaction and emits its notification only after the commit.
type Service struct {
	store   PersistentStore
	caps    Capabilities
	events  domain.EventSink
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
	audit   AuditRecorder
	clock   Clock
}

// ServiceOption customises a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	events  domain.EventSink
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
	audit   AuditRecorder
	clock   Clock
}

// WithEventSink routes notifications to sink.
func WithEventSink(sink domain.EventSink) ServiceOption {
	return func(o *serviceOptions) {
		if sink != nil {
			o.events = sink
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetricsRecorder sets the metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(t Tracer) ServiceOption {
	return func(o *serviceOptions) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithAuditRecorder sets the audit recorder.
func WithAuditRecorder(a AuditRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if a != nil {
			o.audit = a
		}
	}
}

// WithClock overrides the time source.
func WithClock(c Clock) ServiceOption {
	return func(o *serviceOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		events:  discardSink{},
		logger:  noopLogger{},
		metrics: noopMetrics{},
		tracer:  noopTracer{},
		audit:   noopAudit{},
		clock:   systemClock{},
	}
}

type discardSink struct{}

func (discardSink) Publish(context.Context, domain.Event) error { return nil }

// NewService constructs a service backed by the supplied store and capabilities.
func NewService(store PersistentStore, caps Capabilities, opts ...ServiceOption) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Service{
		store:   store,
		caps:    caps,
		events:  o.events,
		logger:  o.logger,
		metrics: o.metrics,
		tracer:  o.tracer,
		audit:   o.audit,
		clock:   o.clock,
	}
}

// NewInMemoryService creates a service over a fresh in-memory store.
func NewInMemoryService(engine *RulesEngine, caps Capabilities, opts ...ServiceOption) *Service {
	return NewService(NewMemoryStore(engine), caps, opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// Create mints a kitty with a fresh genome owned by the caller.
func (s *Service) Create(ctx context.Context, origin Origin) (KittyID, error) {
	who, err := origin.EnsureSigned()
	if err != nil {
		return 0, err
	}
	var created KittyID
	err = s.run(ctx, OpCreate, who, &created, func(tx Transaction) error {
		id, err := nextKittyID(tx)
		if err != nil {
			return err
		}
		genome, err := s.generateDNA()
		if err != nil {
			return err
		}
		if _, err := tx.InsertKitty(Kitty{ID: id, DNA: genome}, who); err != nil {
			return err
		}
		created = id
		return tx.SetKittiesCount(id + 1)
	})
	if err != nil {
		return 0, err
	}
	s.publish(ctx, Event{Kind: domain.EventKittyCreated, Who: who, KittyID: created})
	return created, nil
}

// Breed mints a kitty whose genome combines parents a and b. The caller need
// not own either parent.
func (s *Service) Breed(ctx context.Context, origin Origin, a, b KittyID) (KittyID, error) {
	who, err := origin.EnsureSigned()
	if err != nil {
		return 0, err
	}
	var created KittyID
	err = s.run(ctx, OpBreed, who, &created, func(tx Transaction) error {
		if a == b {
			return domain.ErrIdenticalParents
		}
		parentA, ok := tx.FindKitty(a)
		if !ok {
			return domain.UnknownKittyError(a)
		}
		parentB, ok := tx.FindKitty(b)
		if !ok {
			return domain.UnknownKittyError(b)
		}
		id, err := nextKittyID(tx)
		if err != nil {
			return err
		}
		mask, err := s.generateDNA()
		if err != nil {
			return err
		}
		child := Kitty{ID: id, DNA: dna.Combine(mask, parentA.DNA, parentB.DNA)}
		if _, err := tx.InsertKitty(child, who); err != nil {
			return err
		}
		created = id
		return tx.SetKittiesCount(id + 1)
	})
	if err != nil {
		return 0, err
	}
	s.publish(ctx, Event{Kind: domain.EventKittyBred, Who: who, KittyID: created, ParentA: a, ParentB: b})
	return created, nil
}

// SetPrice lists the caller's kitty for sale.
func (s *Service) SetPrice(ctx context.Context, origin Origin, id KittyID, price Balance) error {
	who, err := origin.EnsureSigned()
	if err != nil {
		return err
	}
	err = s.run(ctx, OpSetPrice, who, &id, func(tx Transaction) error {
		if _, ok := tx.FindKitty(id); !ok {
			return domain.UnknownKittyError(id)
		}
		if owner, _ := tx.FindOwner(id); owner != who {
			return domain.ErrNotOwner
		}
		if !price.IsPositive() {
			return domain.ErrPriceMustBePositive
		}
		_, err := tx.UpdateKitty(id, func(k *Kitty) error {
			k.Price = price.Ptr()
			return nil
		})
		return err
	})
	if err != nil {
		return err
	}
	s.publish(ctx, Event{Kind: domain.EventPriceSet, Who: who, KittyID: id, Price: price.Ptr()})
	return nil
}

// Buy purchases a listed kitty at its price. Ownership moves and the price is
// cleared in the same transaction whose final commit step is the funds
// transfer from buyer to seller; a ledger refusal leaves the registry as it
// was. An owner buying their own kitty only clears the listing.
func (s *Service) Buy(ctx context.Context, origin Origin, id KittyID) error {
	who, err := origin.EnsureSigned()
	if err != nil {
		return err
	}
	if s.caps.Currency == nil {
		return fmt.Errorf("%w: currency", errCapabilityMissing)
	}
	var (
		seller AccountID
		price  Balance
	)
	err = s.run(ctx, OpBuy, who, &id, func(tx Transaction) error {
		k, ok := tx.FindKitty(id)
		if !ok {
			return domain.UnknownKittyError(id)
		}
		if !k.Listed() {
			return domain.ErrNoPriceSet
		}
		price = *k.Price
		free, err := s.caps.Currency.FreeBalance(ctx, who)
		if err != nil {
			return fmt.Errorf("free balance: %w", err)
		}
		if free.LessThan(price) {
			return domain.ErrInsufficientFunds
		}
		seller, _ = tx.FindOwner(id)
		if err := tx.SetOwner(id, who); err != nil {
			return err
		}
		if _, err := tx.UpdateKitty(id, func(k *Kitty) error {
			k.Price = nil
			return nil
		}); err != nil {
			return err
		}
		from, to, amount := who, seller, price
		tx.OnCommit(func(ctx context.Context) error {
			return s.caps.Currency.Transfer(ctx, from, to, amount, domain.KeepAlive)
		})
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, Event{Kind: domain.EventKittySold, Who: who, Counterparty: seller, KittyID: id, Price: price.Ptr()})
	return nil
}

// Transfer gives the caller's kitty to another account and clears any
// listing.
func (s *Service) Transfer(ctx context.Context, origin Origin, to AccountID, id KittyID) error {
	who, err := origin.EnsureSigned()
	if err != nil {
		return err
	}
	err = s.run(ctx, OpTransfer, who, &id, func(tx Transaction) error {
		if _, ok := tx.FindKitty(id); !ok {
			return domain.UnknownKittyError(id)
		}
		if owner, _ := tx.FindOwner(id); owner != who {
			return domain.ErrNotOwner
		}
		if to == "" {
			return domain.ErrInvalidAccount
		}
		if to == who {
			return domain.ErrCannotTransferToSelf
		}
		if err := tx.SetOwner(id, to); err != nil {
			return err
		}
		_, err := tx.UpdateKitty(id, func(k *Kitty) error {
			k.Price = nil
			return nil
		})
		return err
	})
	if err != nil {
		return err
	}
	s.publish(ctx, Event{Kind: domain.EventKittyTransferred, Who: who, Counterparty: to, KittyID: id})
	return nil
}

// Kitty returns the committed record for id.
func (s *Service) Kitty(ctx context.Context, id KittyID) (Kitty, error) {
	var out Kitty
	err := s.store.View(ctx, func(v TransactionView) error {
		k, ok := v.FindKitty(id)
		if !ok {
			return domain.UnknownKittyError(id)
		}
		out = k
		return nil
	})
	return out, err
}

// Owner returns the committed owner of id.
func (s *Service) Owner(ctx context.Context, id KittyID) (AccountID, error) {
	var out AccountID
	err := s.store.View(ctx, func(v TransactionView) error {
		owner, ok := v.FindOwner(id)
		if !ok {
			return domain.UnknownKittyError(id)
		}
		out = owner
		return nil
	})
	return out, err
}

// KittiesCount returns the next id to be issued; false means no kitty was
// ever issued.
func (s *Service) KittiesCount(ctx context.Context) (KittyID, bool, error) {
	var (
		count KittyID
		ok    bool
	)
	err := s.store.View(ctx, func(v TransactionView) error {
		count, ok = v.KittiesCount()
		return nil
	})
	return count, ok, err
}

// FreeBalance reports who's spendable funds on the configured ledger.
func (s *Service) FreeBalance(ctx context.Context, who AccountID) (Balance, error) {
	if s.caps.Currency == nil {
		return Balance{}, fmt.Errorf("%w: currency", errCapabilityMissing)
	}
	return s.caps.Currency.FreeBalance(ctx, who)
}

// nextKittyID reserves the id for a new kitty. A missing counter issues 1; a
// counter at the maximum id overflows.
func nextKittyID(tx Transaction) (KittyID, error) {
	count, ok := tx.KittiesCount()
	if !ok {
		return 1, nil
	}
	if count == domain.MaxKittyID {
		return 0, domain.ErrKittiesCountOverflow
	}
	return count, nil
}

func (s *Service) generateDNA() (domain.DNA, error) {
	if s.caps.Randomness == nil || s.caps.Blocks == nil {
		return domain.DNA{}, fmt.Errorf("%w: randomness", errCapabilityMissing)
	}
	return dna.Generate(s.caps.Randomness, s.caps.Blocks)
}

func (s *Service) currentBlock() domain.BlockNumber {
	if s.caps.Blocks == nil {
		return 0
	}
	return s.caps.Blocks.BlockNumber()
}

func (s *Service) run(ctx context.Context, op string, who AccountID, id *KittyID, fn func(Transaction) error) error {
	ctx, span := s.tracer.Start(ctx, op)
	start := s.clock.Now()
	res, err := s.store.RunInTransaction(ctx, fn)
	duration := s.clock.Now().Sub(start)
	s.metrics.Observe(ctx, op, err == nil, duration)
	span.End(err)
	s.recordAudit(ctx, op, who, *id, duration, err)
	for _, v := range res.Violations {
		s.logger.Warn("rule violation", "operation", op, "rule", v.Rule, "severity", v.Severity, "message", v.Message)
	}
	if err != nil {
		s.logger.Error("operation failed", "operation", op, "who", who, "code", domain.CodeOf(err), "error", err)
		return err
	}
	s.logger.Debug("operation committed", "operation", op, "who", who, "kitty_id", *id, "duration", duration)
	return nil
}

func (s *Service) publish(ctx context.Context, event Event) {
	event.Block = s.currentBlock()
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", "kind", event.Kind, "kitty_id", event.KittyID, "error", err)
	}
}

type auditDescriptor struct {
	entity EntityType
	action Action
}

var auditOperations = map[string]auditDescriptor{
	OpCreate:   {entity: EntityKitty, action: ActionCreate},
	OpBreed:    {entity: EntityKitty, action: ActionCreate},
	OpSetPrice: {entity: EntityKitty, action: ActionUpdate},
	OpBuy:      {entity: EntityOwner, action: ActionUpdate},
	OpTransfer: {entity: EntityOwner, action: ActionUpdate},
}

func (s *Service) recordAudit(ctx context.Context, op string, who AccountID, id KittyID, duration time.Duration, err error) {
	desc, ok := auditOperations[op]
	if !ok {
		return
	}
	entry := AuditEntry{
		Operation: op,
		Entity:    desc.entity,
		Action:    desc.action,
		KittyID:   id,
		Actor:     who,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)
}
