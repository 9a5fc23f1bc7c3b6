package domain

import "context"

// EventKind names a notification emitted after a successful entry point.
type EventKind string

// Emitted notification kinds.
const (
	EventKittyCreated     EventKind = "kitty_created"
	EventKittyBred        EventKind = "kitty_bred"
	EventPriceSet         EventKind = "price_set"
	EventKittySold        EventKind = "kitty_sold"
	EventKittyTransferred EventKind = "kitty_transferred"
)

// Event is a notification for downstream observers. Fields not relevant to
// a kind are left zero.
//
//	kitty_created:     Who, KittyID
//	kitty_bred:        Who, ParentA, ParentB, KittyID (offspring)
//	price_set:         Who, KittyID, Price
//	kitty_sold:        Who (buyer), Counterparty (seller), KittyID, Price
//	kitty_transferred: Who (from), Counterparty (to), KittyID
type Event struct {
	Kind         EventKind   `json:"kind"`
	Block        BlockNumber `json:"block"`
	Who          AccountID   `json:"who"`
	Counterparty AccountID   `json:"counterparty,omitempty"`
	KittyID      KittyID     `json:"kitty_id"`
	ParentA      KittyID     `json:"parent_a,omitempty"`
	ParentB      KittyID     `json:"parent_b,omitempty"`
	Price        *Balance    `json:"price,omitempty"`
}

// EventSink receives registry notifications. Publishing happens after the
// registry commit; a sink error never rolls back the operation.
type EventSink interface {
	Publish(ctx context.Context, event Event) error
}
