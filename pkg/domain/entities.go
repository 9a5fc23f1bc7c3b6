// Package domain defines the kitty registry records, value types, persistence
// contracts and rule evaluation primitives used by kittycore.
package domain

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// EntityType identifies the type of record stored in the registry.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityKitty identifies a kitty record (genome and price).
	EntityKitty EntityType = "kitty"
	// EntityOwner identifies an ownership record.
	EntityOwner EntityType = "owner"
	// EntityCounter identifies the next-identifier counter.
	EntityCounter EntityType = "kitties_count"
)

// KittyID is the sequential registry key. Zero is never issued.
type KittyID uint32

// MaxKittyID is the largest representable identifier. Once the counter reaches
// it no further kitties can be issued.
const MaxKittyID KittyID = math.MaxUint32

func (id KittyID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseKittyID parses a base-10 identifier.
func ParseKittyID(raw string) (KittyID, error) {
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse kitty id %q: %w", raw, err)
	}
	return KittyID(v), nil
}

// DNALen is the fixed genome size in bytes.
const DNALen = 16

// DNA is the immutable genetic fingerprint of a kitty.
type DNA [DNALen]byte

func (d DNA) String() string {
	return hex.EncodeToString(d[:])
}

// MarshalJSON encodes the genome as a hex string.
func (d DNA) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a hex string of exactly DNALen bytes.
func (d *DNA) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDNA(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDNA decodes a hex encoded genome.
func ParseDNA(s string) (DNA, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return DNA{}, fmt.Errorf("decode dna: %w", err)
	}
	if len(raw) != DNALen {
		return DNA{}, fmt.Errorf("dna must be %d bytes, got %d", DNALen, len(raw))
	}
	var d DNA
	copy(d[:], raw)
	return d, nil
}

// AccountID identifies a ledger account and registry owner.
type AccountID string

// Kitty is a registry entry. DNA never changes after creation; Price is nil
// when the kitty is not listed for sale.
type Kitty struct {
	ID    KittyID  `json:"id"`
	DNA   DNA      `json:"dna"`
	Price *Balance `json:"price,omitempty"`
}

// Listed reports whether the kitty currently has a sale price.
func (k Kitty) Listed() bool {
	return k.Price != nil
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Change describes a mutation applied to a record during a transaction.
type Change struct {
	Entity  EntityType
	Action  Action
	KittyID KittyID
	Before  any
	After   any
}

// Action indicates the type of modification performed.
type Action string

// Change actions captured in the transaction change set. Records are never
// deleted, so there is no delete action.
const (
	// ActionCreate indicates a record was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates a record was updated.
	ActionUpdate Action = "update"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	KittyID  KittyID
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
