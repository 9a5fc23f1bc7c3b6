package core

import (
	"context"
	"fmt"

	"kittycore/pkg/domain"
)

// Built-in rule names.
const (
	RuleRegistryIntegrity = "registry_integrity"
	RulePricePositive     = "price_positive"
)

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewRegistryIntegrityRule())
	engine.Register(NewPricePositiveRule())
	return engine
}

type registryIntegrityRule struct{}

// NewRegistryIntegrityRule checks that every touched kitty has exactly one
// owner, and that the counter stays ahead of every issued id.
func NewRegistryIntegrityRule() Rule {
	return registryIntegrityRule{}
}

func (registryIntegrityRule) Name() string { return RuleRegistryIntegrity }

func (r registryIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, changes []Change) (Result, error) {
	var res Result
	seen := make(map[KittyID]struct{})
	for _, change := range changes {
		if change.Entity != EntityKitty && change.Entity != EntityOwner {
			continue
		}
		if _, dup := seen[change.KittyID]; dup {
			continue
		}
		seen[change.KittyID] = struct{}{}
		_, hasKitty := view.FindKitty(change.KittyID)
		_, hasOwner := view.FindOwner(change.KittyID)
		if hasKitty != hasOwner {
			res.Violations = append(res.Violations, r.violation(change.KittyID, "kitty and owner records must exist together"))
			continue
		}
		if !hasKitty {
			continue
		}
		count, ok := view.KittiesCount()
		if !ok || count <= change.KittyID {
			res.Violations = append(res.Violations, r.violation(change.KittyID, fmt.Sprintf("kitties count must exceed issued id %s", change.KittyID)))
		}
	}
	return res, nil
}

func (registryIntegrityRule) violation(id KittyID, msg string) Violation {
	return Violation{
		Rule:     RuleRegistryIntegrity,
		Severity: SeverityBlock,
		Message:  msg,
		Entity:   EntityKitty,
		KittyID:  id,
	}
}

type pricePositiveRule struct{}

// NewPricePositiveRule blocks commits that leave a kitty listed at a zero or
// negative price.
func NewPricePositiveRule() Rule {
	return pricePositiveRule{}
}

func (pricePositiveRule) Name() string { return RulePricePositive }

func (pricePositiveRule) Evaluate(_ context.Context, view domain.RuleView, changes []Change) (Result, error) {
	var res Result
	for _, change := range changes {
		if change.Entity != EntityKitty {
			continue
		}
		k, ok := view.FindKitty(change.KittyID)
		if !ok || k.Price == nil || k.Price.IsPositive() {
			continue
		}
		res.Violations = append(res.Violations, Violation{
			Rule:     RulePricePositive,
			Severity: SeverityBlock,
			Message:  fmt.Sprintf("kitty %s listed at non-positive price %s", k.ID, k.Price),
			Entity:   EntityKitty,
			KittyID:  k.ID,
		})
	}
	return res, nil
}
