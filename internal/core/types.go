package core

import "kittycore/pkg/domain"

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Kitty              = domain.Kitty
	KittyID            = domain.KittyID
	AccountID          = domain.AccountID
	Balance            = domain.Balance
	Origin             = domain.Origin
	Event              = domain.Event
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
	Rule               = domain.Rule
	RulesEngine        = domain.RulesEngine
	Transaction        = domain.Transaction
	TransactionView    = domain.TransactionView
	PersistentStore    = domain.PersistentStore
)

const (
	EntityKitty   = domain.EntityKitty
	EntityOwner   = domain.EntityOwner
	EntityCounter = domain.EntityCounter
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
)

// NewRulesEngine constructs an empty engine.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}
