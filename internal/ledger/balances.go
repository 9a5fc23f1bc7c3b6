// Package ledger implements an in-memory funds ledger with an existential
// deposit, used by the daemon's dev chain and by tests.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"kittycore/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.Currency = (*Balances)(nil)

// Balances holds free balances per account. Accounts whose balance drops
// below the existential deposit are reaped.
type Balances struct {
	mu          sync.Mutex
	accounts    map[domain.AccountID]domain.Balance
	existential domain.Balance
}

// New constructs an empty ledger with the given existential deposit.
func New(existential domain.Balance) *Balances {
	return &Balances{
		accounts:    make(map[domain.AccountID]domain.Balance),
		existential: existential,
	}
}

// ExistentialDeposit returns the minimum balance an account must keep.
func (b *Balances) ExistentialDeposit() domain.Balance {
	return b.existential
}

// Endow credits who with amount, creating the account if needed.
func (b *Balances) Endow(who domain.AccountID, amount domain.Balance) error {
	if !amount.IsPositive() {
		return fmt.Errorf("endow %s: amount must be positive", who)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	next := b.accounts[who].Plus(amount)
	if next.LessThan(b.existential) {
		return domain.WrapError(domain.CodeExistentialDeposit, fmt.Sprintf("endow %s below existential deposit", who), domain.ErrExistentialDeposit)
	}
	b.accounts[who] = next
	return nil
}

// FreeBalance implements domain.Currency.
func (b *Balances) FreeBalance(_ context.Context, who domain.AccountID) (domain.Balance, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.accounts[who], nil
}

// Transfer implements domain.Currency. Zero amounts and self transfers are
// no-ops.
func (b *Balances) Transfer(_ context.Context, from, to domain.AccountID, amount domain.Balance, req domain.ExistenceRequirement) error {
	if amount.IsNegative() {
		return fmt.Errorf("transfer amount must not be negative")
	}
	if amount.IsZero() || from == to {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	fromBal := b.accounts[from]
	if fromBal.LessThan(amount) {
		return &domain.Error{
			Code:     domain.CodeInsufficientFunds,
			Message:  fmt.Sprintf("account %s has %s, needs %s", from, fromBal, amount),
			Metadata: map[string]string{"account": string(from), "balance": fromBal.String(), "amount": amount.String()},
		}
	}
	remaining := fromBal.Minus(amount)
	if remaining.LessThan(b.existential) && req == domain.KeepAlive {
		return &domain.Error{
			Code:     domain.CodeKeepAlive,
			Message:  fmt.Sprintf("transfer would leave %s below existential deposit %s", from, b.existential),
			Metadata: map[string]string{"account": string(from), "remaining": remaining.String()},
		}
	}
	toBal := b.accounts[to].Plus(amount)
	if toBal.LessThan(b.existential) {
		return &domain.Error{
			Code:     domain.CodeExistentialDeposit,
			Message:  fmt.Sprintf("transfer of %s cannot create account %s", amount, to),
			Metadata: map[string]string{"account": string(to)},
		}
	}

	if remaining.LessThan(b.existential) || remaining.IsZero() {
		delete(b.accounts, from)
	} else {
		b.accounts[from] = remaining
	}
	b.accounts[to] = toBal
	return nil
}
