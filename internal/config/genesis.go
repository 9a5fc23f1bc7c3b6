package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"kittycore/pkg/domain"
)

// Genesis lists the balances endowed when the dev ledger starts.
//
//	[[accounts]]
//	id = "alice"
//	balance = "1000"
type Genesis struct {
	Accounts []GenesisAccount `toml:"accounts"`
}

// GenesisAccount is one endowed account.
type GenesisAccount struct {
	ID      string `toml:"id"`
	Balance string `toml:"balance"`
}

// Endower credits an initial balance.
type Endower interface {
	Endow(who domain.AccountID, amount domain.Balance) error
}

// LoadGenesis decodes path. Unknown keys are rejected.
func LoadGenesis(path string) (Genesis, error) {
	var g Genesis
	meta, err := toml.DecodeFile(path, &g)
	if err != nil {
		return Genesis{}, fmt.Errorf("load genesis: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Genesis{}, fmt.Errorf("load genesis: unknown keys %s", strings.Join(keys, ", "))
	}
	return g, nil
}

// Apply endows every account. Duplicate ids are rejected before anything is
// credited.
func (g Genesis) Apply(target Endower) error {
	seen := make(map[string]struct{}, len(g.Accounts))
	amounts := make([]domain.Balance, len(g.Accounts))
	for i, acc := range g.Accounts {
		id := strings.TrimSpace(acc.ID)
		if id == "" {
			return fmt.Errorf("genesis account %d: id is required", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("genesis account %q listed twice", id)
		}
		seen[id] = struct{}{}
		amount, err := domain.ParseBalance(acc.Balance)
		if err != nil {
			return fmt.Errorf("genesis account %q: %w", id, err)
		}
		amounts[i] = amount
	}
	for i, acc := range g.Accounts {
		if err := target.Endow(domain.AccountID(strings.TrimSpace(acc.ID)), amounts[i]); err != nil {
			return fmt.Errorf("endow %q: %w", acc.ID, err)
		}
	}
	return nil
}
