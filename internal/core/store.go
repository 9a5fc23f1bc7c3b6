package core

import (
	"kittycore/internal/infra/persistence/memory"
)

// MemoryStore is the in-memory registry store.
type MemoryStore = memory.Store

// NewMemoryStore constructs an in-memory store. A nil engine gets the default
// rule set.
func NewMemoryStore(engine *RulesEngine) *MemoryStore {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	return memory.NewStore(engine)
}
