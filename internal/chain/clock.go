// Package chain provides the block context and randomness beacon consumed by
// the registry when no external chain is attached.
package chain

import (
	"context"
	"sync/atomic"
	"time"

	"kittycore/pkg/domain"
)

// Clock is a monotonically increasing block height.
type Clock struct {
	height atomic.Uint32
}

// NewClock starts a clock at the given height.
func NewClock(start domain.BlockNumber) *Clock {
	c := &Clock{}
	c.height.Store(uint32(start))
	return c
}

// BlockNumber implements domain.BlockNumberProvider.
func (c *Clock) BlockNumber() domain.BlockNumber {
	return domain.BlockNumber(c.height.Load())
}

// Advance moves to the next block and returns it.
func (c *Clock) Advance() domain.BlockNumber {
	return domain.BlockNumber(c.height.Add(1))
}

// Run advances the clock every interval until ctx is done.
func (c *Clock) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Advance()
		}
	}
}
