package domain

import "context"

// BlockNumber is the monotonically increasing chain height.
type BlockNumber uint32

// Hash is a 256-bit randomness output.
type Hash [32]byte

// Randomness is the external randomness beacon. Random returns a value bound
// to subject together with the block at which it became known.
type Randomness interface {
	Random(subject []byte) (Hash, BlockNumber, error)
}

// BlockNumberProvider reports the current block height.
type BlockNumberProvider interface {
	BlockNumber() BlockNumber
}

// ExistenceRequirement selects whether a transfer may reap the payer account.
type ExistenceRequirement int

const (
	// KeepAlive refuses transfers that would leave the payer below the
	// existential deposit.
	KeepAlive ExistenceRequirement = iota
	// AllowDeath lets the payer account be reaped.
	AllowDeath
)

func (r ExistenceRequirement) String() string {
	if r == AllowDeath {
		return "allow_death"
	}
	return "keep_alive"
}

// Currency is the external funds ledger.
type Currency interface {
	FreeBalance(ctx context.Context, who AccountID) (Balance, error)
	Transfer(ctx context.Context, from, to AccountID, amount Balance, req ExistenceRequirement) error
}

// Origin is a verified caller identity produced by an Authenticator before
// any entry point runs.
type Origin struct {
	Caller AccountID
}

// Signed builds an origin for an already-authenticated account.
func Signed(who AccountID) Origin {
	return Origin{Caller: who}
}

// EnsureSigned returns the caller or ErrBadOrigin when none is present.
func (o Origin) EnsureSigned() (AccountID, error) {
	if o.Caller == "" {
		return "", ErrBadOrigin
	}
	return o.Caller, nil
}

// Authenticator resolves an inbound credential to a verified origin.
type Authenticator interface {
	Authenticate(ctx context.Context, credential string) (Origin, error)
}
