package chain

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"kittycore/pkg/domain"
)

// Randomness is a keyed beacon: the output for a subject is
// BLAKE2b-256(seed || subject || block) at the clock's current height. With a
// fixed seed it is fully reproducible, which the tests rely on.
type Randomness struct {
	seed   domain.Hash
	blocks domain.BlockNumberProvider
}

// NewRandomness builds a beacon from an explicit seed.
func NewRandomness(seed domain.Hash, blocks domain.BlockNumberProvider) *Randomness {
	return &Randomness{seed: seed, blocks: blocks}
}

// NewRandomnessFromEntropy seeds the beacon from crypto/rand.
func NewRandomnessFromEntropy(blocks domain.BlockNumberProvider) (*Randomness, error) {
	var seed domain.Hash
	if _, err := crand.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("read randomness seed: %w", err)
	}
	return NewRandomness(seed, blocks), nil
}

// Random implements domain.Randomness.
func (r *Randomness) Random(subject []byte) (domain.Hash, domain.BlockNumber, error) {
	block := r.blocks.BlockNumber()
	var num [4]byte
	binary.LittleEndian.PutUint32(num[:], uint32(block))

	payload := make([]byte, 0, len(r.seed)+len(subject)+len(num))
	payload = append(payload, r.seed[:]...)
	payload = append(payload, subject...)
	payload = append(payload, num[:]...)
	return blake2b.Sum256(payload), block, nil
}
