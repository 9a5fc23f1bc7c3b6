// Package dna derives kitty genomes from chain randomness and combines parent
// genomes during breeding.
package dna

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"kittycore/pkg/domain"
)

// DomainTag separates genome seeds from other consumers of the beacon.
var DomainTag = []byte("dna")

// Generate draws a fresh 16-byte value from the randomness beacon mixed with
// the current block height. It is used both as a new genome and as a breeding
// mask.
func Generate(r domain.Randomness, blocks domain.BlockNumberProvider) (domain.DNA, error) {
	seed, _, err := r.Random(DomainTag)
	if err != nil {
		return domain.DNA{}, fmt.Errorf("draw dna seed: %w", err)
	}
	return Digest(seed, blocks.BlockNumber())
}

// Digest hashes seed || little-endian block number with BLAKE2b-128.
func Digest(seed domain.Hash, block domain.BlockNumber) (domain.DNA, error) {
	h, err := blake2b.New(domain.DNALen, nil)
	if err != nil {
		return domain.DNA{}, fmt.Errorf("init blake2b: %w", err)
	}
	var num [4]byte
	binary.LittleEndian.PutUint32(num[:], uint32(block))
	h.Write(seed[:])
	h.Write(num[:])
	var out domain.DNA
	copy(out[:], h.Sum(nil))
	return out, nil
}

// Combine computes the child genome byte by byte as
// (mask & a) | (mask & b). Bits cleared in the mask are always zero.
func Combine(mask, a, b domain.DNA) domain.DNA {
	var child domain.DNA
	for i := range child {
		child[i] = mask[i]&a[i] | (mask[i] & b[i])
	}
	return child
}
