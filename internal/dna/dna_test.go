package dna

import (
	"errors"
	"testing"

	"golang.org/x/crypto/blake2b"

	"kittycore/pkg/domain"
)

type fixedRandomness struct {
	seed    domain.Hash
	err     error
	subject []byte
}

func (f *fixedRandomness) Random(subject []byte) (domain.Hash, domain.BlockNumber, error) {
	f.subject = append([]byte(nil), subject...)
	return f.seed, 0, f.err
}

type fixedBlock domain.BlockNumber

func (b fixedBlock) BlockNumber() domain.BlockNumber { return domain.BlockNumber(b) }

func fill(v byte) domain.DNA {
	var d domain.DNA
	for i := range d {
		d[i] = v
	}
	return d
}

func TestCombineVectors(t *testing.T) {
	cases := []struct {
		name string
		mask byte
		a, b byte
		want byte
	}{
		{name: "mask low nibble", mask: 0x0F, a: 0x00, b: 0xFF, want: 0x0F},
		{name: "mask zero clears", mask: 0x00, a: 0xFF, b: 0xFF, want: 0x00},
		{name: "mask full ors parents", mask: 0xFF, a: 0xF0, b: 0x0C, want: 0xFC},
		{name: "mixed", mask: 0xAA, a: 0x0F, b: 0x30, want: 0x2A},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Combine(fill(tc.mask), fill(tc.a), fill(tc.b))
			if got != fill(tc.want) {
				t.Fatalf("expected %x, got %s", tc.want, got)
			}
		})
	}
}

func TestCombinePerByteFormula(t *testing.T) {
	var mask, a, b domain.DNA
	for i := range mask {
		mask[i] = byte(i * 17)
		a[i] = byte(255 - i*3)
		b[i] = byte(i * 29)
	}
	got := Combine(mask, a, b)
	for i := range got {
		want := (mask[i] & a[i]) | (mask[i] & b[i])
		if got[i] != want {
			t.Fatalf("byte %d: expected %x, got %x", i, want, got[i])
		}
	}
}

func TestGenerateHashesSeedAndBlock(t *testing.T) {
	var seed domain.Hash
	for i := range seed {
		seed[i] = byte(i)
	}
	r := &fixedRandomness{seed: seed}
	got, err := Generate(r, fixedBlock(7))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if string(r.subject) != "dna" {
		t.Fatalf("expected dna domain tag, got %q", r.subject)
	}

	h, _ := blake2b.New(16, nil)
	h.Write(seed[:])
	h.Write([]byte{7, 0, 0, 0})
	var want domain.DNA
	copy(want[:], h.Sum(nil))
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}

	other, err := Generate(r, fixedBlock(8))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if other == got {
		t.Fatalf("different blocks should yield different genomes")
	}
	again, _ := Generate(r, fixedBlock(7))
	if again != got {
		t.Fatalf("same inputs must be deterministic")
	}
}

func TestGeneratePropagatesBeaconError(t *testing.T) {
	boom := errors.New("beacon down")
	_, err := Generate(&fixedRandomness{err: boom}, fixedBlock(1))
	if !errors.Is(err, boom) {
		t.Fatalf("expected beacon error, got %v", err)
	}
}
