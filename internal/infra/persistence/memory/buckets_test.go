package memory

import (
	"testing"

	"kittycore/pkg/domain"
)

func TestSnapshotBucketsRoundTrip(t *testing.T) {
	count := KittyID(3)
	src := Snapshot{
		KittiesCount: &count,
		Kitties: map[KittyID]Kitty{
			1: {ID: 1, DNA: domain.DNA{0x01, 0xff}},
			2: {ID: 2, DNA: domain.DNA{0x02}, Price: domain.NewBalance(42).Ptr()},
		},
		Owners: map[KittyID]AccountID{1: "alice", 2: "bob"},
	}
	var dst Snapshot
	for _, bucket := range Buckets {
		payload, err := src.EncodeBucket(bucket)
		if err != nil {
			t.Fatalf("encode %s: %v", bucket, err)
		}
		if err := dst.DecodeBucket(bucket, payload); err != nil {
			t.Fatalf("decode %s: %v", bucket, err)
		}
	}
	if dst.KittiesCount == nil || *dst.KittiesCount != 3 {
		t.Fatalf("expected counter 3, got %v", dst.KittiesCount)
	}
	if dst.Kitties[1].DNA != src.Kitties[1].DNA {
		t.Fatalf("dna mismatch: %s", dst.Kitties[1].DNA)
	}
	if dst.Kitties[2].Price == nil || !dst.Kitties[2].Price.Equal(src.Kitties[2].Price.Decimal) {
		t.Fatalf("price mismatch: %+v", dst.Kitties[2].Price)
	}
	if dst.Owners[2] != "bob" {
		t.Fatalf("owner mismatch: %v", dst.Owners)
	}
}

func TestSnapshotBucketErrors(t *testing.T) {
	if _, err := (Snapshot{}).EncodeBucket("nope"); err == nil {
		t.Fatalf("expected unknown bucket error")
	}
	var s Snapshot
	if err := s.DecodeBucket("legacy", []byte("garbage")); err != nil {
		t.Fatalf("unknown buckets are ignored, got %v", err)
	}
	if err := s.DecodeBucket(BucketKitties, []byte("{")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestEmptySnapshotEncodesNullCounter(t *testing.T) {
	payload, err := (Snapshot{}).EncodeBucket(BucketKittiesCount)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var s Snapshot
	if err := s.DecodeBucket(BucketKittiesCount, payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.KittiesCount != nil {
		t.Fatalf("expected absent counter, got %d", *s.KittiesCount)
	}
	store := NewStore(nil)
	store.ImportState(s)
	if _, ok := store.KittiesCount(); ok {
		t.Fatalf("expected no counter after import")
	}
}
