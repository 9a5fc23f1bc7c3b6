package memory

import (
	"encoding/json"
	"fmt"
)

// Bucket names under which durable backends persist a Snapshot.
const (
	BucketKittiesCount = "kitties_count"
	BucketKitties      = "kitties"
	BucketOwners       = "owners"
)

// Buckets lists the persisted buckets in write order.
var Buckets = []string{BucketKittiesCount, BucketKitties, BucketOwners}

// EncodeBucket marshals the named bucket of the snapshot.
func (s Snapshot) EncodeBucket(bucket string) ([]byte, error) {
	switch bucket {
	case BucketKittiesCount:
		return json.Marshal(s.KittiesCount)
	case BucketKitties:
		return json.Marshal(s.Kitties)
	case BucketOwners:
		return json.Marshal(s.Owners)
	}
	return nil, fmt.Errorf("unknown bucket %q", bucket)
}

// DecodeBucket unmarshals payload into the named bucket. Unknown buckets are
// ignored so older databases with extra rows still load.
func (s *Snapshot) DecodeBucket(bucket string, payload []byte) error {
	var target any
	switch bucket {
	case BucketKittiesCount:
		target = &s.KittiesCount
	case BucketKitties:
		target = &s.Kitties
	case BucketOwners:
		target = &s.Owners
	default:
		return nil
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("decode %s: %w", bucket, err)
	}
	return nil
}
