package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"kittycore/internal/blob"
	"kittycore/pkg/domain"
)

// JournalPrefix is the blob key prefix for archived events.
const JournalPrefix = "events/"

// Record is one archived event.
type Record struct {
	ID         uuid.UUID    `json:"id"`
	RecordedAt time.Time    `json:"recorded_at"`
	Event      domain.Event `json:"event"`
}

// Journal archives events as write-once JSON blobs keyed by block number and
// a time-ordered UUID, so listing the prefix yields publication order.
type Journal struct {
	store blob.Store
	now   func() time.Time
}

// NewJournal returns a journal writing to store.
func NewJournal(store blob.Store) *Journal {
	return &Journal{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Publish writes event as a new blob.
func (j *Journal) Publish(ctx context.Context, event domain.Event) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("journal id: %w", err)
	}
	rec := Record{ID: id, RecordedAt: j.now(), Event: event}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	_, err = j.store.Put(ctx, recordKey(event.Block, id), bytes.NewReader(payload), blob.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"kind": string(event.Kind), "kitty_id": event.KittyID.String()},
	})
	if err != nil {
		return fmt.Errorf("archive event %s: %w", event.Kind, err)
	}
	return nil
}

// Replay reads every archived record in key order.
func (j *Journal) Replay(ctx context.Context) ([]Record, error) {
	infos, err := j.store.List(ctx, JournalPrefix)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	out := make([]Record, 0, len(infos))
	for _, info := range infos {
		if !strings.HasSuffix(info.Key, ".json") {
			continue
		}
		rec, err := j.read(ctx, info.Key)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (j *Journal) read(ctx context.Context, key string) (Record, error) {
	_, rc, err := j.store.Get(ctx, key)
	if err != nil {
		return Record{}, fmt.Errorf("read %s: %w", key, err)
	}
	defer rc.Close()
	var rec Record
	if err := json.NewDecoder(rc).Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return rec, nil
}

// recordKey zero-pads the block so lexical order matches numeric order.
func recordKey(block domain.BlockNumber, id uuid.UUID) string {
	return fmt.Sprintf("%s%010d-%s.json", JournalPrefix, block, id)
}
