// Package journal persists outbound order events in a pebble keyspace
// so delivery survives a crash between matching and broadcast.
package journal

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
)

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Record is one outbox entry: delivery bookkeeping plus the serialized
// event payload.
type Record struct {
	State       State
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

// binary encoding: [state:1][retries:4][lastAttempt:8][payload...]
func encodeRecord(r Record) []byte {
	buf := make([]byte, 1+4+8+len(r.Payload))
	buf[0] = byte(r.State)
	binary.BigEndian.PutUint32(buf[1:5], r.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(r.LastAttempt))
	copy(buf[13:], r.Payload)
	return buf
}

func decodeRecord(b []byte) (Record, error) {
	if len(b) < 13 {
		return Record{}, errors.New("invalid outbox record length")
	}
	rec := Record{
		State:       State(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
	}
	if len(b) > 13 {
		rec.Payload = append([]byte(nil), b[13:]...)
	}
	return rec, nil
}

// Outbox is the pebble-backed event outbox. One writer appends NEW
// records; the broadcaster advances them NEW → SENT → ACKED and
// deletes ACKED entries.
type Outbox struct {
	db *pebble.DB
}

func Open(dir string) (*Outbox, error) {
	db, err := pebble.Open(dir, &pebble.Options{
		DisableWAL: false, // we WANT durability
	})
	if err != nil {
		return nil, err
	}
	return &Outbox{db: db}, nil
}

func (o *Outbox) Close() error {
	return o.db.Close()
}

// Append inserts a NEW entry keyed by event id.
func (o *Outbox) Append(eventID uint64, payload []byte) error {
	rec := Record{State: StateNew, Payload: payload}
	return o.db.Set(keyFor(eventID), encodeRecord(rec), pebble.Sync)
}

// UpdateState advances delivery state after a send, ack or failure.
// The payload is preserved.
func (o *Outbox) UpdateState(eventID uint64, state State, retries uint32) error {
	rec, err := o.Get(eventID)
	if err != nil {
		return err
	}
	rec.State = state
	rec.Retries = retries
	rec.LastAttempt = time.Now().UnixNano()
	return o.db.Set(keyFor(eventID), encodeRecord(rec), pebble.Sync)
}

// Delete removes an entry, normally after it reaches ACKED.
func (o *Outbox) Delete(eventID uint64) error {
	return o.db.Delete(keyFor(eventID), pebble.Sync)
}

func (o *Outbox) Get(eventID uint64) (Record, error) {
	val, closer, err := o.db.Get(keyFor(eventID))
	if err != nil {
		return Record{}, err
	}
	defer closer.Close()

	return decodeRecord(val)
}

// ScanByState iterates all records in the given state in event-id
// order. The broadcaster uses this to replay NEW entries.
func (o *Outbox) ScanByState(state State, fn func(eventID uint64, rec Record) error) error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte("event/"),
		UpperBound: []byte("event/~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		rec, err := decodeRecord(iter.Value())
		if err != nil {
			return err
		}
		if rec.State != state {
			continue
		}
		id, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		if err := fn(id, rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

func keyFor(eventID uint64) []byte {
	return []byte(fmt.Sprintf("event/%020d", eventID))
}

func parseKey(b []byte) (uint64, error) {
	var id uint64
	_, err := fmt.Sscanf(string(bytes.TrimPrefix(b, []byte("event/"))), "%d", &id)
	return id, err
}
