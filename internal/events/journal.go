package events

import (
	"context"
	"encoding/binary"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/orequest/oreq/pkg/errors"
)

var journalBucket = []byte("events")

// Journal is a bbolt-backed append-only event log. Events are keyed by
// their engine-assigned sequence number, so replay order is emission order.
type Journal struct {
	db *bolt.DB
}

// OpenJournal opens (or creates) a journal file
func OpenJournal(path string) (*Journal, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeDatabase, "journal_open",
			"failed to open event journal").
			WithContext("path", path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(journalBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeDatabase, "journal_init",
			"failed to create journal bucket")
	}

	return &Journal{db: db}, nil
}

// Emit implements Sink by appending the event durably
func (j *Journal) Emit(ctx context.Context, ev *Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := ev.Marshal()
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation, "journal_marshal",
			"failed to marshal event").
			WithContext("event_id", ev.ID)
	}

	return j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(journalBucket)

		// Sequence numbers must be strictly increasing
		if cursor := b.Cursor(); cursor != nil {
			if lastKey, _ := cursor.Last(); lastKey != nil {
				last := binary.BigEndian.Uint64(lastKey)
				if ev.Seq <= last {
					return fmt.Errorf("out-of-order event: seq %d after %d", ev.Seq, last)
				}
			}
		}

		return b.Put(seqKey(ev.Seq), data)
	})
}

// Close closes the journal file
func (j *Journal) Close() error {
	return j.db.Close()
}

// LastSeq returns the sequence number of the newest event, 0 if empty
func (j *Journal) LastSeq() (uint64, error) {
	var seq uint64
	err := j.db.View(func(tx *bolt.Tx) error {
		if lastKey, _ := tx.Bucket(journalBucket).Cursor().Last(); lastKey != nil {
			seq = binary.BigEndian.Uint64(lastKey)
		}
		return nil
	})
	return seq, err
}

// Replay calls fn for every event with sequence number greater than
// afterSeq, in order. Returning an error from fn stops the replay.
func (j *Journal) Replay(afterSeq uint64, fn func(*Event) error) error {
	return j.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(journalBucket).Cursor()
		for k, v := c.Seek(seqKey(afterSeq + 1)); k != nil; k, v = c.Next() {
			ev, err := Unmarshal(v)
			if err != nil {
				return errors.Wrap(err, errors.ErrorTypeValidation, "journal_replay",
					"failed to decode journaled event").
					WithContext("seq", binary.BigEndian.Uint64(k))
			}
			if err := fn(ev); err != nil {
				return err
			}
		}
		return nil
	})
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
