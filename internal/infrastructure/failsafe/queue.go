// Package failsafe provides a durable local queue for audit entries that
// could not be written to the primary store. Entries are spooled to a bbolt
// file and drained back once the store recovers, so critical events survive
// process restarts.
package failsafe

import (
	"encoding/binary"
	"encoding/json"

	bolt "go.etcd.io/bbolt"

	"github.com/approval-hub/approval-hub/internal/domain/audit"
)

var bucketEntries = []byte("audit_entries")

// Queue is a durable FIFO of audit entries.
type Queue struct {
	db *bolt.DB
}

// Open opens or creates the queue file.
func Open(path string) (*Queue, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEntries)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Queue{db: db}, nil
}

func (q *Queue) Close() error {
	return q.db.Close()
}

// Enqueue appends one entry.
func (q *Queue) Enqueue(e *audit.Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return q.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return b.Put(key, data)
	})
}

// Len returns the number of spooled entries.
func (q *Queue) Len() (int, error) {
	var n int
	err := q.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketEntries).Stats().KeyN
		return nil
	})
	return n, err
}

// Drain hands spooled entries to fn in insertion order, removing each entry
// once fn accepts it. Draining stops at the first failure so order is
// preserved across retries.
func (q *Queue) Drain(fn func(*audit.Entry) error) (int, error) {
	drained := 0
	for {
		var key []byte
		var e *audit.Entry

		err := q.db.View(func(tx *bolt.Tx) error {
			k, v := tx.Bucket(bucketEntries).Cursor().First()
			if k == nil {
				return nil
			}
			key = append([]byte(nil), k...)
			var entry audit.Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			e = &entry
			return nil
		})
		if err != nil {
			return drained, err
		}
		if e == nil {
			return drained, nil
		}

		if err := fn(e); err != nil {
			return drained, err
		}
		err = q.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketEntries).Delete(key)
		})
		if err != nil {
			return drained, err
		}
		drained++
	}
}
