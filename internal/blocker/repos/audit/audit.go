// Package audit persists the flat trail of applied actions in a bbolt
// database, keyed by time. The trail is append-only; the stats command
// aggregates it.
package audit

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/domain"
	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/services/reconciler"
)

var bucketEvents = []byte("events")

// Event is one audit trail entry.
type Event struct {
	Time   time.Time `json:"time"`
	PassID string    `json:"pass_id,omitempty"`
	Action string    `json:"action"`
	Domain string    `json:"domain,omitempty"`
	Detail string    `json:"detail,omitempty"`
}

// Store is the bbolt-backed audit trail.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the audit database at path and ensures the
// events bucket exists.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEvents)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Append writes one event. Keys are the event time in nanoseconds plus
// a bucket sequence number, so same-instant events never collide and a
// cursor walks the trail in time order.
func (s *Store) Append(e Event) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEvents)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		key := make([]byte, 16)
		binary.BigEndian.PutUint64(key[:8], uint64(e.Time.UnixNano()))
		binary.BigEndian.PutUint64(key[8:], seq)
		return b.Put(key, value)
	})
}

// Record implements the reconciler's Auditor interface for applied
// sync actions.
func (s *Store) Record(passID string, action domain.SyncAction) error {
	return s.Append(Event{
		Time:   time.Now(),
		PassID: passID,
		Action: action.Kind.String(),
		Domain: action.Domain,
		Detail: action.Reason,
	})
}

// Recent returns up to n events, newest first.
func (s *Store) Recent(n int) ([]Event, error) {
	var events []Event
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketEvents).Cursor()
		for k, v := c.Last(); k != nil && len(events) < n; k, v = c.Prev() {
			var e Event
			if err := json.Unmarshal(v, &e); err != nil {
				continue // skip corrupt entries rather than failing the scan
			}
			events = append(events, e)
		}
		return nil
	})
	return events, err
}

// CountByAction aggregates the whole trail into per-action totals.
func (s *Store) CountByAction() (map[string]int, int, error) {
	counts := make(map[string]int)
	total := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEvents).ForEach(func(_, v []byte) error {
			total++
			var e Event
			if err := json.Unmarshal(v, &e); err != nil {
				return nil
			}
			counts[e.Action]++
			return nil
		})
	})
	return counts, total, err
}

var _ reconciler.Auditor = (*Store)(nil)
