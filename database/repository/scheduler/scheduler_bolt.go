package schedulerRepo

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gymbook/models"

	bolt "go.etcd.io/bbolt"
)

// Bucket names.
var (
	bucketSessions       = []byte("sessions")         // session id -> Session
	bucketSessionsByTime = []byte("sessions_by_time") // scheduledAt(8) + id -> nil
	bucketBookings       = []byte("bookings")         // sessionId \x00 clientId -> Booking
	bucketWaitlist       = []byte("waitlist")         // sessionId \x00 clientId -> WaitlistEntry
)

var keySep = []byte{0}

// BoltSchedulerRepo implements SchedulerRepository on an embedded bbolt file.
// bbolt allows a single read-write transaction at a time, so every mutation
// is serialized against all others.
type BoltSchedulerRepo struct {
	db *bolt.DB
}

// NewBoltSchedulerRepo prepares the buckets and returns the repository.
func NewBoltSchedulerRepo(db *bolt.DB) (SchedulerRepository, error) {
	repo := &BoltSchedulerRepo{db: db}
	if err := repo.EnsureIndexes(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

// EnsureIndexes creates any missing bucket.
func (repo *BoltSchedulerRepo) EnsureIndexes(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return repo.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketSessions, bucketSessionsByTime, bucketBookings, bucketWaitlist} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

func (repo *BoltSchedulerRepo) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return repo.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketSessions) == nil {
			return errors.New("sessions bucket missing")
		}
		return nil
	})
}

// update runs fn in a read-write transaction unless ctx is already done.
func (repo *BoltSchedulerRepo) update(ctx context.Context, fn func(tx *bolt.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return repo.db.Update(fn)
}

func (repo *BoltSchedulerRepo) view(ctx context.Context, fn func(tx *bolt.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return repo.db.View(fn)
}

func pairKey(sessionID, clientID string) []byte {
	key := make([]byte, 0, len(sessionID)+1+len(clientID))
	key = append(key, sessionID...)
	key = append(key, keySep...)
	return append(key, clientID...)
}

func sessionPrefix(sessionID string) []byte {
	return append([]byte(sessionID), keySep...)
}

// timeKey orders by scheduled time. The sign bit is flipped so pre-1970
// instants sort before later ones.
func timeKey(at time.Time, id string) []byte {
	key := make([]byte, 8, 8+len(id))
	binary.BigEndian.PutUint64(key, uint64(at.UTC().UnixNano())^(1<<63))
	return append(key, id...)
}

func getSession(tx *bolt.Tx, id string) (*models.Session, error) {
	data := tx.Bucket(bucketSessions).Get([]byte(id))
	if data == nil {
		return nil, ErrSessionNotFound
	}
	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", id, err)
	}
	return &sess, nil
}

func putSession(tx *bolt.Tx, sess *models.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return tx.Bucket(bucketSessions).Put([]byte(sess.ID), data)
}

func getBooking(tx *bolt.Tx, sessionID, clientID string) (*models.Booking, error) {
	data := tx.Bucket(bucketBookings).Get(pairKey(sessionID, clientID))
	if data == nil {
		return nil, ErrNotBooked
	}
	var booking models.Booking
	if err := json.Unmarshal(data, &booking); err != nil {
		return nil, fmt.Errorf("failed to unmarshal booking: %w", err)
	}
	return &booking, nil
}

func putBooking(tx *bolt.Tx, booking *models.Booking) error {
	data, err := json.Marshal(booking)
	if err != nil {
		return fmt.Errorf("failed to marshal booking: %w", err)
	}
	return tx.Bucket(bucketBookings).Put(pairKey(booking.SessionID, booking.ClientID), data)
}

func putWaitlistEntry(tx *bolt.Tx, entry *models.WaitlistEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal waitlist entry: %w", err)
	}
	return tx.Bucket(bucketWaitlist).Put(pairKey(entry.SessionID, entry.ClientID), data)
}

// forEachPrefix calls fn for every key in bucket starting with prefix.
func forEachPrefix(b *bolt.Bucket, prefix []byte, fn func(k, v []byte) error) error {
	c := b.Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}

func deletePrefix(b *bolt.Bucket, prefix []byte) error {
	var keys [][]byte
	if err := forEachPrefix(b, prefix, func(k, _ []byte) error {
		keys = append(keys, append([]byte(nil), k...))
		return nil
	}); err != nil {
		return err
	}
	for _, k := range keys {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
