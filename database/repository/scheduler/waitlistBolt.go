package schedulerRepo

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"gymbook/models"

	bolt "go.etcd.io/bbolt"
)

// AddToWaitlist appends the client to the queue of a bookable session.
func (repo *BoltSchedulerRepo) AddToWaitlist(ctx context.Context, entry *models.WaitlistEntry) error {
	return repo.update(ctx, func(tx *bolt.Tx) error {
		sess, err := getSession(tx, entry.SessionID)
		if err != nil {
			return err
		}
		if !sess.Status.Bookable() {
			return ErrSessionClosed
		}
		if _, err := getBooking(tx, entry.SessionID, entry.ClientID); err == nil {
			return ErrAlreadyBooked
		}
		if tx.Bucket(bucketWaitlist).Get(pairKey(entry.SessionID, entry.ClientID)) != nil {
			return ErrAlreadyWaitlisted
		}

		sess.WaitlistLength++
		sess.UpdatedAt = time.Now().UTC()
		entry.Position = sess.WaitlistLength
		if err := putWaitlistEntry(tx, entry); err != nil {
			return err
		}
		return putSession(tx, sess)
	})
}

func (repo *BoltSchedulerRepo) RemoveFromWaitlist(ctx context.Context, sessionID, clientID string) error {
	return repo.update(ctx, func(tx *bolt.Tx) error {
		sess, err := getSession(tx, sessionID)
		if err != nil {
			return err
		}
		if err := removeWaitlistEntry(tx, sess, clientID); err != nil {
			return err
		}
		sess.UpdatedAt = time.Now().UTC()
		return putSession(tx, sess)
	})
}

// removeWaitlistEntry deletes the client's entry, renumbers the entries behind
// it and decrements sess.WaitlistLength. The caller persists sess.
func removeWaitlistEntry(tx *bolt.Tx, sess *models.Session, clientID string) error {
	b := tx.Bucket(bucketWaitlist)
	key := pairKey(sess.ID, clientID)
	data := b.Get(key)
	if data == nil {
		return ErrNotWaitlisted
	}
	var removed models.WaitlistEntry
	if err := json.Unmarshal(data, &removed); err != nil {
		return fmt.Errorf("failed to unmarshal waitlist entry: %w", err)
	}
	if err := b.Delete(key); err != nil {
		return fmt.Errorf("failed to delete waitlist entry: %w", err)
	}

	rest, err := sessionWaitlist(tx, sess.ID)
	if err != nil {
		return err
	}
	for i := range rest {
		if rest[i].Position > removed.Position {
			rest[i].Position--
			if err := putWaitlistEntry(tx, &rest[i]); err != nil {
				return err
			}
		}
	}
	if sess.WaitlistLength > 0 {
		sess.WaitlistLength--
	}
	return nil
}

// sessionWaitlist returns the session's entries ordered by position.
func sessionWaitlist(tx *bolt.Tx, sessionID string) ([]models.WaitlistEntry, error) {
	entries := make([]models.WaitlistEntry, 0)
	err := forEachPrefix(tx.Bucket(bucketWaitlist), sessionPrefix(sessionID), func(_, v []byte) error {
		var e models.WaitlistEntry
		if err := json.Unmarshal(v, &e); err != nil {
			return fmt.Errorf("failed to unmarshal waitlist entry: %w", err)
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Position < entries[j].Position })
	return entries, nil
}

func (repo *BoltSchedulerRepo) GetSessionWaitlist(ctx context.Context, sessionID string) ([]models.WaitlistEntry, error) {
	var entries []models.WaitlistEntry
	err := repo.view(ctx, func(tx *bolt.Tx) error {
		var err error
		entries, err = sessionWaitlist(tx, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (repo *BoltSchedulerRepo) GetClientWaitlist(ctx context.Context, clientID string) ([]models.WaitlistEntry, error) {
	entries := make([]models.WaitlistEntry, 0)
	err := repo.view(ctx, func(tx *bolt.Tx) error {
		return tx.Bucket(bucketWaitlist).ForEach(func(_, v []byte) error {
			var e models.WaitlistEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("failed to unmarshal waitlist entry: %w", err)
			}
			if e.ClientID == clientID {
				entries = append(entries, e)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].AddedAt.After(entries[j].AddedAt) })
	return entries, nil
}
