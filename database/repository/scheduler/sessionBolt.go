package schedulerRepo

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"gymbook/models"

	bolt "go.etcd.io/bbolt"
)

// CreateSessions stores the batch in one transaction.
func (repo *BoltSchedulerRepo) CreateSessions(ctx context.Context, sessions []models.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	return repo.update(ctx, func(tx *bolt.Tx) error {
		byTime := tx.Bucket(bucketSessionsByTime)
		for i := range sessions {
			sess := &sessions[i]
			if tx.Bucket(bucketSessions).Get([]byte(sess.ID)) != nil {
				return fmt.Errorf("session %s already exists", sess.ID)
			}
			if err := putSession(tx, sess); err != nil {
				return err
			}
			if err := byTime.Put(timeKey(sess.ScheduledAt, sess.ID), nil); err != nil {
				return fmt.Errorf("failed to index session %s: %w", sess.ID, err)
			}
		}
		return nil
	})
}

func (repo *BoltSchedulerRepo) GetSessionByID(ctx context.Context, id string) (*models.Session, error) {
	var sess *models.Session
	err := repo.view(ctx, func(tx *bolt.Tx) error {
		var err error
		sess, err = getSession(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// GetSessionsByDateRange walks the time index from start up to and including end.
func (repo *BoltSchedulerRepo) GetSessionsByDateRange(ctx context.Context, start, end time.Time) ([]models.Session, error) {
	sessions := make([]models.Session, 0)
	err := repo.view(ctx, func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketSessionsByTime).Cursor()
		upper := timeKey(end, "")

		for k, _ := c.Seek(timeKey(start, "")); k != nil && bytes.Compare(k[:8], upper) <= 0; k, _ = c.Next() {
			sess, err := getSession(tx, string(k[8:]))
			if err != nil {
				return err
			}
			sessions = append(sessions, *sess)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (repo *BoltSchedulerRepo) TransitionSession(ctx context.Context, id string, to models.SessionStatus, from []models.SessionStatus) (*models.Session, error) {
	var sess *models.Session
	err := repo.update(ctx, func(tx *bolt.Tx) error {
		current, err := getSession(tx, id)
		if err != nil {
			return err
		}
		sess = current
		if current.Status == to {
			return nil
		}
		allowed := false
		for _, st := range from {
			if current.Status == st {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
		}
		current.Status = to
		current.UpdatedAt = time.Now().UTC()
		return putSession(tx, current)
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (repo *BoltSchedulerRepo) DeleteSession(ctx context.Context, id string) error {
	return repo.update(ctx, func(tx *bolt.Tx) error {
		sess, err := getSession(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketSessions).Delete([]byte(id)); err != nil {
			return err
		}
		if err := tx.Bucket(bucketSessionsByTime).Delete(timeKey(sess.ScheduledAt, id)); err != nil {
			return err
		}
		if err := deletePrefix(tx.Bucket(bucketBookings), sessionPrefix(id)); err != nil {
			return fmt.Errorf("failed to delete bookings of session %s: %w", id, err)
		}
		if err := deletePrefix(tx.Bucket(bucketWaitlist), sessionPrefix(id)); err != nil {
			return fmt.Errorf("failed to delete waitlist of session %s: %w", id, err)
		}
		return nil
	})
}
