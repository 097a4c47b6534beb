package schedulerRepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"gymbook/models"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

func (repo *BoltSchedulerRepo) BookSessionSpot(ctx context.Context, booking *models.Booking) error {
	return repo.update(ctx, func(tx *bolt.Tx) error {
		sess, err := getSession(tx, booking.SessionID)
		if err != nil {
			return err
		}
		if !sess.Status.Bookable() {
			return ErrSessionClosed
		}
		if _, err := getBooking(tx, booking.SessionID, booking.ClientID); err == nil {
			return ErrAlreadyBooked
		}
		if sess.CurrentCapacity >= sess.MaxCapacity {
			return ErrSessionFull
		}

		if err := putBooking(tx, booking); err != nil {
			return err
		}
		sess.CurrentCapacity++
		sess.UpdatedAt = time.Now().UTC()

		if err := removeWaitlistEntry(tx, sess, booking.ClientID); err != nil && !errors.Is(err, ErrNotWaitlisted) {
			return err
		}
		return putSession(tx, sess)
	})
}

func (repo *BoltSchedulerRepo) CancelBooking(ctx context.Context, sessionID, clientID string) (*models.Booking, error) {
	var promoted *models.Booking
	err := repo.update(ctx, func(tx *bolt.Tx) error {
		if _, err := getBooking(tx, sessionID, clientID); err != nil {
			return err
		}
		if err := tx.Bucket(bucketBookings).Delete(pairKey(sessionID, clientID)); err != nil {
			return fmt.Errorf("failed to delete booking: %w", err)
		}

		sess, err := getSession(tx, sessionID)
		if errors.Is(err, ErrSessionNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if sess.CurrentCapacity > 0 {
			sess.CurrentCapacity--
		}
		sess.UpdatedAt = time.Now().UTC()

		promoted, err = promoteHead(tx, sess)
		if err != nil {
			return err
		}
		return putSession(tx, sess)
	})
	if err != nil {
		return nil, err
	}
	return promoted, nil
}

// promoteHead gives a free seat to the client at position 1. sess is updated in
// place and must be written back by the caller.
func promoteHead(tx *bolt.Tx, sess *models.Session) (*models.Booking, error) {
	if !sess.Status.Bookable() || sess.CurrentCapacity >= sess.MaxCapacity {
		return nil, nil
	}
	entries, err := sessionWaitlist(tx, sess.ID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	head := entries[0]
	if err := removeWaitlistEntry(tx, sess, head.ClientID); err != nil {
		return nil, err
	}

	booking := &models.Booking{
		ID:                   uuid.New().String(),
		SessionID:            sess.ID,
		ClientID:             head.ClientID,
		PromotedFromWaitlist: true,
		CreatedAt:            time.Now().UTC(),
	}
	if err := putBooking(tx, booking); err != nil {
		return nil, err
	}
	sess.CurrentCapacity++
	return booking, nil
}

func (repo *BoltSchedulerRepo) GetBooking(ctx context.Context, sessionID, clientID string) (*models.Booking, error) {
	var booking *models.Booking
	err := repo.view(ctx, func(tx *bolt.Tx) error {
		var err error
		booking, err = getBooking(tx, sessionID, clientID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (repo *BoltSchedulerRepo) GetSessionBookings(ctx context.Context, sessionID string) ([]models.Booking, error) {
	bookings := make([]models.Booking, 0)
	err := repo.view(ctx, func(tx *bolt.Tx) error {
		return forEachPrefix(tx.Bucket(bucketBookings), sessionPrefix(sessionID), func(_, v []byte) error {
			var b models.Booking
			if err := json.Unmarshal(v, &b); err != nil {
				return fmt.Errorf("failed to unmarshal booking: %w", err)
			}
			bookings = append(bookings, b)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortBookings(bookings)
	return bookings, nil
}

// GetClientBookings scans every booking; the embedded store has no secondary index for clients.
func (repo *BoltSchedulerRepo) GetClientBookings(ctx context.Context, clientID string) ([]models.Booking, error) {
	bookings := make([]models.Booking, 0)
	err := repo.view(ctx, func(tx *bolt.Tx) error {
		return tx.Bucket(bucketBookings).ForEach(func(_, v []byte) error {
			var b models.Booking
			if err := json.Unmarshal(v, &b); err != nil {
				return fmt.Errorf("failed to unmarshal booking: %w", err)
			}
			if b.ClientID == clientID {
				bookings = append(bookings, b)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortBookings(bookings)
	return bookings, nil
}

func (repo *BoltSchedulerRepo) SetAttendance(ctx context.Context, sessionID, clientID string, attended bool) (*models.Booking, error) {
	var booking *models.Booking
	err := repo.update(ctx, func(tx *bolt.Tx) error {
		b, err := getBooking(tx, sessionID, clientID)
		if err != nil {
			return err
		}
		b.Attended = attended
		booking = b
		return putBooking(tx, b)
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func sortBookings(bookings []models.Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.Before(bookings[j].CreatedAt)
	})
}
