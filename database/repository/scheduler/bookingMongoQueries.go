package schedulerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gymbook/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// seatAvailableFilter matches the session only while it is bookable and has a free seat,
// so the $inc that uses it is a compare-and-increment.
func seatAvailableFilter(sessionID string) bson.M {
	return bson.M{
		"id":     sessionID,
		"status": bson.M{"$in": models.BookableStatuses},
		"$expr":  bson.M{"$lt": bson.A{"$currentCapacity", "$maxCapacity"}},
	}
}

// BookSessionSpot inserts the booking and takes a seat in a single transaction.
func (repo *MongoSchedulerRepo) BookSessionSpot(ctx context.Context, booking *models.Booking) error {
	return repo.withTransaction(ctx, func(sc mongo.SessionContext) error {
		return repo.bookSpotTxn(sc, booking)
	})
}

func (repo *MongoSchedulerRepo) bookSpotTxn(sc mongo.SessionContext, booking *models.Booking) error {
	sess, err := repo.findSession(sc, booking.SessionID)
	if err != nil {
		return err
	}
	if !sess.Status.Bookable() {
		return ErrSessionClosed
	}

	n, err := repo.bookingColl.CountDocuments(sc, bson.M{"sessionId": booking.SessionID, "clientId": booking.ClientID})
	if err != nil {
		return fmt.Errorf("error checking existing booking: %w", err)
	}
	if n > 0 {
		return ErrAlreadyBooked
	}

	res, err := repo.sessionColl.UpdateOne(sc, seatAvailableFilter(booking.SessionID), bson.M{
		"$inc": bson.M{"currentCapacity": 1},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("error taking seat in session %s: %w", booking.SessionID, err)
	}
	if res.MatchedCount == 0 {
		return ErrSessionFull
	}

	if _, err := repo.bookingColl.InsertOne(sc, booking); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyBooked
		}
		return fmt.Errorf("insert booking failed: %w", err)
	}

	// A client who books directly no longer needs their place in the queue.
	if err := repo.removeWaitlistTxn(sc, booking.SessionID, booking.ClientID); err != nil && !errors.Is(err, ErrNotWaitlisted) {
		return err
	}
	return nil
}

// CancelBooking releases the client's seat and promotes the head of the waitlist.
func (repo *MongoSchedulerRepo) CancelBooking(ctx context.Context, sessionID, clientID string) (*models.Booking, error) {
	var promoted *models.Booking
	err := repo.withTransaction(ctx, func(sc mongo.SessionContext) error {
		promoted = nil

		res, err := repo.bookingColl.DeleteOne(sc, bson.M{"sessionId": sessionID, "clientId": clientID})
		if err != nil {
			return fmt.Errorf("error deleting booking: %w", err)
		}
		if res.DeletedCount == 0 {
			return ErrNotBooked
		}

		_, err = repo.sessionColl.UpdateOne(sc,
			bson.M{"id": sessionID, "currentCapacity": bson.M{"$gt": 0}},
			bson.M{"$inc": bson.M{"currentCapacity": -1}, "$set": bson.M{"updatedAt": time.Now().UTC()}},
		)
		if err != nil {
			return fmt.Errorf("error releasing seat in session %s: %w", sessionID, err)
		}

		promoted, err = repo.promoteHeadTxn(sc, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return promoted, nil
}

// promoteHeadTxn moves the waitlist head into a free seat. It is a no-op when the
// session has no free seat, is no longer bookable or has an empty waitlist.
func (repo *MongoSchedulerRepo) promoteHeadTxn(sc mongo.SessionContext, sessionID string) (*models.Booking, error) {
	sess, err := repo.findSession(sc, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !sess.Status.Bookable() || sess.CurrentCapacity >= sess.MaxCapacity || sess.WaitlistLength == 0 {
		return nil, nil
	}

	var head models.WaitlistEntry
	err = repo.waitlistColl.FindOne(sc, bson.M{"sessionId": sessionID, "position": 1}).Decode(&head)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading waitlist head: %w", err)
	}

	if err := repo.removeWaitlistTxn(sc, sessionID, head.ClientID); err != nil {
		return nil, err
	}

	booking := &models.Booking{
		ID:                   uuid.New().String(),
		SessionID:            sessionID,
		ClientID:             head.ClientID,
		PromotedFromWaitlist: true,
		CreatedAt:            time.Now().UTC(),
	}
	res, err := repo.sessionColl.UpdateOne(sc, seatAvailableFilter(sessionID), bson.M{
		"$inc": bson.M{"currentCapacity": 1},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return nil, fmt.Errorf("error assigning seat to waitlisted client: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, ErrSessionFull
	}
	if _, err := repo.bookingColl.InsertOne(sc, booking); err != nil {
		return nil, fmt.Errorf("insert promoted booking failed: %w", err)
	}
	return booking, nil
}

// GetBooking returns the booking of one client in one session.
func (repo *MongoSchedulerRepo) GetBooking(ctx context.Context, sessionID, clientID string) (*models.Booking, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var booking models.Booking
	err := repo.bookingColl.FindOne(ctx, bson.M{"sessionId": sessionID, "clientId": clientID}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotBooked
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching booking: %w", err)
	}
	return &booking, nil
}

func (repo *MongoSchedulerRepo) findBookings(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := repo.bookingColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := make([]models.Booking, 0)
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}

// GetSessionBookings lists a session's bookings in creation order.
func (repo *MongoSchedulerRepo) GetSessionBookings(ctx context.Context, sessionID string) ([]models.Booking, error) {
	return repo.findBookings(ctx, bson.M{"sessionId": sessionID})
}

// GetClientBookings lists a client's bookings in creation order.
func (repo *MongoSchedulerRepo) GetClientBookings(ctx context.Context, clientID string) ([]models.Booking, error) {
	return repo.findBookings(ctx, bson.M{"clientId": clientID})
}

// SetAttendance records whether the client attended.
func (repo *MongoSchedulerRepo) SetAttendance(ctx context.Context, sessionID, clientID string, attended bool) (*models.Booking, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var booking models.Booking
	err := repo.bookingColl.FindOneAndUpdate(ctx,
		bson.M{"sessionId": sessionID, "clientId": clientID},
		bson.M{"$set": bson.M{"attended": attended}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotBooked
	}
	if err != nil {
		return nil, fmt.Errorf("error updating attendance: %w", err)
	}
	return &booking, nil
}
