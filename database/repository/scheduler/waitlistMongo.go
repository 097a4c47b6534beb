package schedulerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gymbook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AddToWaitlist appends the client to the end of a bookable session's queue.
func (repo *MongoSchedulerRepo) AddToWaitlist(ctx context.Context, entry *models.WaitlistEntry) error {
	return repo.withTransaction(ctx, func(sc mongo.SessionContext) error {
		current, err := repo.findSession(sc, entry.SessionID)
		if err != nil {
			return err
		}
		if !current.Status.Bookable() {
			return ErrSessionClosed
		}

		booked, err := repo.bookingColl.CountDocuments(sc, bson.M{"sessionId": entry.SessionID, "clientId": entry.ClientID})
		if err != nil {
			return fmt.Errorf("error checking existing booking: %w", err)
		}
		if booked > 0 {
			return ErrAlreadyBooked
		}

		queued, err := repo.waitlistColl.CountDocuments(sc, bson.M{"sessionId": entry.SessionID, "clientId": entry.ClientID})
		if err != nil {
			return fmt.Errorf("error checking waitlist: %w", err)
		}
		if queued > 0 {
			return ErrAlreadyWaitlisted
		}

		// The counter on the session document hands out positions; concurrent
		// appends conflict here and one of them is retried.
		var sess models.Session
		err = repo.sessionColl.FindOneAndUpdate(sc,
			bson.M{"id": entry.SessionID, "status": bson.M{"$in": models.BookableStatuses}},
			bson.M{"$inc": bson.M{"waitlistLength": 1}, "$set": bson.M{"updatedAt": time.Now().UTC()}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&sess)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrSessionClosed
		}
		if err != nil {
			return fmt.Errorf("error reserving waitlist position: %w", err)
		}

		entry.Position = sess.WaitlistLength
		if _, err := repo.waitlistColl.InsertOne(sc, entry); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrAlreadyWaitlisted
			}
			return fmt.Errorf("insert waitlist entry failed: %w", err)
		}
		return nil
	})
}

// RemoveFromWaitlist drops the client's entry and moves everyone behind it up one place.
func (repo *MongoSchedulerRepo) RemoveFromWaitlist(ctx context.Context, sessionID, clientID string) error {
	return repo.withTransaction(ctx, func(sc mongo.SessionContext) error {
		return repo.removeWaitlistTxn(sc, sessionID, clientID)
	})
}

func (repo *MongoSchedulerRepo) removeWaitlistTxn(sc mongo.SessionContext, sessionID, clientID string) error {
	var removed models.WaitlistEntry
	err := repo.waitlistColl.FindOneAndDelete(sc, bson.M{"sessionId": sessionID, "clientId": clientID}).Decode(&removed)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotWaitlisted
	}
	if err != nil {
		return fmt.Errorf("error removing waitlist entry: %w", err)
	}

	_, err = repo.waitlistColl.UpdateMany(sc,
		bson.M{"sessionId": sessionID, "position": bson.M{"$gt": removed.Position}},
		bson.M{"$inc": bson.M{"position": -1}},
	)
	if err != nil {
		return fmt.Errorf("error renumbering waitlist: %w", err)
	}

	_, err = repo.sessionColl.UpdateOne(sc,
		bson.M{"id": sessionID, "waitlistLength": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"waitlistLength": -1}, "$set": bson.M{"updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("error updating waitlist length: %w", err)
	}
	return nil
}

func (repo *MongoSchedulerRepo) findWaitlist(ctx context.Context, filter bson.M, sort bson.D) ([]models.WaitlistEntry, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := repo.waitlistColl.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("error finding waitlist entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := make([]models.WaitlistEntry, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("error decoding waitlist entries: %w", err)
	}
	return entries, nil
}

// GetSessionWaitlist returns the queue head first.
func (repo *MongoSchedulerRepo) GetSessionWaitlist(ctx context.Context, sessionID string) ([]models.WaitlistEntry, error) {
	return repo.findWaitlist(ctx, bson.M{"sessionId": sessionID}, bson.D{{Key: "position", Value: 1}})
}

// GetClientWaitlist returns the client's entries, most recently added first.
func (repo *MongoSchedulerRepo) GetClientWaitlist(ctx context.Context, clientID string) ([]models.WaitlistEntry, error) {
	return repo.findWaitlist(ctx, bson.M{"clientId": clientID}, bson.D{{Key: "addedAt", Value: -1}})
}
