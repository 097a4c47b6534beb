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

// CreateSessions inserts a batch of sessions in one transaction.
func (repo *MongoSchedulerRepo) CreateSessions(ctx context.Context, sessions []models.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	docs := make([]interface{}, len(sessions))
	for i := range sessions {
		docs[i] = sessions[i]
	}

	if len(docs) == 1 {
		ctx, cancel := withTimeout(ctx)
		defer cancel()
		if _, err := repo.sessionColl.InsertOne(ctx, docs[0]); err != nil {
			return fmt.Errorf("error creating session: %w", err)
		}
		return nil
	}

	err := repo.withTransaction(ctx, func(sc mongo.SessionContext) error {
		_, err := repo.sessionColl.InsertMany(sc, docs, options.InsertMany().SetOrdered(true))
		return err
	})
	if err != nil {
		return fmt.Errorf("error creating %d sessions: %w", len(docs), err)
	}
	return nil
}

// GetSessionByID retrieves a session by its ID.
func (repo *MongoSchedulerRepo) GetSessionByID(ctx context.Context, id string) (*models.Session, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return repo.findSession(ctx, id)
}

func (repo *MongoSchedulerRepo) findSession(ctx context.Context, id string) (*models.Session, error) {
	var sess models.Session
	if err := repo.sessionColl.FindOne(ctx, bson.M{"id": id}).Decode(&sess); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("error fetching session %s: %w", id, err)
	}
	return &sess, nil
}

// GetSessionsByDateRange returns sessions scheduled within [start, end], earliest first.
func (repo *MongoSchedulerRepo) GetSessionsByDateRange(ctx context.Context, start, end time.Time) ([]models.Session, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{"scheduledAt": bson.M{"$gte": start, "$lte": end}}
	opts := options.Find().SetSort(bson.D{{Key: "scheduledAt", Value: 1}})
	cursor, err := repo.sessionColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error querying sessions by date range: %w", err)
	}
	defer cursor.Close(ctx)

	sessions := make([]models.Session, 0)
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("error decoding sessions: %w", err)
	}
	return sessions, nil
}

// TransitionSession moves a session to `to` when its current status is in `from`.
func (repo *MongoSchedulerRepo) TransitionSession(ctx context.Context, id string, to models.SessionStatus, from []models.SessionStatus) (*models.Session, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{"id": id, "status": bson.M{"$in": from}}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var sess models.Session
	err := repo.sessionColl.FindOneAndUpdate(ctx, filter, update, opts).Decode(&sess)
	if err == nil {
		return &sess, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("error updating status of session %s: %w", id, err)
	}

	// No match: either the session is missing or it is in a state we cannot leave.
	current, err := repo.findSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == to {
		return current, nil
	}
	return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
}

// DeleteSession removes the session and cascades to its bookings and waitlist.
func (repo *MongoSchedulerRepo) DeleteSession(ctx context.Context, id string) error {
	return repo.withTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := repo.sessionColl.DeleteOne(sc, bson.M{"id": id})
		if err != nil {
			return fmt.Errorf("error deleting session %s: %w", id, err)
		}
		if res.DeletedCount == 0 {
			return ErrSessionNotFound
		}
		if _, err := repo.bookingColl.DeleteMany(sc, bson.M{"sessionId": id}); err != nil {
			return fmt.Errorf("error deleting bookings of session %s: %w", id, err)
		}
		if _, err := repo.waitlistColl.DeleteMany(sc, bson.M{"sessionId": id}); err != nil {
			return fmt.Errorf("error deleting waitlist of session %s: %w", id, err)
		}
		return nil
	})
}
