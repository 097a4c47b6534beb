package schedulerRepo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the lookup and uniqueness indexes the repository relies on.
func (repo *MongoSchedulerRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	plan := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{repo.sessionColl, []mongo.IndexModel{
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "scheduledAt", Value: 1}}},
			{Keys: bson.D{{Key: "parentSessionId", Value: 1}}, Options: options.Index().SetSparse(true)},
		}},
		{repo.bookingColl, []mongo.IndexModel{
			{Keys: bson.D{{Key: "sessionId", Value: 1}, {Key: "clientId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "clientId", Value: 1}, {Key: "createdAt", Value: 1}}},
		}},
		{repo.waitlistColl, []mongo.IndexModel{
			{Keys: bson.D{{Key: "sessionId", Value: 1}, {Key: "clientId", Value: 1}}, Options: options.Index().SetUnique(true)},
			// Not unique: positions shift one document at a time while the gap closes.
			{Keys: bson.D{{Key: "sessionId", Value: 1}, {Key: "position", Value: 1}}},
			{Keys: bson.D{{Key: "clientId", Value: 1}, {Key: "addedAt", Value: -1}}},
		}},
	}

	for _, p := range plan {
		if _, err := p.coll.Indexes().CreateMany(ctx, p.models); err != nil {
			return fmt.Errorf("error creating indexes on %s: %w", p.coll.Name(), err)
		}
	}
	return nil
}
