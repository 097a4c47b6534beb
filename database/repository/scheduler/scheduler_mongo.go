package schedulerRepo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const opTimeout = 5 * time.Second

// MongoSchedulerRepo implements SchedulerRepository using MongoDB.
// Multi-document units of work require a replica set.
type MongoSchedulerRepo struct {
	client       *mongo.Client
	sessionColl  *mongo.Collection
	bookingColl  *mongo.Collection
	waitlistColl *mongo.Collection
}

// NewMongoSchedulerRepo constructs a new instance of MongoSchedulerRepo.
func NewMongoSchedulerRepo(client *mongo.Client, dbName string) SchedulerRepository {
	db := client.Database(dbName)
	return &MongoSchedulerRepo{
		client:       client,
		sessionColl:  db.Collection("sessions"),
		bookingColl:  db.Collection("bookings"),
		waitlistColl: db.Collection("waitlist"),
	}
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, opTimeout)
}

func (repo *MongoSchedulerRepo) Ping(ctx context.Context) error {
	return repo.client.Ping(ctx, readpref.Primary())
}
