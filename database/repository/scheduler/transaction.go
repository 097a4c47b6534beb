package schedulerRepo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// withTransaction runs fn in a multi-document transaction. Concurrent units of
// work on the same session collide on the session document and the driver
// retries the loser, which is what serializes occupancy and waitlist changes.
func (repo *MongoSchedulerRepo) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	ctx, cancel := context.WithTimeout(ctx, 3*opTimeout)
	defer cancel()

	sess, err := repo.client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
