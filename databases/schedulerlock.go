package databases

// go generate: mockery --name SchedulerLockDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const schedulerLockName = "schedulerLocks"

// SchedulerLockDatabase provides a best-effort distributed lock so cron jobs
// run on one instance at a time
type SchedulerLockDatabase interface {
	TryAcquireLock(ctx context.Context, jobName, instanceID string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, jobName, instanceID string) error
}

type schedulerLockDatabase struct {
	db DatabaseHelper
}

// NewSchedulerLockDatabase initializes a new instance of schedulerLock database with the provided db connection
func NewSchedulerLockDatabase(db DatabaseHelper) SchedulerLockDatabase {
	return &schedulerLockDatabase{db: db}
}

// TryAcquireLock claims the named lock for instanceID via a single upserted
// conditional write. A lock held by another instance can be taken over only
// once its TTL has expired; the losing upsert surfaces as a duplicate key
// error on _id, which means "not acquired", not a fault.
func (s *schedulerLockDatabase) TryAcquireLock(ctx context.Context, jobName, instanceID string, ttl time.Duration) (bool, error) {
	now := time.Now()
	filter := bson.M{
		"_id": jobName,
		"$or": []bson.M{
			{"instanceId": instanceID},
			{"expiresAt": bson.M{"$lt": now}},
		},
	}
	update := bson.M{"$set": bson.M{
		"instanceId": instanceID,
		"expiresAt":  now.Add(ttl),
		"acquiredAt": now,
	}}

	res, err := s.db.Collection(schedulerLockName).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return res.MatchedCount == 1 || res.UpsertedCount == 1, nil
}

func (s *schedulerLockDatabase) ReleaseLock(ctx context.Context, jobName, instanceID string) error {
	return s.db.Collection(schedulerLockName).DeleteOne(ctx, bson.M{"_id": jobName, "instanceId": instanceID})
}
