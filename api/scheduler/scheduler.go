package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/truthlens/truthlens-api/databases"
	"github.com/truthlens/truthlens-api/models"
	templates "github.com/truthlens/truthlens-api/templates/html"
)

const (
	scanRecordRetention    = 90 * 24 * time.Hour
	accessRequestRetention = 180 * 24 * time.Hour
)

// Scheduler handles periodic background jobs: expiring access codes and
// grants, and purging old records
type Scheduler struct {
	cron       *cron.Cron
	CDB        databases.AccessCodeDatabase
	RDB        databases.AccessRequestDatabase
	SDB        databases.ScanRecordDatabase
	UDB        databases.UserDatabase
	LockDB     databases.SchedulerLockDatabase
	instanceID string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(
	cDB databases.AccessCodeDatabase,
	rDB databases.AccessRequestDatabase,
	sDB databases.ScanRecordDatabase,
	uDB databases.UserDatabase,
	lockDB databases.SchedulerLockDatabase,
) *Scheduler {
	// Generate a unique instance ID for this pod
	instanceID := os.Getenv("DYNO") // Heroku sets this to "web.1", "web.2", etc.
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		CDB:        cDB,
		RDB:        rDB,
		SDB:        sDB,
		UDB:        uDB,
		LockDB:     lockDB,
		instanceID: instanceID,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Expire codes and access grants daily at 3 AM UTC
	_, err := s.cron.AddFunc("0 3 * * *", s.processExpirations)
	if err != nil {
		zap.S().Errorw("failed to register expiration job", "error", err)
	}

	// Purge old scan records and processed requests weekly, Sundays at 4 AM UTC
	_, err = s.cron.AddFunc("0 4 * * 0", s.purgeOldRecords)
	if err != nil {
		zap.S().Errorw("failed to register purge job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Access lifecycle scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Access lifecycle scheduler stopped")
}

// processExpirations deactivates expired access codes and reverts users whose
// access grant has run out
func (s *Scheduler) processExpirations() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Try to acquire distributed lock (10 minute TTL)
	acquired, err := s.LockDB.TryAcquireLock(ctx, "expiration_job", s.instanceID, 10*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for expiration job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Expiration job already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "expiration_job", s.instanceID)

	now := time.Now()
	zap.S().Infow("Running expiration job", "instance", s.instanceID)

	// Deactivate codes past their expiry so admin listings reflect reality.
	// Validation already treats them as expired either way.
	deactivated, err := s.CDB.UpdateMany(ctx,
		bson.M{"active": true, "expiresAt": bson.M{"$ne": nil, "$lt": now}},
		bson.M{"$set": bson.M{"active": false}},
	)
	if err != nil {
		zap.S().Errorw("failed to deactivate expired codes", "error", err)
	}

	// Find approved grants whose access window has closed and which have not
	// been reverted yet
	expired, err := s.RDB.Find(ctx, bson.M{
		"status":          models.AccessRequestApproved,
		"accessExpiresAt": bson.M{"$ne": nil, "$lt": now},
		"revertedAt":      nil,
	})
	if err != nil {
		zap.S().Errorw("failed to find expired access grants", "error", err)
		return
	}

	reverted := 0
	for _, req := range expired {
		if s.revertExpiredGrant(ctx, req) {
			reverted++
		}
	}

	zap.S().Infow("Expiration job complete",
		"codesDeactivated", deactivated,
		"grantsReverted", reverted,
	)
}

// revertExpiredGrant moves the user back to the free tier and marks the
// request so the next run skips it
func (s *Scheduler) revertExpiredGrant(ctx context.Context, req models.AccessRequest) bool {
	now := time.Now()

	// Only downgrade if the user still holds the granted tier. A paid
	// subscription taken out in the meantime stays untouched.
	err := s.UDB.UpdateOne(ctx,
		bson.M{"email": req.Email, "tier": req.Tier},
		bson.M{"$set": bson.M{"tier": models.TierFree, "updatedAt": now}},
	)
	if err != nil {
		zap.S().Errorw("failed to revert user tier", "error", err, "requestId", req.ID.Hex())
		return false
	}

	err = s.RDB.UpdateOne(ctx,
		bson.M{"_id": req.ID, "revertedAt": nil},
		bson.M{"$set": bson.M{"revertedAt": now}},
	)
	if err != nil {
		zap.S().Errorw("failed to mark grant reverted", "error", err, "requestId", req.ID.Hex())
		return false
	}

	if req.Email != "" {
		go s.sendExpiredEmail(req)
	}

	zap.S().Infow("Reverted expired access grant",
		"requestId", req.ID.Hex(),
		"tier", req.Tier,
	)
	return true
}

// purgeOldRecords trims scan history and processed access requests past their
// retention windows
func (s *Scheduler) purgeOldRecords() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Try to acquire distributed lock (15 minute TTL)
	acquired, err := s.LockDB.TryAcquireLock(ctx, "purge_job", s.instanceID, 15*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for purge job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Purge job already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "purge_job", s.instanceID)

	now := time.Now()
	zap.S().Infow("Running purge job", "instance", s.instanceID)

	scansDeleted, err := s.SDB.DeleteMany(ctx, bson.M{
		"createdAt": bson.M{"$lt": now.Add(-scanRecordRetention)},
	})
	if err != nil {
		zap.S().Errorw("failed to purge old scan records", "error", err)
	}

	// Pending requests are never purged, only ones an admin already handled
	requestsDeleted, err := s.RDB.DeleteMany(ctx, bson.M{
		"status":      bson.M{"$in": []string{models.AccessRequestApproved, models.AccessRequestDenied}},
		"processedAt": bson.M{"$ne": nil, "$lt": now.Add(-accessRequestRetention)},
	})
	if err != nil {
		zap.S().Errorw("failed to purge old access requests", "error", err)
	}

	zap.S().Infow("Purge job complete",
		"scansDeleted", scansDeleted,
		"requestsDeleted", requestsDeleted,
	)
}

func (s *Scheduler) sendExpiredEmail(req models.AccessRequest) {
	subject := "Your TruthLens access has expired"
	htmlContent := templates.RenderAccessExpiredEmail(req.Name, string(req.Tier))
	plainText := "Your TruthLens " + string(req.Tier) + " access period has ended and your account is back on the free tier."

	from := mail.NewEmail("TruthLens", "no-reply@truthlens.app")
	to := mail.NewEmail(req.Name, req.Email)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.Send(message)
	if err != nil {
		zap.S().Errorw("failed to send access expired email", "error", err, "requestId", req.ID.Hex())
		return
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
}
