package access

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/truthlens/truthlens-api/databases"
	"github.com/truthlens/truthlens-api/models"
)

// Unlimited is the sentinel daily limit for tiers without a scan cap
const Unlimited = -1

// dailyScanLimits maps each tier to its scans-per-day allowance
var dailyScanLimits = map[models.Tier]int{
	models.TierFree:     5,
	models.TierPlus:     25,
	models.TierPro:      100,
	models.TierUltimate: Unlimited,
}

// LimitForTier resolves the daily scan limit for a tier. Unknown tiers get
// the free allowance rather than a hard deny.
func LimitForTier(tier models.Tier) int {
	if limit, ok := dailyScanLimits[tier]; ok {
		return limit
	}
	return dailyScanLimits[models.TierFree]
}

// Decision reports whether another scan may proceed today
type Decision struct {
	Allowed   bool
	Remaining int
	Limit     int
}

// QuotaChecker computes per-user daily scan quota from the scan history.
// Default policy is fail-open: if the count query faults, availability wins
// over strict enforcement and the scan is allowed.
type QuotaChecker struct {
	DB     databases.ScanRecordDatabase
	Policy FailurePolicy

	now func() time.Time
}

// NewQuotaChecker returns a fail-open quota checker backed by db
func NewQuotaChecker(db databases.ScanRecordDatabase) *QuotaChecker {
	return &QuotaChecker{DB: db, Policy: FailOpen, now: time.Now}
}

// CheckLimit decides whether userID may perform another scan today.
// Unlimited tiers short-circuit without touching the store; everything else
// is a single aggregate count since local midnight, so the cost stays one
// round-trip regardless of history size.
func (q *QuotaChecker) CheckLimit(ctx context.Context, userID string, tier models.Tier) (Decision, error) {
	limit := LimitForTier(tier)
	if limit == Unlimited {
		return Decision{Allowed: true, Remaining: Unlimited, Limit: Unlimited}, nil
	}

	now := q.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	count, err := q.DB.CountDocuments(ctx, bson.M{
		"userId":    userID,
		"createdAt": bson.M{"$gte": startOfDay},
	})
	if err != nil {
		if q.Policy == FailClosed {
			return Decision{Allowed: false, Remaining: 0, Limit: limit}, err
		}
		zap.S().Warnw("scan count query failed, failing open",
			"userId", userID,
			"error", err,
		)
		return Decision{Allowed: true, Remaining: 1, Limit: limit}, nil
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: int(count) < limit, Remaining: remaining, Limit: limit}, nil
}
