package access

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/truthlens/truthlens-api/databases"
	"github.com/truthlens/truthlens-api/models"
)

// Reasons returned for policy-negative validation outcomes. These are
// first-class results, not errors; callers return them with a 200.
const (
	ReasonInvalidOrInactive = "invalid or inactive"
	ReasonExpired           = "expired"
	ReasonUsageLimitReached = "usage limit reached"
	ReasonUnavailable       = "validation temporarily unavailable"
)

// ErrEmptyCode is an input error: the submitted code was empty after
// canonicalization. Handlers map it to a 400.
var ErrEmptyCode = errors.New("access code is required")

// FailurePolicy controls how a component reports a backing-store fault.
// The asymmetry between the code validator (closed) and the quota counter
// (open) is a business decision, kept visible here instead of hard-coded.
type FailurePolicy int

const (
	// FailClosed surfaces store faults as errors; the caller denies.
	FailClosed FailurePolicy = iota
	// FailOpen degrades store faults to the component's permissive outcome.
	FailOpen
)

// Result is the outcome of validating an access code. Exactly one of
// Valid/Reason carries meaning: valid results include the minimal code
// data a caller needs, invalid results carry a human-readable reason.
// UsageLimit rides along on valid results so redemption can claim a use
// without re-reading the record.
type Result struct {
	Valid      bool
	Reason     string
	Code       *models.CodeData
	UsageLimit int
}

// Validator checks submitted access codes against activation, expiry and
// usage-limit rules. It never increments usage; redemption does that in a
// separate step once the request record is committed.
type Validator struct {
	DB     databases.AccessCodeDatabase
	Policy FailurePolicy

	now func() time.Time
}

// NewValidator returns a fail-closed validator backed by db
func NewValidator(db databases.AccessCodeDatabase) *Validator {
	return &Validator{DB: db, Policy: FailClosed, now: time.Now}
}

// Canonicalize normalizes a submitted code for lookup: trimmed, uppercase
func Canonicalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate applies the redemption rules in order; the first matching rule
// determines the reason the caller sees.
func (v *Validator) Validate(ctx context.Context, code string) (Result, error) {
	canonical := Canonicalize(code)
	if canonical == "" {
		return Result{}, ErrEmptyCode
	}

	rec, err := v.DB.FindActiveByCode(ctx, canonical)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Result{Reason: ReasonInvalidOrInactive}, nil
		}
		// A store fault is never proof the code is wrong. Fail-closed
		// surfaces it so the client can distinguish and retry; fail-open
		// still denies (there is nothing safe to grant) but reports a
		// negative result instead of an error.
		zap.S().Errorw("access code lookup failed", "error", err)
		if v.Policy == FailOpen {
			return Result{Reason: ReasonUnavailable}, nil
		}
		return Result{}, fmt.Errorf("access code lookup: %w", err)
	}

	if rec.ExpiresAt != nil && rec.ExpiresAt.Before(v.now()) {
		return Result{Reason: ReasonExpired}, nil
	}
	if rec.UsageLimit > 0 && rec.UsedCount >= rec.UsageLimit {
		return Result{Reason: ReasonUsageLimitReached}, nil
	}

	return Result{
		Valid:      true,
		UsageLimit: rec.UsageLimit,
		Code: &models.CodeData{
			ID:   rec.ID.Hex(),
			Code: rec.Code,
			Tier: rec.Tier,
			Type: rec.Type,
		},
	}, nil
}
