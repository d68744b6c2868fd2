package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/truthlens/truthlens-api/databases/mocks"
	"github.com/truthlens/truthlens-api/models"
)

func newTestValidator(db *mocks.AccessCodeDatabase) *Validator {
	v := NewValidator(db)
	v.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return v
}

func TestCanonicalize(t *testing.T) {
	assert.Equal(t, "BETA-2025", Canonicalize("  beta-2025 "))
	assert.Equal(t, "TL-PRO", Canonicalize("tl-pro"))
	assert.Equal(t, "", Canonicalize("   "))
}

func TestValidateEmptyCode(t *testing.T) {
	db := &mocks.AccessCodeDatabase{}
	v := newTestValidator(db)

	_, err := v.Validate(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyCode)
	db.AssertNotCalled(t, "FindActiveByCode", mock.Anything, mock.Anything)
}

func TestValidateUnknownCode(t *testing.T) {
	db := &mocks.AccessCodeDatabase{}
	db.On("FindActiveByCode", mock.Anything, "NOPE").Return(nil, mongo.ErrNoDocuments)
	v := newTestValidator(db)

	res, err := v.Validate(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, ReasonInvalidOrInactive, res.Reason)
	assert.Nil(t, res.Code)
}

func TestValidateExpiredCode(t *testing.T) {
	expired := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	db := &mocks.AccessCodeDatabase{}
	db.On("FindActiveByCode", mock.Anything, "OLD-CODE").Return(&models.AccessCode{
		ID:        primitive.NewObjectID(),
		Code:      "OLD-CODE",
		Tier:      models.TierPro,
		Active:    true,
		ExpiresAt: &expired,
	}, nil)
	v := newTestValidator(db)

	res, err := v.Validate(context.Background(), "old-code")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, ReasonExpired, res.Reason)
}

func TestValidateExpiryBeforeUsageLimit(t *testing.T) {
	// A code that is both expired and exhausted reports expired first
	expired := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	db := &mocks.AccessCodeDatabase{}
	db.On("FindActiveByCode", mock.Anything, "DOUBLE-BAD").Return(&models.AccessCode{
		ID:         primitive.NewObjectID(),
		Code:       "DOUBLE-BAD",
		Active:     true,
		ExpiresAt:  &expired,
		UsageLimit: 10,
		UsedCount:  10,
	}, nil)
	v := newTestValidator(db)

	res, err := v.Validate(context.Background(), "double-bad")
	require.NoError(t, err)
	assert.Equal(t, ReasonExpired, res.Reason)
}

func TestValidateUsageLimitReached(t *testing.T) {
	db := &mocks.AccessCodeDatabase{}
	db.On("FindActiveByCode", mock.Anything, "FULL").Return(&models.AccessCode{
		ID:         primitive.NewObjectID(),
		Code:       "FULL",
		Active:     true,
		UsageLimit: 100,
		UsedCount:  100,
	}, nil)
	v := newTestValidator(db)

	res, err := v.Validate(context.Background(), "FULL")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, ReasonUsageLimitReached, res.Reason)
}

func TestValidateUnlimitedCodeIgnoresUsedCount(t *testing.T) {
	db := &mocks.AccessCodeDatabase{}
	db.On("FindActiveByCode", mock.Anything, "OPEN").Return(&models.AccessCode{
		ID:         primitive.NewObjectID(),
		Code:       "OPEN",
		Tier:       models.TierPlus,
		Active:     true,
		UsageLimit: 0,
		UsedCount:  100000,
	}, nil)
	v := newTestValidator(db)

	res, err := v.Validate(context.Background(), "open")
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestValidateSuccess(t *testing.T) {
	id := primitive.NewObjectID()
	future := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	db := &mocks.AccessCodeDatabase{}
	db.On("FindActiveByCode", mock.Anything, "BETA-2025").Return(&models.AccessCode{
		ID:         id,
		Code:       "BETA-2025",
		Tier:       models.TierPro,
		Type:       "beta",
		Active:     true,
		UsageLimit: 100,
		UsedCount:  42,
		ExpiresAt:  &future,
	}, nil)
	v := newTestValidator(db)

	res, err := v.Validate(context.Background(), "  beta-2025 ")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Reason)
	assert.Equal(t, 100, res.UsageLimit)
	require.NotNil(t, res.Code)
	assert.Equal(t, id.Hex(), res.Code.ID)
	assert.Equal(t, "BETA-2025", res.Code.Code)
	assert.Equal(t, models.TierPro, res.Code.Tier)
	assert.Equal(t, "beta", res.Code.Type)
}

func TestValidateStoreFaultFailsClosed(t *testing.T) {
	db := &mocks.AccessCodeDatabase{}
	db.On("FindActiveByCode", mock.Anything, "ANY").Return(nil, errors.New("connection reset"))
	v := newTestValidator(db)

	res, err := v.Validate(context.Background(), "any")
	require.Error(t, err)
	assert.False(t, res.Valid)
	// The fault must not be mistaken for a policy denial
	assert.Empty(t, res.Reason)
}

func TestValidateStoreFaultFailOpenStillDenies(t *testing.T) {
	db := &mocks.AccessCodeDatabase{}
	db.On("FindActiveByCode", mock.Anything, "ANY").Return(nil, errors.New("connection reset"))
	v := newTestValidator(db)
	v.Policy = FailOpen

	res, err := v.Validate(context.Background(), "any")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, ReasonUnavailable, res.Reason)
}

func TestValidateDoesNotIncrementUsage(t *testing.T) {
	db := &mocks.AccessCodeDatabase{}
	db.On("FindActiveByCode", mock.Anything, "BETA-2025").Return(&models.AccessCode{
		ID:     primitive.NewObjectID(),
		Code:   "BETA-2025",
		Tier:   models.TierFree,
		Active: true,
	}, nil)
	v := newTestValidator(db)

	_, err := v.Validate(context.Background(), "BETA-2025")
	require.NoError(t, err)
	db.AssertNotCalled(t, "IncrementUsage", mock.Anything, mock.Anything, mock.Anything)
	db.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}
