package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/truthlens/truthlens-api/databases/mocks"
	"github.com/truthlens/truthlens-api/models"
)

func newTestQuotaChecker(db *mocks.ScanRecordDatabase) *QuotaChecker {
	q := NewQuotaChecker(db)
	q.now = func() time.Time { return time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC) }
	return q
}

func TestLimitForTier(t *testing.T) {
	assert.Equal(t, 5, LimitForTier(models.TierFree))
	assert.Equal(t, 25, LimitForTier(models.TierPlus))
	assert.Equal(t, 100, LimitForTier(models.TierPro))
	assert.Equal(t, Unlimited, LimitForTier(models.TierUltimate))
	assert.Equal(t, 5, LimitForTier(models.Tier("enterprise")))
}

func TestCheckLimitUnlimitedTierSkipsStore(t *testing.T) {
	db := &mocks.ScanRecordDatabase{}
	q := newTestQuotaChecker(db)

	dec, err := q.CheckLimit(context.Background(), "u1", models.TierUltimate)
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
	assert.Equal(t, Unlimited, dec.Remaining)
	assert.Equal(t, Unlimited, dec.Limit)
	db.AssertNotCalled(t, "CountDocuments", mock.Anything, mock.Anything)
}

func TestCheckLimitUnderLimit(t *testing.T) {
	db := &mocks.ScanRecordDatabase{}
	db.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(3), nil)
	q := newTestQuotaChecker(db)

	dec, err := q.CheckLimit(context.Background(), "u1", models.TierFree)
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
	assert.Equal(t, 2, dec.Remaining)
	assert.Equal(t, 5, dec.Limit)
}

func TestCheckLimitAtLimit(t *testing.T) {
	db := &mocks.ScanRecordDatabase{}
	db.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(5), nil)
	q := newTestQuotaChecker(db)

	dec, err := q.CheckLimit(context.Background(), "u1", models.TierFree)
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, 0, dec.Remaining)
}

func TestCheckLimitOverLimitClampsRemaining(t *testing.T) {
	db := &mocks.ScanRecordDatabase{}
	db.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(9), nil)
	q := newTestQuotaChecker(db)

	dec, err := q.CheckLimit(context.Background(), "u1", models.TierFree)
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, 0, dec.Remaining)
}

func TestCheckLimitCountsSinceLocalMidnight(t *testing.T) {
	db := &mocks.ScanRecordDatabase{}
	db.On("CountDocuments", mock.Anything, mock.MatchedBy(func(filter interface{}) bool {
		m, ok := filter.(bson.M)
		if !ok || m["userId"] != "u1" {
			return false
		}
		created, ok := m["createdAt"].(bson.M)
		if !ok {
			return false
		}
		start, ok := created["$gte"].(time.Time)
		return ok && start.Equal(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC))
	})).Return(int64(0), nil)
	q := newTestQuotaChecker(db)

	dec, err := q.CheckLimit(context.Background(), "u1", models.TierPlus)
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
	assert.Equal(t, 25, dec.Remaining)
	db.AssertExpectations(t)
}

func TestCheckLimitStoreFaultFailsOpen(t *testing.T) {
	db := &mocks.ScanRecordDatabase{}
	db.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), errors.New("server selection timeout"))
	q := newTestQuotaChecker(db)

	dec, err := q.CheckLimit(context.Background(), "u1", models.TierPro)
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
	assert.Equal(t, 1, dec.Remaining)
	assert.Equal(t, 100, dec.Limit)
}

func TestCheckLimitStoreFaultFailClosed(t *testing.T) {
	db := &mocks.ScanRecordDatabase{}
	db.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), errors.New("server selection timeout"))
	q := newTestQuotaChecker(db)
	q.Policy = FailClosed

	dec, err := q.CheckLimit(context.Background(), "u1", models.TierPro)
	require.Error(t, err)
	assert.False(t, dec.Allowed)
}
