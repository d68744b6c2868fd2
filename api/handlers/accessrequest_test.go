package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/truthlens/truthlens-api/api/handlers"
	"github.com/truthlens/truthlens-api/databases/mocks"
	"github.com/truthlens/truthlens-api/models"
)

func pendingRequest() *models.AccessRequest {
	return &models.AccessRequest{
		ID:        primitive.NewObjectID(),
		UserID:    primitive.NewObjectID().Hex(),
		Name:      "Requester",
		Code:      "TL-GOOD-CODE",
		Tier:      models.TierPro,
		Status:    models.AccessRequestPending,
		CreatedAt: time.Now(),
	}
}

func TestListAccessRequests_StatusFilter(t *testing.T) {
	requestDB := &mocks.AccessRequestDatabase{}
	requestDB.On("Find", mock.Anything, bson.M{"status": models.AccessRequestPending}).Return([]models.AccessRequest{*pendingRequest()}, nil)

	h := handlers.AccessRequest{DB: requestDB}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/access-requests?status=pending", nil)
	rr := httptest.NewRecorder()

	http.HandlerFunc(h.ListAccessRequestsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var reqs []models.AccessRequest
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &reqs))
	assert.Len(t, reqs, 1)
	assert.Equal(t, models.AccessRequestPending, reqs[0].Status)
}

func TestApproveAccessRequest_Success(t *testing.T) {
	pending := pendingRequest()
	requestDB := &mocks.AccessRequestDatabase{}
	userDB := &mocks.UserDatabase{}

	requestDB.On("FindOne", mock.Anything, bson.M{"_id": pending.ID}).Return(pending, nil)
	// The approval write re-checks pending status so a concurrent decision
	// cannot be overwritten
	requestDB.On("UpdateOne", mock.Anything,
		bson.M{"_id": pending.ID, "status": models.AccessRequestPending},
		mock.Anything).Return(nil)
	userDB.On("UpdateOne", mock.Anything, mock.Anything, mock.MatchedBy(func(update interface{}) bool {
		set, ok := update.(bson.M)["$set"].(bson.M)
		return ok && set["tier"] == models.TierPro
	})).Return(nil)

	h := handlers.AccessRequest{DB: requestDB, UDB: userDB}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/access-requests/"+pending.ID.Hex()+"/approve", nil)
	req = mux.SetURLVars(req, map[string]string{"request_id": pending.ID.Hex()})
	rr := httptest.NewRecorder()

	http.HandlerFunc(h.ApproveAccessRequestHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Status          string    `json:"status"`
		AccessExpiresAt time.Time `json:"accessExpiresAt"`
	}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, models.AccessRequestApproved, resp.Status)
	assert.WithinDuration(t, time.Now().Add(6*30*24*time.Hour), resp.AccessExpiresAt, time.Minute)
	requestDB.AssertExpectations(t)
	userDB.AssertExpectations(t)
}

func TestApproveAccessRequest_AlreadyProcessed(t *testing.T) {
	processed := pendingRequest()
	processed.Status = models.AccessRequestApproved

	requestDB := &mocks.AccessRequestDatabase{}
	requestDB.On("FindOne", mock.Anything, mock.Anything).Return(processed, nil)

	h := handlers.AccessRequest{DB: requestDB}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/access-requests/"+processed.ID.Hex()+"/approve", nil)
	req = mux.SetURLVars(req, map[string]string{"request_id": processed.ID.Hex()})
	rr := httptest.NewRecorder()

	http.HandlerFunc(h.ApproveAccessRequestHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	requestDB.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestDenyAccessRequest_Success(t *testing.T) {
	pending := pendingRequest()
	requestDB := &mocks.AccessRequestDatabase{}

	requestDB.On("FindOne", mock.Anything, bson.M{"_id": pending.ID}).Return(pending, nil)
	requestDB.On("UpdateOne", mock.Anything,
		bson.M{"_id": pending.ID, "status": models.AccessRequestPending},
		mock.MatchedBy(func(update interface{}) bool {
			set, ok := update.(bson.M)["$set"].(bson.M)
			return ok && set["status"] == models.AccessRequestDenied && set["denialReason"] == "proof unreadable"
		})).Return(nil)

	h := handlers.AccessRequest{DB: requestDB}

	body, _ := json.Marshal(map[string]string{"reason": "proof unreadable"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/access-requests/"+pending.ID.Hex()+"/deny", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"request_id": pending.ID.Hex()})
	rr := httptest.NewRecorder()

	http.HandlerFunc(h.DenyAccessRequestHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, models.AccessRequestDenied, resp["status"])
	requestDB.AssertExpectations(t)
}

func TestDenyAccessRequest_InvalidID(t *testing.T) {
	h := handlers.AccessRequest{}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/access-requests/nope/deny", bytes.NewReader([]byte(`{}`)))
	req = mux.SetURLVars(req, map[string]string{"request_id": "nope"})
	rr := httptest.NewRecorder()

	http.HandlerFunc(h.DenyAccessRequestHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
