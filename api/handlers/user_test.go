package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/truthlens/truthlens-api/api/handlers"
	"github.com/truthlens/truthlens-api/databases/mocks"
	"github.com/truthlens/truthlens-api/models"
)

func TestUserCreate_Success(t *testing.T) {
	userDB := &mocks.UserDatabase{}
	insRes := &mocks.InsertOneResultHelper{}
	oid := primitive.NewObjectID()

	userDB.On("CountDocuments", mock.Anything, bson.M{"email": "new@example.com"}).Return(int64(0), nil)
	insRes.On("Decode").Return(oid)
	userDB.On("InsertOne", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Email == "new@example.com" && u.Tier == models.TierFree && u.PasswordHash != "hunter22"
	})).Return(insRes, nil)

	h := handlers.User{DB: userDB}

	body, _ := json.Marshal(map[string]string{
		"email":    "New@Example.com",
		"name":     "New Person",
		"password": "hunter22",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/user/create-user", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	http.HandlerFunc(h.UserCreateHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	var resp map[string]string
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, oid.Hex(), resp["id"])
	assert.Equal(t, "new@example.com", resp["email"])
	assert.Equal(t, "free", resp["tier"])
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	userDB := &mocks.UserDatabase{}
	userDB.On("CountDocuments", mock.Anything, bson.M{"email": "taken@example.com"}).Return(int64(1), nil)

	h := handlers.User{DB: userDB}

	body, _ := json.Marshal(map[string]string{
		"email":    "taken@example.com",
		"password": "hunter22",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/user/create-user", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	http.HandlerFunc(h.UserCreateHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	userDB.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestUserCreate_MissingPassword(t *testing.T) {
	h := handlers.User{}

	body, _ := json.Marshal(map[string]string{"email": "new@example.com"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/user/create-user", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	http.HandlerFunc(h.UserCreateHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUserCheckEmail(t *testing.T) {
	userDB := &mocks.UserDatabase{}
	userDB.On("CountDocuments", mock.Anything, bson.M{"email": "taken@example.com"}).Return(int64(1), nil)

	h := handlers.User{DB: userDB}

	body, _ := json.Marshal(map[string]string{"email": " Taken@example.com "})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/user/check-user", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	http.HandlerFunc(h.UserCheckEmailHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]bool
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp["exists"])
}

func TestUserHandler_InvalidID(t *testing.T) {
	h := handlers.User{}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/not-a-hex-id", nil)
	rr := httptest.NewRecorder()

	http.HandlerFunc(h.UserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
