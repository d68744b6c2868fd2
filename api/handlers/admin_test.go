package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/truthlens/truthlens-api/api/handlers"
	"github.com/truthlens/truthlens-api/databases/mocks"
	"github.com/truthlens/truthlens-api/models"
)

func testAdmin(t *testing.T, password string) *models.AdminUser {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)
	return &models.AdminUser{
		ID:           primitive.NewObjectID(),
		Email:        "ops@truthlens.app",
		PasswordHash: string(hash),
		Active:       true,
		Roles:        []string{"admin"},
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

func withJWTSecret(t *testing.T, secret string) {
	t.Helper()
	old := os.Getenv("JWT_SECRET")
	os.Setenv("JWT_SECRET", secret)
	t.Cleanup(func() { os.Setenv("JWT_SECRET", old) })
}

func TestAdminLogin_Success(t *testing.T) {
	withJWTSecret(t, "test-secret")

	admin := testAdmin(t, "strong-pass")
	adminDB := &mocks.AdminDatabase{}
	adminDB.On("FindOne", mock.Anything, bson.M{"email": "ops@truthlens.app", "active": true}).Return(admin, nil)

	h := handlers.Admin{ADB: adminDB}

	body, _ := json.Marshal(map[string]string{"email": " Ops@TruthLens.app ", "password": "strong-pass"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	http.HandlerFunc(h.AdminLoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Token string `json:"token"`
		Admin struct {
			ID    string   `json:"id"`
			Email string   `json:"email"`
			Roles []string `json:"roles"`
		} `json:"admin"`
	}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, admin.ID.Hex(), resp.Admin.ID)
	assert.Equal(t, admin.Email, resp.Admin.Email)
}

func TestAdminLogin_WrongPassword(t *testing.T) {
	withJWTSecret(t, "test-secret")

	admin := testAdmin(t, "strong-pass")
	adminDB := &mocks.AdminDatabase{}
	adminDB.On("FindOne", mock.Anything, mock.Anything).Return(admin, nil)

	h := handlers.Admin{ADB: adminDB}

	body, _ := json.Marshal(map[string]string{"email": admin.Email, "password": "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	http.HandlerFunc(h.AdminLoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminLogin_UnknownAdmin(t *testing.T) {
	withJWTSecret(t, "test-secret")

	adminDB := &mocks.AdminDatabase{}
	adminDB.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)

	h := handlers.Admin{ADB: adminDB}

	body, _ := json.Marshal(map[string]string{"email": "ghost@truthlens.app", "password": "whatever"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	http.HandlerFunc(h.AdminLoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminLogin_MissingSecret(t *testing.T) {
	withJWTSecret(t, "")

	admin := testAdmin(t, "strong-pass")
	adminDB := &mocks.AdminDatabase{}
	adminDB.On("FindOne", mock.Anything, mock.Anything).Return(admin, nil)

	h := handlers.Admin{ADB: adminDB}

	body, _ := json.Marshal(map[string]string{"email": admin.Email, "password": "strong-pass"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	http.HandlerFunc(h.AdminLoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestAdminStats(t *testing.T) {
	userDB := &mocks.UserDatabase{}
	requestDB := &mocks.AccessRequestDatabase{}
	codeDB := &mocks.AccessCodeDatabase{}
	scanDB := &mocks.ScanRecordDatabase{}

	userDB.On("CountDocuments", mock.Anything, bson.M{}).Return(int64(120), nil)
	requestDB.On("CountDocuments", mock.Anything, bson.M{"status": models.AccessRequestPending}).Return(int64(7), nil)
	codeDB.On("CountDocuments", mock.Anything, bson.M{"active": true}).Return(int64(4), nil)
	scanDB.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(33), nil)

	h := handlers.Admin{UDB: userDB, RDB: requestDB, CDB: codeDB, SDB: scanDB}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	rr := httptest.NewRecorder()

	http.HandlerFunc(h.AdminStatsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]int64
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, int64(120), resp["users"])
	assert.Equal(t, int64(7), resp["pendingRequests"])
	assert.Equal(t, int64(4), resp["activeCodes"])
	assert.Equal(t, int64(33), resp["scansToday"])
}
