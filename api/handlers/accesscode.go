package handlers

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/truthlens/truthlens-api/access"
	"github.com/truthlens/truthlens-api/api"
	"github.com/truthlens/truthlens-api/config"
	"github.com/truthlens/truthlens-api/databases"
	"github.com/truthlens/truthlens-api/models"
)

// AccessCode exported for testing purposes
type AccessCode struct {
	DB        databases.AccessCodeDatabase
	RDB       databases.AccessRequestDatabase
	Validator *access.Validator
}

type validateCodeRequest struct {
	Code string `json:"code"`
}

type validateCodeResponse struct {
	Valid    bool             `json:"valid"`
	Reason   string           `json:"reason,omitempty"`
	CodeData *models.CodeData `json:"codeData,omitempty"`
}

type redeemCodeRequest struct {
	Code      string `json:"code"`
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	IsStudent bool   `json:"isStudent"`
}

// ValidateAccessCodeHandler checks a submitted code without consuming a use.
// Policy denials come back as 200 with valid=false; only store faults 500.
func (a AccessCode) ValidateAccessCodeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req validateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("invalid request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	result, err := a.Validator.Validate(ctx, req.Code)
	if err != nil {
		if errors.Is(err, access.ErrEmptyCode) {
			config.ErrorStatus("access code is required", http.StatusBadRequest, w, err)
			return
		}
		config.ErrorStatus("failed to validate access code", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(validateCodeResponse{
		Valid:    result.Valid,
		Reason:   result.Reason,
		CodeData: result.Code,
	})
}

// RedeemAccessCodeHandler validates a code, files a pending access request
// for admin review and then claims one use. The request is written first so
// a code use is never consumed without a request record behind it; the claim
// itself is a conditional increment, so concurrent redemptions can never
// push a code past its limit. A lost claim rolls the request back.
func (a AccessCode) RedeemAccessCodeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req redeemCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("invalid request body", http.StatusBadRequest, w, err)
		return
	}
	if req.UserID == "" || req.Email == "" {
		config.ErrorStatus("userId and email are required", http.StatusBadRequest, w, nil)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	result, err := a.Validator.Validate(ctx, req.Code)
	if err != nil {
		if errors.Is(err, access.ErrEmptyCode) {
			config.ErrorStatus("access code is required", http.StatusBadRequest, w, err)
			return
		}
		config.ErrorStatus("failed to validate access code", http.StatusInternalServerError, w, err)
		return
	}
	if !result.Valid {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(validateCodeResponse{Valid: false, Reason: result.Reason})
		return
	}

	codeID, err := primitive.ObjectIDFromHex(result.Code.ID)
	if err != nil {
		config.ErrorStatus("invalid code id", http.StatusInternalServerError, w, err)
		return
	}

	request := models.AccessRequest{
		UserID:    req.UserID,
		Name:      req.Name,
		Email:     strings.TrimSpace(strings.ToLower(req.Email)),
		Code:      result.Code.Code,
		Tier:      result.Code.Tier,
		IsStudent: req.IsStudent,
		Status:    models.AccessRequestPending,
		CreatedAt: time.Now(),
		CodeID:    &codeID,
	}
	res, err := a.RDB.InsertOne(ctx, request)
	if err != nil {
		config.ErrorStatus("failed to record access request", http.StatusInternalServerError, w, err)
		return
	}
	requestOID, _ := res.Decode().(primitive.ObjectID)

	claimed, err := a.DB.IncrementUsage(ctx, codeID, result.UsageLimit)
	if err != nil || !claimed {
		// No use was consumed, so the request must not stand
		a.rollbackRequest(ctx, requestOID, result.Code.Code)
		if err != nil {
			config.ErrorStatus("failed to redeem access code", http.StatusInternalServerError, w, err)
			return
		}
		// Lost the race for the last slot
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(validateCodeResponse{Valid: false, Reason: access.ReasonUsageLimitReached})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"valid":    true,
		"codeData": result.Code,
		"status":   models.AccessRequestPending,
	})
}

// rollbackRequest removes a request whose code use could not be claimed. A
// failed rollback leaves a pending request for a slot that was never taken;
// admins see it, so log loudly but do not fail the response over it.
func (a AccessCode) rollbackRequest(ctx context.Context, requestOID primitive.ObjectID, code string) {
	if requestOID.IsZero() {
		return
	}
	if _, err := a.RDB.DeleteMany(ctx, bson.M{"_id": requestOID}); err != nil {
		zap.S().Errorw("failed to roll back access request after unclaimed code use",
			"code", code,
			"requestId", requestOID.Hex(),
			"error", err)
	}
}

type createCodeRequest struct {
	Code       string      `json:"code"`
	Tier       models.Tier `json:"tier"`
	Type       string      `json:"type"`
	UsageLimit int         `json:"usageLimit"`
	ExpiresAt  *time.Time  `json:"expiresAt"`
}

// CreateAccessCodeHandler creates a new code (admin). When no code string is
// supplied one is generated.
func (a AccessCode) CreateAccessCodeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req createCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("invalid request body", http.StatusBadRequest, w, err)
		return
	}
	if !models.ValidTier(req.Tier) {
		config.ErrorStatus("invalid tier", http.StatusBadRequest, w, nil)
		return
	}

	code := access.Canonicalize(req.Code)
	if code == "" {
		generated, err := generateAccessCode()
		if err != nil {
			config.ErrorStatus("failed to generate code", http.StatusInternalServerError, w, err)
			return
		}
		code = generated
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	claims, _ := api.AdminFromContext(r.Context())

	accessCode := models.AccessCode{
		Code:       code,
		Tier:       req.Tier,
		Type:       req.Type,
		UsageLimit: req.UsageLimit,
		ExpiresAt:  req.ExpiresAt,
		Active:     true,
		CreatedBy:  claims.Email,
		CreatedAt:  time.Now(),
	}
	if _, err := a.DB.InsertOne(ctx, accessCode); err != nil {
		config.ErrorStatus("failed to create access code", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(accessCode)
}

// ListAccessCodesHandler returns all codes (admin)
func (a AccessCode) ListAccessCodesHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	filter := bson.M{}
	if active := r.URL.Query().Get("active"); active != "" {
		filter["active"] = active == "true"
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	codes, err := a.DB.Find(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to list access codes", http.StatusInternalServerError, w, err)
		return
	}
	if codes == nil {
		codes = []models.AccessCode{}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(codes)
}

// DeactivateAccessCodeHandler turns a code off without deleting its history
func (a AccessCode) DeactivateAccessCodeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	codeID := mux.Vars(r)["code_id"]
	oid, err := primitive.ObjectIDFromHex(codeID)
	if err != nil {
		config.ErrorStatus("invalid code id", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := a.DB.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"active": false}}); err != nil {
		config.ErrorStatus("failed to deactivate access code", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "deactivated"})
}

// DeleteAccessCodeHandler removes a code entirely (admin)
func (a AccessCode) DeleteAccessCodeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	codeID := mux.Vars(r)["code_id"]
	oid, err := primitive.ObjectIDFromHex(codeID)
	if err != nil {
		config.ErrorStatus("invalid code id", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := a.DB.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		config.ErrorStatus("failed to delete access code", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}

// codeAlphabet excludes ambiguous characters (0/O, 1/I/L)
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// generateAccessCode returns a random code like TL-7KQ2-XM4P
func generateAccessCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	chars := make([]byte, 8)
	for i, b := range buf {
		chars[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return fmt.Sprintf("TL-%s-%s", chars[:4], chars[4:]), nil
}
