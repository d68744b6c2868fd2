package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/truthlens/truthlens-api/access"
	"github.com/truthlens/truthlens-api/ai"
	"github.com/truthlens/truthlens-api/api"
	"github.com/truthlens/truthlens-api/config"
	"github.com/truthlens/truthlens-api/databases"
	"github.com/truthlens/truthlens-api/models"
)

// Scan exported for testing purposes
type Scan struct {
	DB       databases.ScanRecordDatabase
	UDB      databases.UserDatabase
	Quota    *access.QuotaChecker
	Analyzer ai.Analyzer
}

type createScanRequest struct {
	ScanType    string `json:"scanType"`
	ProductName string `json:"productName"`
	Input       string `json:"input"`
}

// callerID resolves the authenticated caller behind api.Middleware. The
// identity a quota or history read keys on must come from the credential,
// never from the request body or query string.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	info, err := api.AuthenticatedUser(r)
	if err != nil {
		config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, err)
		return "", false
	}
	return info.ID(), true
}

// quotaLimitJSON maps the unlimited sentinel to null at the HTTP boundary
func quotaLimitJSON(limit int) *int {
	if limit == access.Unlimited {
		return nil
	}
	return &limit
}

func (s Scan) userTier(r *http.Request, userID string) models.Tier {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return models.TierFree
	}
	user, err := s.UDB.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		zap.S().Warnw("failed to resolve user tier, treating as free",
			"userId", userID,
			"error", err)
		return models.TierFree
	}
	return user.Tier
}

// ScanQuotaHandler reports how many scans the caller has left today
func (s Scan) ScanQuotaHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	tier := s.userTier(r, userID)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dec, err := s.Quota.CheckLimit(ctx, userID, tier)
	if err != nil {
		config.ErrorStatus("failed to check scan quota", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.QuotaResponse{
		Allowed:   dec.Allowed,
		Remaining: dec.Remaining,
		Limit:     quotaLimitJSON(dec.Limit),
	})
}

// CreateScanHandler runs one product analysis: quota check, AI analysis,
// then the scan record that the next quota check will count.
func (s Scan) CreateScanHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req createScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("invalid request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Input == "" {
		config.ErrorStatus("input is required", http.StatusBadRequest, w, nil)
		return
	}

	tier := s.userTier(r, userID)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dec, err := s.Quota.CheckLimit(ctx, userID, tier)
	if err != nil {
		config.ErrorStatus("failed to check scan quota", http.StatusInternalServerError, w, err)
		return
	}
	if !dec.Allowed {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(models.QuotaResponse{
			Allowed:   false,
			Remaining: 0,
			Limit:     quotaLimitJSON(dec.Limit),
		})
		return
	}

	// The analysis itself runs on the request context, not the query
	// timeout; completions are slow.
	summary, err := s.Analyzer.Analyze(r.Context(), req.ScanType, req.Input)
	if err != nil {
		config.ErrorStatus("analysis failed", http.StatusBadGateway, w, err)
		return
	}

	record := models.ScanRecord{
		UserID:      userID,
		ScanType:    req.ScanType,
		ProductName: req.ProductName,
		Input:       req.Input,
		Summary:     summary,
		CreatedAt:   time.Now(),
	}
	if _, err := s.DB.InsertOne(ctx, record); err != nil {
		// The user got their analysis; losing the record only means this
		// scan escapes tomorrow's count
		zap.S().Errorw("failed to persist scan record", "userId", userID, "error", err)
	}

	remaining := dec.Remaining
	if remaining != access.Unlimited && remaining > 0 {
		remaining--
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"summary":   summary,
		"remaining": remaining,
		"limit":     quotaLimitJSON(dec.Limit),
	})
}

// ScanHistoryHandler returns the caller's recent scans, newest first
func (s Scan) ScanHistoryHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	limit := int64(50)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	recs, err := s.DB.Find(ctx, bson.M{"userId": userID},
		options.Find().SetSort(bson.M{"createdAt": -1}).SetLimit(limit))
	if err != nil {
		config.ErrorStatus("failed to fetch scan history", http.StatusInternalServerError, w, err)
		return
	}
	if recs == nil {
		recs = []models.ScanRecord{}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(recs)
}
