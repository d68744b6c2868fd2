package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/truthlens/truthlens-api/api"
	"github.com/truthlens/truthlens-api/config"
	"github.com/truthlens/truthlens-api/databases"
	"github.com/truthlens/truthlens-api/models"
	templates "github.com/truthlens/truthlens-api/templates/html"
)

// Access granted through an approved request lasts six months
const accessGrantDuration = 6 * 30 * 24 * time.Hour

// AccessRequest exported for testing purposes
type AccessRequest struct {
	DB  databases.AccessRequestDatabase
	UDB databases.UserDatabase
}

// ListAccessRequestsHandler returns requests for the admin console,
// optionally filtered by status
func (a AccessRequest) ListAccessRequestsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	filter := bson.M{}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	reqs, err := a.DB.Find(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to list access requests", http.StatusInternalServerError, w, err)
		return
	}
	if reqs == nil {
		reqs = []models.AccessRequest{}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(reqs)
}

// ApproveAccessRequestHandler approves a pending request: the requesting
// user is moved to the code's tier for the grant period and notified.
func (a AccessRequest) ApproveAccessRequestHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	requestID := mux.Vars(r)["request_id"]
	oid, err := primitive.ObjectIDFromHex(requestID)
	if err != nil {
		config.ErrorStatus("invalid request id", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	req, err := a.DB.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		config.ErrorStatus("access request not found", http.StatusNotFound, w, err)
		return
	}
	if req.Status != models.AccessRequestPending {
		config.ErrorStatus("access request already processed", http.StatusConflict, w, nil)
		return
	}

	claims, _ := api.AdminFromContext(r.Context())
	now := time.Now()
	expiresAt := now.Add(accessGrantDuration)

	update := bson.M{"$set": bson.M{
		"status":          models.AccessRequestApproved,
		"processedAt":     now,
		"processedBy":     claims.Email,
		"accessExpiresAt": expiresAt,
	}}
	if err := a.DB.UpdateOne(ctx, bson.M{"_id": oid, "status": models.AccessRequestPending}, update); err != nil {
		config.ErrorStatus("failed to approve access request", http.StatusInternalServerError, w, err)
		return
	}

	if userOID, err := primitive.ObjectIDFromHex(req.UserID); err == nil {
		userUpdate := bson.M{"$set": bson.M{
			"tier":      req.Tier,
			"updatedAt": now,
		}}
		if err := a.UDB.UpdateOne(ctx, bson.M{"_id": userOID}, userUpdate); err != nil {
			zap.S().Errorw("failed to apply tier to user after approval",
				"requestId", requestID,
				"userId", req.UserID,
				"error", err)
		}
	}

	go sendAccessEmail(req.Email, req.Name,
		"Your TruthLens access was approved",
		templates.RenderAccessApprovedEmail(req.Name, string(req.Tier), expiresAt.Format("January 2, 2006")),
		"Your access request has been approved.")

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":          models.AccessRequestApproved,
		"accessExpiresAt": expiresAt,
	})
}

type denyRequestBody struct {
	Reason string `json:"reason"`
}

// DenyAccessRequestHandler denies a pending request with a reason
func (a AccessRequest) DenyAccessRequestHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	requestID := mux.Vars(r)["request_id"]
	oid, err := primitive.ObjectIDFromHex(requestID)
	if err != nil {
		config.ErrorStatus("invalid request id", http.StatusBadRequest, w, err)
		return
	}

	var body denyRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("invalid request body", http.StatusBadRequest, w, err)
		return
	}
	if body.Reason == "" {
		body.Reason = "Your request did not meet our eligibility requirements."
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	req, err := a.DB.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		config.ErrorStatus("access request not found", http.StatusNotFound, w, err)
		return
	}
	if req.Status != models.AccessRequestPending {
		config.ErrorStatus("access request already processed", http.StatusConflict, w, nil)
		return
	}

	claims, _ := api.AdminFromContext(r.Context())
	now := time.Now()

	update := bson.M{"$set": bson.M{
		"status":       models.AccessRequestDenied,
		"denialReason": body.Reason,
		"processedAt":  now,
		"processedBy":  claims.Email,
	}}
	if err := a.DB.UpdateOne(ctx, bson.M{"_id": oid, "status": models.AccessRequestPending}, update); err != nil {
		config.ErrorStatus("failed to deny access request", http.StatusInternalServerError, w, err)
		return
	}

	go sendAccessEmail(req.Email, req.Name,
		"About your TruthLens access request",
		templates.RenderAccessDeniedEmail(req.Name, body.Reason),
		"Your access request could not be approved: "+body.Reason)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": models.AccessRequestDenied})
}

func sendAccessEmail(toEmail, toName, subject, htmlContent, plainText string) {
	if toEmail == "" {
		return
	}
	from := mail.NewEmail("TruthLens", "no-reply@truthlens.app")
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.Send(message)
	if err != nil {
		zap.S().Errorw("failed to send access email", "to", toEmail, "error", err)
		return
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "to", toEmail)
	}
}
