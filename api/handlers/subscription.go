package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	stripesub "github.com/stripe/stripe-go/v82/subscription"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/truthlens/truthlens-api/api"
	"github.com/truthlens/truthlens-api/config"
	"github.com/truthlens/truthlens-api/databases"
	"github.com/truthlens/truthlens-api/models"
)

// Subscription handles Stripe-backed plan management
type Subscription struct {
	UDB    databases.UserDatabase
	Config config.Config
}

type checkoutRequest struct {
	Tier models.Tier `json:"tier"`
}

type verifySubscriptionRequest struct {
	SessionID string `json:"sessionId"`
}

// priceIDForTier resolves the Stripe price for a paid tier from env
func priceIDForTier(tier models.Tier) string {
	switch tier {
	case models.TierPlus:
		return os.Getenv("STRIPE_PRICE_PLUS")
	case models.TierPro:
		return os.Getenv("STRIPE_PRICE_PRO")
	case models.TierUltimate:
		return os.Getenv("STRIPE_PRICE_ULTIMATE")
	}
	return ""
}

// CreateCheckoutSessionHandler starts a Stripe checkout for a paid tier
func (s Subscription) CreateCheckoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("invalid request body", http.StatusBadRequest, w, err)
		return
	}

	priceID := priceIDForTier(req.Tier)
	if priceID == "" {
		config.ErrorStatus("unknown subscription tier", http.StatusBadRequest, w, nil)
		return
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(s.Config.BaseUrl + "/api/v1/subscription/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(s.Config.BaseUrl + "/api/v1/subscription/cancelled"),
		ClientReferenceID: stripe.String(userID),
	}

	// Line items are not expanded on retrieval, so stash the tier for verify
	params.AddMetadata("tier", string(req.Tier))

	sess, err := session.New(params)
	if err != nil {
		config.ErrorStatus("failed to create checkout session", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"sessionId": sess.ID,
		"url":       sess.URL,
	})
}

// VerifySubscriptionHandler confirms a completed checkout and upgrades the
// user's tier to the purchased plan
func (s Subscription) VerifySubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req verifySubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("invalid request body", http.StatusBadRequest, w, err)
		return
	}

	sess, err := session.Get(req.SessionID, nil)
	if err != nil {
		config.ErrorStatus("failed to fetch checkout session", http.StatusBadGateway, w, err)
		return
	}
	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid || sess.Subscription == nil {
		config.ErrorStatus("subscription is not active", http.StatusPaymentRequired, w, nil)
		return
	}

	tier := tierFromSession(sess)
	if tier == "" {
		config.ErrorStatus("could not determine purchased tier", http.StatusInternalServerError, w, nil)
		return
	}

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("invalid caller id", http.StatusInternalServerError, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	now := time.Now()
	update := bson.M{"$set": bson.M{
		"tier":                   tier,
		"subscription.id":        sess.Subscription.ID,
		"subscription.plan":      tier,
		"subscription.active":    true,
		"subscription.updatedAt": now,
		"updatedAt":              now,
	}}
	if err := s.UDB.UpdateOne(ctx, bson.M{"_id": oid}, update); err != nil {
		config.ErrorStatus("failed to update subscription", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"tier":           tier,
		"subscriptionId": sess.Subscription.ID,
	})
}

// UnsubscribeHandler cancels the caller's Stripe subscription and reverts
// them to free
func (s Subscription) UnsubscribeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		config.ErrorStatus("invalid caller id", http.StatusInternalServerError, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := s.UDB.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		config.ErrorStatus("failed to find user", http.StatusNotFound, w, err)
		return
	}
	if user.Subscription.ID == "" {
		config.ErrorStatus("user has no active subscription", http.StatusBadRequest, w, nil)
		return
	}

	if _, err := stripesub.Cancel(user.Subscription.ID, nil); err != nil {
		config.ErrorStatus("failed to cancel subscription", http.StatusBadGateway, w, err)
		return
	}

	now := time.Now()
	update := bson.M{"$set": bson.M{
		"tier":                   models.TierFree,
		"subscription.active":    false,
		"subscription.updatedAt": now,
		"updatedAt":              now,
	}}
	if err := s.UDB.UpdateOne(ctx, bson.M{"_id": oid}, update); err != nil {
		config.ErrorStatus("failed to update user after cancellation", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "cancelled"})
}

// tierFromSession maps the purchased price back to a tier
func tierFromSession(sess *stripe.CheckoutSession) models.Tier {
	if sess.LineItems != nil {
		for _, item := range sess.LineItems.Data {
			if item.Price == nil {
				continue
			}
			switch item.Price.ID {
			case os.Getenv("STRIPE_PRICE_PLUS"):
				return models.TierPlus
			case os.Getenv("STRIPE_PRICE_PRO"):
				return models.TierPro
			case os.Getenv("STRIPE_PRICE_ULTIMATE"):
				return models.TierUltimate
			}
		}
	}
	// Line items are not expanded by default; fall back to metadata
	if sess.Metadata != nil {
		if tier, ok := sess.Metadata["tier"]; ok && models.ValidTier(models.Tier(tier)) {
			return models.Tier(tier)
		}
	}
	// Last resort: the subscription's first item
	if sess.Subscription != nil && sess.Subscription.Items != nil {
		for _, item := range sess.Subscription.Items.Data {
			if item.Price == nil {
				continue
			}
			switch item.Price.ID {
			case os.Getenv("STRIPE_PRICE_PLUS"):
				return models.TierPlus
			case os.Getenv("STRIPE_PRICE_PRO"):
				return models.TierPro
			case os.Getenv("STRIPE_PRICE_ULTIMATE"):
				return models.TierUltimate
			}
		}
	}
	return ""
}

// HandleSuccessRedirect renders a tiny page after a completed checkout
func (s Subscription) HandleSuccessRedirect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<html><body><h2>Subscription complete</h2><p>You can close this window and return to the app.</p></body></html>`)
}

// HandleCancelRedirect renders a tiny page after an abandoned checkout
func (s Subscription) HandleCancelRedirect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<html><body><h2>Checkout cancelled</h2><p>No changes were made to your plan.</p></body></html>`)
}
