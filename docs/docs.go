// Package docs TruthLens API.
//
// Documentation of TruthLens API.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//     Host: https://api.truthlens.app
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
//     Security:
//     - basic
//
//    SecurityDefinitions:
//    basic:
//      type: basic
//
// swagger:meta
package docs

import (
	"github.com/truthlens/truthlens-api/models"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route POST /api/v1/access-code/validate accessCode validateAccessCode
// Validates a submitted access code without consuming a use.
// responses:
//   200: validateAccessCodeResponse

// Reports whether the code can be redeemed and, when it can, its tier.
// swagger:response validateAccessCodeResponse
type validateAccessCodeResponseWrapper struct {
	// in:body
	Body struct {
		Valid    bool             `json:"valid"`
		Reason   string           `json:"reason,omitempty"`
		CodeData *models.CodeData `json:"codeData,omitempty"`
	}
}

// swagger:route POST /api/v1/access-code/redeem accessCode redeemAccessCode
// Claims one use of a code and files a pending access request.
// responses:
//   200: validateAccessCodeResponse

// swagger:route GET /api/v1/scan/quota scan scanQuota
// Reports how many scans the user has left today.
// responses:
//   200: scanQuotaResponse

// Shows the remaining daily scan allowance for the user's tier.
// swagger:response scanQuotaResponse
type scanQuotaResponseWrapper struct {
	// in:body
	Body models.QuotaResponse
}

// swagger:route GET /api/v1/scan/history scan scanHistory
// Lists the user's recent scans, newest first.
// responses:
//   200: scanHistoryResponse

// swagger:response scanHistoryResponse
type scanHistoryResponseWrapper struct {
	// in:body
	Body []models.ScanRecord
}

// swagger:route GET /api/v1/admin/access-requests admin listAccessRequests
// Lists access requests for the admin console.
// responses:
//   200: accessRequestListResponse

// swagger:response accessRequestListResponse
type accessRequestListResponseWrapper struct {
	// in:body
	Body []models.AccessRequest
}

// swagger:route GET /api/v1/admin/access-codes admin listAccessCodes
// Lists access codes for the admin console.
// responses:
//   200: accessCodeListResponse

// swagger:response accessCodeListResponse
type accessCodeListResponseWrapper struct {
	// in:body
	Body []models.AccessCode
}

// swagger:route GET /api/v1/pc-builds/recommend pcBuild recommendBuild
// Recommends a component set within the given budget.
// responses:
//   200: pcBuildResponse

// swagger:response pcBuildResponse
type pcBuildResponseWrapper struct {
	// in:body
	Body models.PCBuild
}
