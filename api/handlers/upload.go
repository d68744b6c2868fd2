package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/truthlens/truthlens-api/api"
	"github.com/truthlens/truthlens-api/config"
	"github.com/truthlens/truthlens-api/databases"
	"github.com/truthlens/truthlens-api/filesig"
)

// 10 MB cap on proof uploads
const maxProofSize = 10 << 20

// Upload handles proof-of-eligibility uploads for access requests
type Upload struct {
	RDB databases.AccessRequestDatabase
}

// GenerateSignature generates a signature for direct-to-Cloudinary uploads
func (u Upload) GenerateSignature(w http.ResponseWriter, r *http.Request) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	uploadPreset := os.Getenv("CLOUDINARY_UPLOAD_PRESET")
	apiSecret := os.Getenv("CLOUDINARY_API_SECRET")

	h := hmac.New(sha1.New, []byte(apiSecret))
	h.Write([]byte("timestamp=" + timestamp + "&upload_preset=" + uploadPreset))
	signature := hex.EncodeToString(h.Sum(nil))

	response := map[string]string{
		"timestamp": timestamp,
		"signature": signature,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// UploadProofHandler accepts a multipart proof document, verifies its magic
// bytes and uploads it to Cloudinary. When a requestId is supplied the proof
// URL is attached to that access request.
func (u Upload) UploadProofHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := r.ParseMultipartForm(maxProofSize); err != nil {
		config.ErrorStatus("invalid multipart form", http.StatusBadRequest, w, err)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		config.ErrorStatus("file is required", http.StatusBadRequest, w, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxProofSize+1))
	if err != nil {
		config.ErrorStatus("failed to read file", http.StatusInternalServerError, w, err)
		return
	}
	if len(data) > maxProofSize {
		config.ErrorStatus("file too large", http.StatusRequestEntityTooLarge, w, nil)
		return
	}

	// Trust the bytes, not the filename
	kind := filesig.Sniff(data)
	if kind == filesig.Unknown {
		config.ErrorStatus("unsupported file type, expected jpeg, png, webp or pdf", http.StatusUnsupportedMediaType, w, nil)
		return
	}

	cld, err := cloudinary.New()
	if err != nil {
		config.ErrorStatus("upload service unavailable", http.StatusInternalServerError, w, err)
		return
	}

	resp, err := cld.Upload.Upload(r.Context(), bytes.NewReader(data), uploader.UploadParams{
		Folder: "truthlens/proofs",
	})
	if err != nil {
		config.ErrorStatus("failed to upload file", http.StatusBadGateway, w, err)
		return
	}

	if requestID := r.FormValue("requestId"); requestID != "" {
		oid, err := primitive.ObjectIDFromHex(requestID)
		if err != nil {
			config.ErrorStatus("invalid requestId", http.StatusBadRequest, w, err)
			return
		}
		ctx, cancel := api.WithQueryTimeout(r.Context())
		defer cancel()
		if err := u.RDB.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"proofUrl": resp.SecureURL}}); err != nil {
			config.ErrorStatus("failed to attach proof to request", http.StatusInternalServerError, w, err)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"url":  resp.SecureURL,
		"kind": string(kind),
	})
}
