package handlers_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/truthlens/truthlens-api/api/handlers"
)

func TestGenerateSignature(t *testing.T) {
	oldSecret := os.Getenv("CLOUDINARY_API_SECRET")
	oldPreset := os.Getenv("CLOUDINARY_UPLOAD_PRESET")
	os.Setenv("CLOUDINARY_API_SECRET", "shh")
	os.Setenv("CLOUDINARY_UPLOAD_PRESET", "proofs")
	t.Cleanup(func() {
		os.Setenv("CLOUDINARY_API_SECRET", oldSecret)
		os.Setenv("CLOUDINARY_UPLOAD_PRESET", oldPreset)
	})

	h := handlers.Upload{}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate-signature", nil)
	rr := httptest.NewRecorder()

	http.HandlerFunc(h.GenerateSignature).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["timestamp"])

	mac := hmac.New(sha1.New, []byte("shh"))
	mac.Write([]byte("timestamp=" + resp["timestamp"] + "&upload_preset=proofs"))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), resp["signature"])
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	fw, err := mw.CreateFormFile(field, filename)
	assert.NoError(t, err)
	_, err = fw.Write(content)
	assert.NoError(t, err)
	assert.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestUploadProof_MissingFile(t *testing.T) {
	h := handlers.Upload{}

	buf, contentType := multipartBody(t, "attachment", "proof.png", []byte{0x89, 0x50, 0x4E, 0x47})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload/proof", buf)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	http.HandlerFunc(h.UploadProofHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUploadProof_RejectsUnknownFileType(t *testing.T) {
	h := handlers.Upload{}

	// An executable header, whatever the filename claims
	buf, contentType := multipartBody(t, "file", "proof.png", []byte{0x4D, 0x5A, 0x90, 0x00, 0x03})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload/proof", buf)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	http.HandlerFunc(h.UploadProofHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
}

func TestUploadProof_RejectsTruncatedFile(t *testing.T) {
	h := handlers.Upload{}

	buf, contentType := multipartBody(t, "file", "proof.jpg", []byte{0xFF, 0xD8})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload/proof", buf)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	http.HandlerFunc(h.UploadProofHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
}
