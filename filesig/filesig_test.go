package filesig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSniffJPEG(t *testing.T) {
	assert.Equal(t, JPEG, Sniff([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}))
	assert.Equal(t, JPEG, Sniff([]byte{0xFF, 0xD8, 0xFF, 0xE1}))
}

func TestSniffPNG(t *testing.T) {
	assert.Equal(t, PNG, Sniff([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}))
}

func TestSniffPDF(t *testing.T) {
	assert.Equal(t, PDF, Sniff([]byte("%PDF-1.7\n")))
}

func TestSniffWEBP(t *testing.T) {
	data := append([]byte("RIFF"), 0x24, 0x00, 0x00, 0x00)
	data = append(data, []byte("WEBP")...)
	assert.Equal(t, WEBP, Sniff(data))
}

func TestSniffRIFFWithoutWEBPTag(t *testing.T) {
	// A WAV file is RIFF too but not an accepted upload
	data := append([]byte("RIFF"), 0x24, 0x00, 0x00, 0x00)
	data = append(data, []byte("WAVE")...)
	assert.Equal(t, Unknown, Sniff(data))
}

func TestSniffShortRIFFHeader(t *testing.T) {
	// RIFF prefix but truncated before the format tag at offset 8
	assert.Equal(t, Unknown, Sniff([]byte("RIFF\x24\x00")))
}

func TestSniffTooShort(t *testing.T) {
	assert.Equal(t, Unknown, Sniff(nil))
	assert.Equal(t, Unknown, Sniff([]byte{}))
	assert.Equal(t, Unknown, Sniff([]byte{0xFF, 0xD8, 0xFF}))
	assert.Equal(t, Unknown, Sniff([]byte{0x89, 0x50}))
}

func TestSniffUnknown(t *testing.T) {
	assert.Equal(t, Unknown, Sniff([]byte("GIF89a")))
	assert.Equal(t, Unknown, Sniff([]byte{0x00, 0x00, 0x00, 0x00}))
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported([]byte{0xFF, 0xD8, 0xFF, 0xE0}))
	assert.False(t, IsSupported([]byte("plain text")))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentType(JPEG))
	assert.Equal(t, "image/png", ContentType(PNG))
	assert.Equal(t, "application/pdf", ContentType(PDF))
	assert.Equal(t, "image/webp", ContentType(WEBP))
	assert.Equal(t, "application/octet-stream", ContentType(Unknown))
}
