// Package filesig identifies common upload formats by magic bytes instead
// of trusting the client-supplied extension or Content-Type.
package filesig

import "bytes"

// Kind is a detected file format
type Kind string

const (
	JPEG    Kind = "jpeg"
	PNG     Kind = "png"
	PDF     Kind = "pdf"
	WEBP    Kind = "webp"
	Unknown Kind = "unknown"
)

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47}
	pdfMagic  = []byte{0x25, 0x50, 0x44, 0x46}
	riffMagic = []byte{0x52, 0x49, 0x46, 0x46}
	webpMagic = []byte{0x57, 0x45, 0x42, 0x50}
)

// Sniff inspects the leading bytes of data and reports the detected format.
// Fewer than four bytes can never satisfy a signature, so short inputs are
// Unknown. WEBP needs twelve: the RIFF header, a four-byte length we ignore,
// then the WEBP tag at offset eight.
func Sniff(data []byte) Kind {
	if len(data) < 4 {
		return Unknown
	}
	switch {
	case bytes.HasPrefix(data, jpegMagic):
		return JPEG
	case bytes.HasPrefix(data, pngMagic):
		return PNG
	case bytes.HasPrefix(data, pdfMagic):
		return PDF
	case bytes.HasPrefix(data, riffMagic):
		if len(data) >= 12 && bytes.Equal(data[8:12], webpMagic) {
			return WEBP
		}
	}
	return Unknown
}

// IsSupported reports whether data matches a format uploads accept
func IsSupported(data []byte) bool {
	return Sniff(data) != Unknown
}

// ContentType maps a detected kind to its MIME type, falling back to
// application/octet-stream for unknown data
func ContentType(k Kind) string {
	switch k {
	case JPEG:
		return "image/jpeg"
	case PNG:
		return "image/png"
	case PDF:
		return "application/pdf"
	case WEBP:
		return "image/webp"
	}
	return "application/octet-stream"
}
