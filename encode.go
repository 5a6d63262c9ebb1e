package qr

import "github.com/go-qr/qr/bitutil"

// EncodeOptions configures barcode encoding behavior.
type EncodeOptions struct {
	// ErrorCorrection specifies the error correction level.
	ErrorCorrection string

	// CharacterSet specifies the character set to use when encoding.
	CharacterSet string

	// Margin specifies the margin (quiet zone) in modules around the barcode.
	Margin *int

	// QRVersion forces a specific QR version (1-40).
	QRVersion int

	// QRMaskPattern forces a specific QR mask pattern (0-7).
	QRMaskPattern int

	// GS1Format encodes content as a GS1 application (FNC1 in first position).
	GS1Format bool
}

// Writer encodes data into a barcode.
type Writer interface {
	// Encode encodes the given contents into a barcode.
	Encode(contents string, format Format, width, height int, opts *EncodeOptions) (*bitutil.BitMatrix, error)
}
