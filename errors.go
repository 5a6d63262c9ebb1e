package qr

import "github.com/go-qr/qr/internal/qrerr"

// Sentinel errors returned across the encode/decode/detect/binarize surface.
// Callers match with errors.Is; wrapped context is attached with fmt.Errorf("%w: ...").
// The values live in internal/qrerr so that qrcode/encoder, qrcode/decoder,
// qrcode/detector and binarizer can return them without importing this
// package back (this package imports binarizer, and its tests import
// qrcode/encoder and qrcode/decoder).
var (
	ErrNotFound             = qrerr.ErrNotFound
	ErrDetectionExhausted   = qrerr.ErrDetectionExhausted
	ErrInsufficientContrast = qrerr.ErrInsufficientContrast
	ErrVersionUnreadable    = qrerr.ErrVersionUnreadable
	ErrFormatInfoUnreadable = qrerr.ErrFormatInfoUnreadable
	ErrIllegalMode          = qrerr.ErrIllegalMode
	ErrIllegalSegment       = qrerr.ErrIllegalSegment
	ErrUncorrectable        = qrerr.ErrUncorrectable
	ErrIllegalContent       = qrerr.ErrIllegalContent
	ErrIllegalCharset       = qrerr.ErrIllegalCharset
	ErrIllegalVersion       = qrerr.ErrIllegalVersion
	ErrIllegalLevel         = qrerr.ErrIllegalLevel
	ErrDataTooLarge         = qrerr.ErrDataTooLarge
)
