// Package qrerr declares the sentinel errors shared by every package in the
// module. It exists as its own leaf package (rather than living in the
// module root) so that qrcode/encoder, qrcode/decoder, qrcode/detector and
// binarizer can all return these errors without importing the root facade
// package, which imports binarizer and whose tests import qrcode/encoder and
// qrcode/decoder.
package qrerr

import "errors"

var (
	// ErrNotFound signals a pattern, valley, or symbol was not located. It is
	// the low-level miss signal inside the detection/binarization pipeline;
	// the facade surfaces ErrDetectionExhausted once every candidate has
	// been tried and exhausted.
	ErrNotFound = errors.New("qr: not found")

	// ErrDetectionExhausted means every finder-triple/alignment candidate the
	// detector produced failed to yield a decodable symbol.
	ErrDetectionExhausted = errors.New("qr: detection exhausted")

	// ErrInsufficientContrast is raised by the histogram binarizer when no
	// valley separates two luminance peaks.
	ErrInsufficientContrast = errors.New("qr: insufficient contrast")

	// ErrVersionUnreadable means the version info blocks did not match any
	// table entry within Hamming distance 3.
	ErrVersionUnreadable = errors.New("qr: version unreadable")

	// ErrFormatInfoUnreadable means both format-info replicas failed to match
	// any table entry within Hamming distance 3.
	ErrFormatInfoUnreadable = errors.New("qr: format info unreadable")

	// ErrIllegalMode is raised when a 4-bit mode nibble does not name a known mode.
	ErrIllegalMode = errors.New("qr: illegal mode")

	// ErrIllegalSegment is raised when a segment's body is structurally corrupt
	// (insufficient bits remaining, bad ECI prefix, bad alphanumeric/numeric digit).
	ErrIllegalSegment = errors.New("qr: illegal segment")

	// ErrUncorrectable is raised when Reed-Solomon decoding cannot correct a block.
	ErrUncorrectable = errors.New("qr: uncorrectable error")

	// ErrIllegalContent is raised when encoder input cannot be represented in
	// the segment's mode (e.g. a non-alphanumeric character in an Alphanumeric segment).
	ErrIllegalContent = errors.New("qr: illegal content")

	// ErrIllegalCharset is raised when a requested charset/ECI designator is unknown.
	ErrIllegalCharset = errors.New("qr: illegal charset")

	// ErrIllegalVersion is raised when a requested version is outside 1..40.
	ErrIllegalVersion = errors.New("qr: illegal version")

	// ErrIllegalLevel is raised when a requested error-correction level name is unknown.
	ErrIllegalLevel = errors.New("qr: illegal level")

	// ErrDataTooLarge is raised when a payload exceeds version-40 capacity at
	// the requested error-correction level.
	ErrDataTooLarge = errors.New("qr: data too large")
)
