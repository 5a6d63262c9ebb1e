package qr

import (
	"github.com/go-qr/qr/binarizer"
	"github.com/go-qr/qr/bitutil"
	"github.com/go-qr/qr/luminance"
)

// LuminanceSource provides access to greyscale luminance values for an image.
type LuminanceSource = luminance.Source

// minBinarizeDimension is the smallest width/height for which Binarize uses
// the adaptive (Hybrid) thresholder instead of the global histogram.
const minBinarizeDimension = 40

// Binarize converts an RGBA image into a BitMatrix of black/white modules.
// Images narrower or shorter than 40px use global histogram binarization;
// larger images use block-adaptive thresholding, which tolerates shadows
// and lighting gradients across a scanned symbol.
func Binarize(data []byte, width, height int) (*bitutil.BitMatrix, error) {
	source := luminance.FromRGBA(data, width, height)
	var b Binarizer
	if width < minBinarizeDimension || height < minBinarizeDimension {
		b = binarizer.NewGlobalHistogram(source)
	} else {
		b = binarizer.NewHybrid(source)
	}
	return b.BlackMatrix()
}

// Binarizer converts luminance data to 1-bit black/white data.
type Binarizer interface {
	// BlackRow returns a row of black/white values.
	BlackRow(y int, row *bitutil.BitArray) (*bitutil.BitArray, error)

	// BlackMatrix returns the 2D matrix of black/white values.
	BlackMatrix() (*bitutil.BitMatrix, error)

	// LuminanceSource returns the underlying LuminanceSource.
	LuminanceSource() LuminanceSource

	// Width returns the width of the image.
	Width() int

	// Height returns the height of the image.
	Height() int
}
