package qr

import (
	"image"

	"github.com/go-qr/qr/luminance"
)

// ImageLuminanceSource is a LuminanceSource implementation that wraps a Go
// image.Image, holding greyscale luminance values converted once, when it is built.
type ImageLuminanceSource = luminance.ImageSource

// NewImageLuminanceSource creates a LuminanceSource from a Go image.Image.
// The image is converted to greyscale luminance values upon construction.
func NewImageLuminanceSource(img image.Image) *ImageLuminanceSource {
	return luminance.FromImage(img)
}

// NewGrayImageLuminanceSource creates a LuminanceSource from a *image.Gray,
// using the pixel data directly without conversion.
func NewGrayImageLuminanceSource(img *image.Gray) *ImageLuminanceSource {
	return luminance.FromGrayImage(img)
}

// BitMatrixToImage converts a BitMatrix to a grayscale image where black
// modules are black (0) and white modules are white (255).
func BitMatrixToImage(matrix interface {
	Width() int
	Height() int
	Get(x, y int) bool
}) *image.Gray {
	return luminance.BitMatrixToImage(matrix)
}
