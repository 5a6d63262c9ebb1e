// Package luminance provides LuminanceSource implementations: sources of
// greyscale pixel data that the binarizer and detector packages consume.
// It is kept separate from the module root so that binarizer and qrcode/*
// can depend on it without the root facade package importing them back.
package luminance

import (
	"image"
	"image/color"
)

// Source provides access to greyscale luminance values for an image.
type Source interface {
	// Row returns a row of luminance data. If row is non-nil and large enough,
	// it should be reused.
	Row(y int, row []byte) []byte

	// Matrix returns the entire luminance matrix.
	Matrix() []byte

	// Width returns the width of the image.
	Width() int

	// Height returns the height of the image.
	Height() int
}

// ImageSource is a Source implementation that wraps a Go image.Image,
// holding greyscale luminance values converted once, when it is built.
type ImageSource struct {
	luminances []byte
	width      int
	height     int
}

// FromImage creates a Source from a Go image.Image. The image is converted
// to greyscale luminance values upon construction, using the same formula
// as Java ZXing's BufferedImageLuminanceSource:
// (306*R + 601*G + 117*B + 0x200) >> 10, operating on 8-bit color components.
// This is the convenience path for callers that already hold an image.Image;
// the raw-byte Binarize entry point uses the plain Rec.601 formula instead
// (see FromRGBA).
func FromImage(img image.Image) *ImageSource {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	luminances := make([]byte, w*h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At(bounds.Min.X+x, bounds.Min.Y+y)
			_, _, _, a := c.RGBA()
			if a == 0 {
				// Fully-transparent pixels are forced to white, matching Java behavior.
				luminances[y*w+x] = 0xFF
			} else {
				r, g, b, _ := c.RGBA()
				r8 := r >> 8
				g8 := g >> 8
				b8 := b >> 8
				luminances[y*w+x] = byte((306*r8 + 601*g8 + 117*b8 + 0x200) >> 10)
			}
		}
	}

	return &ImageSource{luminances: luminances, width: w, height: h}
}

// FromGrayImage creates a Source from a *image.Gray, using the pixel data
// directly without conversion.
func FromGrayImage(img *image.Gray) *ImageSource {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if img.Stride == w && bounds.Min.X == 0 && bounds.Min.Y == 0 {
		lum := make([]byte, w*h)
		copy(lum, img.Pix[:w*h])
		return &ImageSource{luminances: lum, width: w, height: h}
	}

	luminances := make([]byte, w*h)
	for y := 0; y < h; y++ {
		srcOff := (bounds.Min.Y+y)*img.Stride + bounds.Min.X
		copy(luminances[y*w:], img.Pix[srcOff:srcOff+w])
	}
	return &ImageSource{luminances: luminances, width: w, height: h}
}

// FromRGBA creates a Source from packed 8-bit RGBA pixel bytes (4 bytes per
// pixel, row-major), using the plain Rec.601 luma formula
// Y = 0.299R + 0.587G + 0.114B. This is the formula the raw-byte Binarize
// entry point is specified against, as distinct from the Java-ZXing-exact
// weights FromImage uses for the image.Image convenience path.
func FromRGBA(pix []byte, width, height int) *ImageSource {
	luminances := make([]byte, width*height)
	for i := 0; i < width*height; i++ {
		r := float64(pix[i*4+0])
		g := float64(pix[i*4+1])
		b := float64(pix[i*4+2])
		y := 0.299*r + 0.587*g + 0.114*b
		if y > 255 {
			y = 255
		}
		luminances[i] = byte(y)
	}
	return &ImageSource{luminances: luminances, width: width, height: height}
}

// Row returns a row of luminance data.
func (s *ImageSource) Row(y int, row []byte) []byte {
	if y < 0 || y >= s.height {
		return nil
	}
	if row == nil || len(row) < s.width {
		row = make([]byte, s.width)
	}
	offset := y * s.width
	copy(row, s.luminances[offset:offset+s.width])
	return row
}

// Matrix returns the entire luminance matrix.
func (s *ImageSource) Matrix() []byte {
	result := make([]byte, len(s.luminances))
	copy(result, s.luminances)
	return result
}

// Width returns the width of the image.
func (s *ImageSource) Width() int { return s.width }

// Height returns the height of the image.
func (s *ImageSource) Height() int { return s.height }

// RotateCounterClockwise returns a new ImageSource rotated 90 degrees
// counterclockwise.
func (s *ImageSource) RotateCounterClockwise() *ImageSource {
	newWidth := s.height
	newHeight := s.width
	newLum := make([]byte, newWidth*newHeight)
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			newLum[(s.width-1-x)*newWidth+y] = s.luminances[y*s.width+x]
		}
	}
	return &ImageSource{luminances: newLum, width: newWidth, height: newHeight}
}

// BitMatrixToImage converts a boolean-addressable matrix to a grayscale
// image where set modules render black and unset modules render white.
func BitMatrixToImage(matrix interface {
	Width() int
	Height() int
	Get(x, y int) bool
}) *image.Gray {
	w := matrix.Width()
	h := matrix.Height()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if matrix.Get(x, y) {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}
