// Package imagetest renders encoded symbols to images so round-trip tests
// can drive the real Binarizer/Detector pipeline instead of hand-built
// BitMatrix fixtures.
package imagetest

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Module is the minimal surface imagetest needs from a rendered symbol:
// bitutil.BitMatrix satisfies this. encoder.ByteMatrix does not (its Get
// returns a byte), so an encoded symbol is passed as QRCode.ToBitMatrix().
type Module interface {
	Width() int
	Height() int
	Get(x, y int) bool
}

// Render draws a Module at one source pixel per module onto an image.Gray,
// then scales it to pixelsPerModule with nearest-neighbor interpolation and
// surrounds it with a quietModules-wide white border. Nearest-neighbor keeps
// module edges sharp, matching how a printed/rendered QR code looks under a
// camera before photographic noise is added.
func Render(m Module, pixelsPerModule, quietModules int) *image.Gray {
	w, h := m.Width(), m.Height()
	src := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if m.Get(x, y) {
				src.SetGray(x, y, color.Gray{Y: 0})
			} else {
				src.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}

	scaledW, scaledH := w*pixelsPerModule, h*pixelsPerModule
	border := quietModules * pixelsPerModule
	dst := image.NewGray(image.Rect(0, 0, scaledW+2*border, scaledH+2*border))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.NearestNeighbor.Scale(dst, image.Rect(border, border, border+scaledW, border+scaledH), src, src.Bounds(), draw.Src, nil)
	return dst
}
