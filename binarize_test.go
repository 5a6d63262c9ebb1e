package qr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-qr/qr/internal/imagetest"
	"github.com/go-qr/qr/qrcode/decoder"
	"github.com/go-qr/qr/qrcode/encoder"
)

func rgbaFromGray(gray []byte) []byte {
	data := make([]byte, len(gray)*4)
	for i, y := range gray {
		data[i*4+0] = y
		data[i*4+1] = y
		data[i*4+2] = y
		data[i*4+3] = 255
	}
	return data
}

func TestBinarizeSmallImageUsesHistogram(t *testing.T) {
	// 20x20 high-contrast checkerboard, below the 40px histogram/hybrid cutoff.
	width, height := 20, 20
	gray := make([]byte, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x/2+y/2)%2 == 0 {
				gray[y*width+x] = 0
			} else {
				gray[y*width+x] = 255
			}
		}
	}

	matrix, err := Binarize(rgbaFromGray(gray), width, height)
	require.NoError(t, err)
	assert.Equal(t, width, matrix.Width())
	assert.Equal(t, height, matrix.Height())
}

func TestBinarizeInsufficientContrast(t *testing.T) {
	width, height := 20, 20
	gray := make([]byte, width*height)
	for i := range gray {
		gray[i] = 0 // uniform, no contrast at all
	}

	_, err := Binarize(rgbaFromGray(gray), width, height)
	assert.Error(t, err)
}

func TestBinarizeLargeImageRoundTrip(t *testing.T) {
	content := "BINARIZE ROUND TRIP"
	code, err := encoder.Encode(content, decoder.ECLevelM, 0, -1)
	require.NoError(t, err)

	img := imagetest.Render(code.ToBitMatrix(), 4, 4)
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	require.GreaterOrEqual(t, width, 40, "rendered image too small to exercise the hybrid path")
	require.GreaterOrEqual(t, height, 40, "rendered image too small to exercise the hybrid path")

	matrix, err := Binarize(rgbaFromGray(img.Pix), width, height)
	require.NoError(t, err)
	assert.Equal(t, width, matrix.Width())
	assert.Equal(t, height, matrix.Height())
}
