package qrcode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-qr/qr"
	"github.com/go-qr/qr/binarizer"
	"github.com/go-qr/qr/internal/imagetest"
	"github.com/go-qr/qr/luminance"
	"github.com/go-qr/qr/qrcode/decoder"
	"github.com/go-qr/qr/qrcode/encoder"
)

// TestImageRoundTrip renders an encoded symbol to a greyscale image and
// feeds it back through the real luminance/binarizer/detector pipeline,
// exercising the same path a camera capture would take instead of handing
// the decoder a hand-built BitMatrix.
func TestImageRoundTrip(t *testing.T) {
	content := "https://example.com/imagetest"
	code, err := encoder.Encode(content, decoder.ECLevelM, 0, -1)
	require.NoError(t, err)

	img := imagetest.Render(code.ToBitMatrix(), 4, 4)
	source := luminance.FromGrayImage(img)
	reader := NewReader()

	t.Run("histogram", func(t *testing.T) {
		bitmap := qr.NewBinaryBitmap(binarizer.NewGlobalHistogram(source))
		result, err := reader.Decode(bitmap, nil)
		require.NoError(t, err)
		require.Equal(t, content, result.Text)
	})

	t.Run("hybrid", func(t *testing.T) {
		bitmap := qr.NewBinaryBitmap(binarizer.NewHybrid(source))
		result, err := reader.Decode(bitmap, nil)
		require.NoError(t, err)
		require.Equal(t, content, result.Text)
	})
}
