package encoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-qr/qr/qrcode/decoder"
)

func decodeQR(t *testing.T, code *QRCode) string {
	t.Helper()
	bits := code.ToBitMatrix()
	dr, err := decoder.NewDecoder().Decode(bits, "")
	require.NoError(t, err)
	return dr.Text
}

func TestEncodeSegmentsKanji(t *testing.T) {
	segs := []Segment{{Mode: decoder.ModeKanji, Content: "点茗"}}
	code, err := EncodeSegments(segs, decoder.ECLevelM, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, "点茗", decodeQR(t, code))
}

func TestEncodeSegmentsHanzi(t *testing.T) {
	segs := []Segment{{Mode: decoder.ModeHanzi, Content: "中文"}}
	code, err := EncodeSegments(segs, decoder.ECLevelM, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, "中文", decodeQR(t, code))
}

func TestEncodeSegmentsECIThenByte(t *testing.T) {
	segs := []Segment{
		{Mode: decoder.ModeECI, Charset: "ISO-8859-1"},
		{Mode: decoder.ModeByte, Content: "café", Charset: "ISO-8859-1"},
	}
	code, err := EncodeSegments(segs, decoder.ECLevelM, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, "café", decodeQR(t, code))
}

func TestEncodeSegmentsFNC1First(t *testing.T) {
	segs := []Segment{
		{Mode: decoder.ModeFNC1FirstPosition},
		{Mode: decoder.ModeAlphanumeric, Content: "01034531200000"},
	}
	code, err := EncodeSegments(segs, decoder.ECLevelM, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, "01034531200000", decodeQR(t, code))
}

func TestEncodeSegmentsStructuredAppend(t *testing.T) {
	segs := []Segment{
		{Mode: decoder.ModeStructuredAppend, Content: "0,3,170"},
		{Mode: decoder.ModeByte, Content: "part one"},
	}
	code, err := EncodeSegments(segs, decoder.ECLevelM, 0, -1)
	require.NoError(t, err)

	dr, err := decoder.NewDecoder().Decode(code.ToBitMatrix(), "")
	require.NoError(t, err)
	require.True(t, dr.HasStructuredAppend(), "expected structured append metadata")
	// The sequence byte holds the index (0) in the high nibble and count-1 (2)
	// in the low nibble.
	assert.Equal(t, 0<<4|(3-1), dr.StructuredAppendSequenceNumber)
	assert.Equal(t, 170, dr.StructuredAppendParity)
	assert.Equal(t, "part one", dr.Text)
}
