// Command qrcodec encodes and decodes QR codes from the command line.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	qr "github.com/go-qr/qr"
	"github.com/go-qr/qr/binarizer"
	_ "github.com/go-qr/qr/qrcode"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: qrcodec encode [flags] <text>\n")
		fmt.Fprintf(os.Stderr, "       qrcodec decode [flags] <image-file>\n\n")
		flag.PrintDefaults()
	}
	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "encode":
		err = runEncode(os.Args[2:])
	case "decode":
		err = runDecode(os.Args[2:])
	default:
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "qrcodec: %v\n", err)
		os.Exit(1)
	}
}

func runEncode(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	level := fs.String("level", "M", "error correction level: L, M, Q, or H")
	size := fs.Int("size", 256, "output image width/height in pixels")
	out := fs.String("out", "", "output PNG path (default stdout)")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("encode requires exactly one <text> argument")
	}

	opts := &qr.EncodeOptions{ErrorCorrection: *level}
	matrix, err := qr.Encode(fs.Arg(0), qr.FormatQRCode, *size, *size, opts)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	img := qr.BitMatrixToImage(matrix)

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return png.Encode(w, img)
}

func runDecode(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	tryHarder := fs.Bool("try-harder", false, "spend more time looking for the symbol")
	pure := fs.Bool("pure", false, "hint that the image is a clean render with minimal border")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("decode requires exactly one <image-file> argument")
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	source := qr.NewImageLuminanceSource(img)
	opts := &qr.DecodeOptions{TryHarder: *tryHarder, PureBarcode: *pure}

	// Try the adaptive binarizer first (robust to uneven lighting in photos
	// of printed codes), then fall back to the global histogram binarizer.
	bitmaps := []*qr.BinaryBitmap{
		qr.NewBinaryBitmap(binarizer.NewHybrid(source)),
		qr.NewBinaryBitmap(binarizer.NewGlobalHistogram(source)),
	}
	var result *qr.Result
	for _, bitmap := range bitmaps {
		if r, derr := qr.Decode(bitmap, opts); derr == nil {
			result = r
			break
		} else {
			err = derr
		}
	}
	if result == nil {
		return fmt.Errorf("no QR code found: %w", err)
	}
	fmt.Println(result.Text)
	return nil
}
