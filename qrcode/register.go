package qrcode

import "github.com/go-qr/qr"

func init() {
	qr.RegisterReader(qr.FormatQRCode, func(opts *qr.DecodeOptions) qr.Reader {
		return NewReader()
	})
	qr.RegisterWriter(qr.FormatQRCode, func() qr.Writer {
		return NewWriter()
	})
}
