package assettag

import (
	qrcode "github.com/skip2/go-qrcode"

	apperrors "github.com/spec-kit/asset-registry/pkg/util/errorutil"
)

// QRSize is the edge length in pixels of every rendered code.
const QRSize = 200

// QREncoder renders tags as QRSize×QRSize PNG QR codes.
type QREncoder struct {
	level qrcode.RecoveryLevel
}

// NewQREncoder builds an encoder.
func NewQREncoder() *QREncoder {
	return &QREncoder{level: qrcode.Medium}
}

// Encode renders text. The same text always yields the same bytes.
func (e *QREncoder) Encode(text string) ([]byte, error) {
	png, err := qrcode.Encode(text, e.level, QRSize)
	if err != nil {
		return nil, apperrors.NewQRGenerationFailed(err)
	}
	return png, nil
}
