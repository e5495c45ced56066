package qrcode

import (
	"fmt"

	"checkinflow/internal/domain"

	qr "github.com/skip2/go-qrcode"
)

const defaultSize = 256

type generator struct {
	size int
}

// NewGenerator returns a QRGenerator producing square PNGs of size pixels.
func NewGenerator(size int) domain.QRGenerator {
	if size <= 0 {
		size = defaultSize
	}
	return &generator{size: size}
}

func (g *generator) PNG(content string) ([]byte, error) {
	png, err := qr.Encode(content, qr.Medium, g.size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}
