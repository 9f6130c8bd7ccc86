// Package barcode detecta y dibuja códigos de barras de producto.
package barcode

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"

	"github.com/jhoicas/pilo-web/internal/application/scanner"
)

// Verificar en tiempo de compilación que ZXingDetector implementa Detector.
var _ scanner.Detector = (*ZXingDetector)(nil)

// ZXingDetector lector EAN-13/EAN-8/UPC-A/UPC-E. Cada Detect crea su propio lector:
// los lectores de gozxing no son seguros para uso concurrente.
type ZXingDetector struct {
	hints map[gozxing.DecodeHintType]interface{}
}

func NewZXingDetector() *ZXingDetector {
	return &ZXingDetector{
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
			gozxing.DecodeHintType_POSSIBLE_FORMATS: []gozxing.BarcodeFormat{
				gozxing.BarcodeFormat_EAN_13,
				gozxing.BarcodeFormat_EAN_8,
				gozxing.BarcodeFormat_UPC_A,
				gozxing.BarcodeFormat_UPC_E,
			},
		},
	}
}

// Detect devuelve el texto decodificado o scanner.ErrNoCandidate.
func (d *ZXingDetector) Detect(ctx context.Context, img image.Image) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if img == nil {
		return nil, scanner.ErrNoCandidate
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("barcode: binarizar imagen: %w", err)
	}
	reader := oned.NewMultiFormatUPCEANReader(d.hints)
	res, err := reader.Decode(bmp, d.hints)
	if err != nil {
		var nf gozxing.NotFoundException
		var fe gozxing.FormatException
		var ce gozxing.ChecksumException
		if errors.As(err, &nf) || errors.As(err, &fe) || errors.As(err, &ce) {
			return nil, scanner.ErrNoCandidate
		}
		return nil, fmt.Errorf("barcode: decodificar: %w", err)
	}
	return []string{res.GetText()}, nil
}
