package barcode

import (
	"fmt"
	"image"
	"image/png"
	"io"

	bc "github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/ean"
)

// Render dibuja el código: EAN-8/EAN-13 (UPC-A como EAN-13 con 0 inicial) si el dígito
// verificador cuadra; en otro caso Code 128.
func Render(code string, width, height int) (image.Image, error) {
	var (
		img bc.Barcode
		err error
	)
	switch len(code) {
	case 8, 13:
		img, err = ean.Encode(code)
	case 12:
		img, err = ean.Encode("0" + code)
	default:
		err = fmt.Errorf("longitud %d", len(code))
	}
	if err != nil {
		img, err = code128.Encode(code)
		if err != nil {
			return nil, fmt.Errorf("barcode: codificar %q: %w", code, err)
		}
	}
	scaled, err := bc.Scale(img, width, height)
	if err != nil {
		return nil, fmt.Errorf("barcode: escalar: %w", err)
	}
	return scaled, nil
}

// WritePNG escribe el código como PNG.
func WritePNG(w io.Writer, code string, width, height int) error {
	img, err := Render(code, width, height)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}
