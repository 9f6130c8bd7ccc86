package barcode

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	_ "golang.org/x/image/webp"
)

// MaxImageBytes tope de una imagen subida o un frame.
const MaxImageBytes = 8 << 20

var ErrImageTooLarge = errors.New("barcode: imagen demasiado grande")

// Decode lee una imagen JPEG, PNG, GIF o WebP.
func Decode(r io.Reader) (image.Image, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("barcode: leer imagen: %w", err)
	}
	if len(raw) > MaxImageBytes {
		return nil, ErrImageTooLarge
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("barcode: decodificar imagen: %w", err)
	}
	return img, nil
}

// DecodeDataURL acepta "data:image/jpeg;base64,..." o base64 puro (frames del navegador).
func DecodeDataURL(s string) (image.Image, error) {
	if i := strings.Index(s, ","); strings.HasPrefix(s, "data:") && i > 0 {
		s = s[i+1:]
	}
	if base64.StdEncoding.DecodedLen(len(s)) > MaxImageBytes {
		return nil, ErrImageTooLarge
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("barcode: base64 inválido: %w", err)
	}
	return Decode(bytes.NewReader(raw))
}
