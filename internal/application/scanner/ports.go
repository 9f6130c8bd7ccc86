package scanner

import (
	"context"
	"errors"
	"image"
	"strings"

	"github.com/jhoicas/pilo-web/internal/domain/entity"
)

// ErrNoCandidate resultado explícito "no se encontró código" del detector. No cuenta como fallo.
var ErrNoCandidate = errors.New("scanner: ningún código en la imagen")

// Device cámara enumerada.
type Device struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Camera fuente de video (el navegador vía WebSocket, o ninguna en el CLI).
type Camera interface {
	// Supported indica si el runtime ofrece cámara y detección. Se consulta una sola vez.
	Supported() bool
	RequestAccess(ctx context.Context) error
	Devices(ctx context.Context) ([]Device, error)
	// Open enlaza el stream del dispositivo a la vista previa. Debe respetar el deadline de ctx.
	Open(ctx context.Context, deviceID string) (Stream, error)
}

// Stream stream activo de una cámara.
type Stream interface {
	Frame(ctx context.Context) (image.Image, error)
	TorchSupported() bool
	SetTorch(ctx context.Context, on bool) error
	Close() error
	Active() bool
}

// Detector devuelve los candidatos en orden de detección, o ErrNoCandidate.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]string, error)
}

// Submitter consulta el producto y registra el escaneo en el historial.
type Submitter interface {
	LookupProduct(ctx context.Context, code string) (*entity.Product, error)
	RecordScan(ctx context.Context, code string, p *entity.Product) error
}

// DefaultDevice primera cámara trasera identificable por nombre; si no hay, la primera.
func DefaultDevice(devices []Device) int {
	for i, d := range devices {
		l := strings.ToLower(d.Label)
		if strings.Contains(l, "back") || strings.Contains(l, "rear") || strings.Contains(l, "environment") {
			return i
		}
	}
	return 0
}
