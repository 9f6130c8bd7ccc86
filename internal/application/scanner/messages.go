package scanner

import (
	"errors"
	"net/http"

	"github.com/jhoicas/pilo-web/internal/domain"
)

// Mensajes visibles del escáner.
const (
	MsgInvalidBarcode   = "Invalid barcode format"
	MsgProductNotFound  = "Product not found"
	MsgUnavailable      = "Service temporarily unavailable"
	MsgFetchFailed      = "Failed to fetch product information"
	MsgNetwork          = "Network error - please check your connection"
	MsgUnexpected       = "An unexpected error occurred"
	MsgCameraAccess     = "Failed to access camera. Please check your browser settings."
	MsgStreamTimeout    = "Camera did not start in time. Please try again."
	MsgInitFailed       = "Failed to initialize scanner. Please try again."
	MsgUnsupported      = "Camera scanning is not supported on this device."
	MsgNoBarcodeInImage = "No barcode found in image."
)

// MessageFor traduce un error de Processing a su mensaje fijo.
func MessageFor(err error) string {
	if errors.Is(err, domain.ErrInvalidBarcode) {
		return MsgInvalidBarcode
	}
	if be, ok := domain.AsBackendError(err); ok {
		switch be.Status {
		case http.StatusBadRequest:
			return MsgInvalidBarcode
		case http.StatusNotFound:
			return MsgProductNotFound
		case http.StatusServiceUnavailable:
			return MsgUnavailable
		default:
			return MsgFetchFailed
		}
	}
	if errors.Is(err, domain.ErrNoResponse) {
		return MsgNetwork
	}
	return MsgUnexpected
}

// sessionLost errores que fuerzan volver al login.
func sessionLost(err error) bool {
	return errors.Is(err, domain.ErrSessionExpired) || errors.Is(err, domain.ErrNoToken)
}
