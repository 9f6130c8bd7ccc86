package ports

import (
	"context"
	"time"

	"github.com/jhoicas/pilo-web/internal/domain/entity"
)

// HistoryExport datos de una exportación del historial.
type HistoryExport struct {
	User        *entity.User
	Entries     []entity.HistoryEntry
	GeneratedAt time.Time
	BaseURL     string // raíz pública para los enlaces a /product/{code}
}

// HistoryPDFGenerator puerto de salida para el PDF del historial.
type HistoryPDFGenerator interface {
	GenerateHistoryPDF(ctx context.Context, in HistoryExport) ([]byte, error)
}

// HistoryXMLExporter puerto de salida para el XML del historial.
type HistoryXMLExporter interface {
	ExportHistoryXML(ctx context.Context, in HistoryExport) ([]byte, error)
}
