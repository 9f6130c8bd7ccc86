package scanner

import (
	"context"

	"github.com/jhoicas/pilo-web/internal/application/ports"
	"github.com/jhoicas/pilo-web/internal/domain/entity"
)

// Verificar en tiempo de compilación que BackendSubmitter implementa Submitter.
var _ Submitter = (*BackendSubmitter)(nil)

// BackendSubmitter envía el código al backend de Pilo con la sesión del usuario.
type BackendSubmitter struct {
	api ports.ProductAPI
}

func NewBackendSubmitter(api ports.ProductAPI) *BackendSubmitter {
	return &BackendSubmitter{api: api}
}

// LookupProduct GET /api/v1/barcode/{code}.
func (b *BackendSubmitter) LookupProduct(ctx context.Context, code string) (*entity.Product, error) {
	return b.api.Product(ctx, code)
}

// RecordScan POST /data/history/add con el resultado de la consulta.
func (b *BackendSubmitter) RecordScan(ctx context.Context, code string, p *entity.Product) error {
	return b.api.AddHistory(ctx, code, p)
}
