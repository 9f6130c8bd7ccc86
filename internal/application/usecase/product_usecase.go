package usecase

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/pilo-web/internal/application/dto"
	"github.com/jhoicas/pilo-web/internal/application/ports"
	"github.com/jhoicas/pilo-web/internal/domain"
	"github.com/jhoicas/pilo-web/internal/domain/entity"
	"github.com/jhoicas/pilo-web/internal/domain/nutrition"
	"github.com/jhoicas/pilo-web/pkg/logger"
)

// MsgProductFetchError mensaje cuando el backend no explica el fallo.
const MsgProductFetchError = "An error occurred while fetching product data"

// ProductUseCase detalle de producto para la sesión del usuario.
type ProductUseCase struct {
	api      ports.ProductAPI
	minDelay time.Duration
	log      *logger.Logger
}

// NewProductUseCase construye el caso de uso. minDelay es la duración mínima del esqueleto de carga.
func NewProductUseCase(api ports.ProductAPI, minDelay time.Duration, log *logger.Logger) *ProductUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ProductUseCase{api: api, minDelay: minDelay, log: log}
}

// Load consulta el producto y espera al menos minDelay, ambos en paralelo.
// El retardo mínimo se respeta también cuando la consulta falla.
func (uc *ProductUseCase) Load(ctx context.Context, code string) (*entity.Product, error) {
	g, gctx := errgroup.WithContext(ctx)
	var p *entity.Product
	g.Go(func() error {
		var err error
		p, err = uc.api.Product(gctx, code)
		return err
	})
	g.Go(func() error {
		t := time.NewTimer(uc.minDelay)
		defer t.Stop()
		select {
		case <-t.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return p, nil
}

// Details arma el fragmento de detalle. Solo devuelve error cuando la sesión se perdió;
// el resto de fallos queda en ProductDetails.Error.
func (uc *ProductUseCase) Details(ctx context.Context, code string) (dto.ProductDetails, error) {
	out := dto.ProductDetails{Code: code}
	p, err := uc.Load(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrSessionExpired) || errors.Is(err, domain.ErrNoToken) {
			return out, err
		}
		uc.log.Warn().Err(err).Str("code", code).Msg("detalle de producto")
		out.Error = domain.BackendMessage(err, MsgProductFetchError)
		return out, nil
	}
	if p == nil {
		out.NotFound = true
		return out, nil
	}
	v := nutrition.BuildView(p)
	out.View = &v
	return out, nil
}
