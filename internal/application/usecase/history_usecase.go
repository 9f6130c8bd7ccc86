package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/pilo-web/internal/application/dto"
	"github.com/jhoicas/pilo-web/internal/application/ports"
	"github.com/jhoicas/pilo-web/internal/domain"
	"github.com/jhoicas/pilo-web/internal/domain/entity"
	"github.com/jhoicas/pilo-web/internal/domain/nutrition"
	"github.com/jhoicas/pilo-web/pkg/logger"
)

// MsgHistoryError mensaje fijo del estado de error del historial.
const MsgHistoryError = "Failed to load scan history"

// HistoryUseCase historial de escaneos del usuario.
type HistoryUseCase struct {
	api ports.ProductAPI
	log *logger.Logger
	now func() time.Time
}

func NewHistoryUseCase(api ports.ProductAPI, log *logger.Logger) *HistoryUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &HistoryUseCase{api: api, log: log, now: time.Now}
}

// Entries historial crudo en el orden del backend (para exportar).
func (uc *HistoryUseCase) Entries(ctx context.Context) ([]entity.HistoryEntry, error) {
	return uc.api.History(ctx)
}

// Page arma las tarjetas. Solo devuelve error cuando la sesión se perdió.
func (uc *HistoryUseCase) Page(ctx context.Context) (dto.HistoryPage, error) {
	entries, err := uc.api.History(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrSessionExpired) || errors.Is(err, domain.ErrNoToken) {
			return dto.HistoryPage{}, err
		}
		uc.log.Warn().Err(err).Msg("cargar historial")
		return dto.HistoryPage{Error: MsgHistoryError}, nil
	}
	now := uc.now()
	items := make([]dto.HistoryItem, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		items = append(items, dto.HistoryItem{
			Code:      e.Code,
			Name:      e.ProductName,
			Brands:    e.Brands,
			ImageURL:  e.ImageURL,
			Rating:    nutrition.Rating(&e.Product),
			Tags:      nutrition.Flags(&e.Product).Tags(),
			TimeAgo:   FormatTimeAgo(now, e.CreatedAt),
			ScannedAt: e.CreatedAt,
		})
	}
	return dto.HistoryPage{Items: items}, nil
}
