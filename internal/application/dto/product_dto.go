package dto

import (
	"time"

	"github.com/jhoicas/pilo-web/internal/domain/nutrition"
)

// ProductDetails fragmento de detalle de producto. Con Error no vacío se muestra
// "Error Loading Product"; con NotFound, "No product found for this barcode".
type ProductDetails struct {
	Code     string
	View     *nutrition.View
	Error    string
	NotFound bool
}

// HistoryItem tarjeta del historial.
type HistoryItem struct {
	Code      string
	Name      string
	Brands    string
	ImageURL  string
	Rating    string
	Tags      []string
	TimeAgo   string
	ScannedAt time.Time
}

// HistoryPage lista del historial o su error.
type HistoryPage struct {
	Items []HistoryItem
	Error string
}

// Empty sin error y sin elementos.
func (p HistoryPage) Empty() bool {
	return p.Error == "" && len(p.Items) == 0
}
