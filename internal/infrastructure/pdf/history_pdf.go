// Package pdf genera el historial de escaneos en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Pilo + usuario      │  Scan History + fecha         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Código | Producto | Marca | Score | Dieta | Fecha    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR al historial + leyenda                           │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/pilo-web/internal/application/ports"
	"github.com/jhoicas/pilo-web/internal/domain/entity"
	"github.com/jhoicas/pilo-web/internal/domain/nutrition"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 46, Green: 125, Blue: 50}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// Verificar en tiempo de compilación que MarotoHistoryPDF implementa HistoryPDFGenerator.
var _ ports.HistoryPDFGenerator = (*MarotoHistoryPDF)(nil)

// MarotoHistoryPDF implementa ports.HistoryPDFGenerator usando Maroto v2.
type MarotoHistoryPDF struct{}

// NewMarotoHistoryPDF construye el generador.
func NewMarotoHistoryPDF() *MarotoHistoryPDF { return &MarotoHistoryPDF{} }

// GenerateHistoryPDF genera el PDF y devuelve sus bytes.
func (g *MarotoHistoryPDF) GenerateHistoryPDF(ctx context.Context, in ports.HistoryExport) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Pilo - Scan History", true).
		WithAuthor(in.User.DisplayName(), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(in))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	if len(in.Entries) == 0 {
		m.AddRows(row.New(10).Add(col.New(12).Add(
			text.New("No scanned products yet", props.Text{Size: 9, Align: align.Center, Top: 3, Color: colorGray}),
		)))
	}
	for i := range in.Entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m.AddRows(entryRow(&in.Entries[i]))
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRows(in)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(in ports.HistoryExport) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New("Pilo", props.Text{
				Style: fontstyle.Bold, Size: 14, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%s  |  %s", in.User.DisplayName(), nonEmpty(userEmail(in.User), "-")), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("Scan History", props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%d products", len(in.Entries)), props.Text{
				Size: 8, Align: align.Right, Top: 8,
			}),
			text.New("Generated: "+in.GeneratedAt.Format("2006-01-02 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Code", 3, align.Left),
		h("Product", 3, align.Left),
		h("Brand", 2, align.Left),
		h("Score", 1, align.Center),
		h("Diet", 1, align.Center),
		h("Scanned", 2, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

// entryRow una fila por escaneo; el código se dibuja como barra bajo el número.
func entryRow(e *entity.HistoryEntry) core.Row {
	scanned := "-"
	if !e.CreatedAt.IsZero() {
		scanned = e.CreatedAt.Format("2006-01-02 15:04")
	}
	return row.New(14).Add(
		col.New(3).Add(
			code.NewBar(e.Code, props.Barcode{Percent: 70, Top: 1}),
			text.New(e.Code, props.Text{Size: 7, Top: 10, Left: 1}),
		),
		col.New(3).Add(text.New(e.NameOr("Unknown Product"), props.Text{Size: 8, Top: 2, Left: 1})),
		col.New(2).Add(text.New(e.BrandsOr("-"), props.Text{Size: 8, Top: 2, Left: 1, Color: colorGray})),
		col.New(1).Add(text.New(nutrition.Rating(&e.Product), props.Text{Size: 8, Align: align.Center, Top: 2})),
		col.New(1).Add(text.New(nonEmpty(strings.Join(nutrition.Flags(&e.Product).Tags(), ", "), "-"), props.Text{Size: 7, Align: align.Center, Top: 2})),
		col.New(2).Add(text.New(scanned, props.Text{Size: 8, Align: align.Right, Top: 2, Right: 1})),
	)
}

func footerRows(in ports.HistoryExport) []core.Row {
	legend := func(top float64) core.Component {
		return text.New("Scores and dietary tags come from the Pilo product database and may change over time.", props.Text{
			Size: 7, Top: top, Left: 3, Color: colorGray,
		})
	}
	if in.BaseURL == "" {
		return []core.Row{row.New(10).Add(col.New(12).Add(legend(3)))}
	}
	link := strings.TrimRight(in.BaseURL, "/") + "/history"
	return []core.Row{
		row.New(30).Add(
			col.New(3).Add(code.NewQr(link, props.Rect{Percent: 90, Center: true})),
			col.New(9).Add(
				text.New("Scan the QR code to open your history in Pilo.", props.Text{
					Size: 8, Top: 4, Left: 3, Color: colorGray,
				}),
				text.New(link, props.Text{Style: fontstyle.Bold, Size: 8, Top: 10, Left: 3, Color: colorPrimary}),
				legend(18),
			),
		),
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func userEmail(u *entity.User) string {
	if u == nil {
		return ""
	}
	return u.Email
}
