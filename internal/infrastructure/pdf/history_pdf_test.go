package pdf_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	lpdf "github.com/ledongthuc/pdf"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pilo-web/internal/application/ports"
	"github.com/jhoicas/pilo-web/internal/domain/entity"
	"github.com/jhoicas/pilo-web/internal/infrastructure/pdf"
)

func extractText(t *testing.T, data []byte) (string, int) {
	t.Helper()
	doc, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var b strings.Builder
	for i := 1; i <= doc.NumPage(); i++ {
		p := doc.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		require.NoError(t, err)
		b.WriteString(content)
	}
	return b.String(), doc.NumPage()
}

func TestGenerateHistoryPDF(t *testing.T) {
	in := ports.HistoryExport{
		User: &entity.User{Name: "Ana", Email: "ana@pilo.life"},
		Entries: []entity.HistoryEntry{
			{Product: entity.Product{Code: "5901234123457", ProductName: "Oats", Brands: "Quaker",
				FoodScore: decimal.NewNullDecimal(decimal.RequireFromString("8.2"))}, CreatedAt: time.Now()},
			{Product: entity.Product{Code: "96385074"}},
		},
		GeneratedAt: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		BaseURL:     "https://pilo.example",
	}
	data, err := pdf.NewMarotoHistoryPDF().GenerateHistoryPDF(context.Background(), in)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	txt, pages := extractText(t, data)
	assert.GreaterOrEqual(t, pages, 1)
	for _, want := range []string{"Oats", "Quaker", "5901234123457", "96385074"} {
		assert.Contains(t, txt, want)
	}
}

func TestGenerateHistoryPDF_Vacio(t *testing.T) {
	data, err := pdf.NewMarotoHistoryPDF().GenerateHistoryPDF(context.Background(), ports.HistoryExport{GeneratedAt: time.Now()})
	require.NoError(t, err)
	txt, _ := extractText(t, data)
	assert.Contains(t, txt, "scanned")
}
