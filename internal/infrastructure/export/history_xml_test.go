package export_test

import (
	"context"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pilo-web/internal/application/ports"
	"github.com/jhoicas/pilo-web/internal/domain/entity"
	"github.com/jhoicas/pilo-web/internal/infrastructure/export"
)

func sampleExport() ports.HistoryExport {
	return ports.HistoryExport{
		User:        &entity.User{Name: "Ana", Email: "ana@example.com"},
		GeneratedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		BaseURL:     "https://pilo.example/",
		Entries: []entity.HistoryEntry{
			{
				Product: entity.Product{
					Code:            "4006381333931",
					ProductName:     "Oat Drink",
					Brands:          "Oatly",
					FoodScore:       decimal.NewNullDecimal(decimal.RequireFromString("7.84")),
					FoodRestriction: entity.FoodRestriction{IsVegan: true, IsVegetarian: true},
					NutritionValues: entity.NutritionValues{"sugars": decimal.RequireFromString("4"), "fat": decimal.RequireFromString("1.5")},
					Allergens:       []string{"en:oats"},
					NutriscoreGrade: "b",
				},
				CreatedAt: time.Date(2026, 2, 28, 9, 30, 0, 0, time.UTC),
			},
			{Product: entity.Product{Code: "12345670"}},
		},
	}
}

func TestXMLExporter_EstructuraDelDocumento(t *testing.T) {
	out, err := export.NewXMLExporter().ExportHistoryXML(context.Background(), sampleExport())
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))

	root := doc.SelectElement("scanHistory")
	require.NotNil(t, root)
	assert.Equal(t, export.Namespace, root.SelectAttrValue("xmlns", ""))
	assert.Equal(t, "2", root.SelectAttrValue("count", ""))
	assert.Equal(t, "2026-03-01T10:00:00Z", root.SelectAttrValue("generatedAt", ""))
	assert.Equal(t, "ana@example.com", root.FindElement("user/email").Text())

	scans := root.SelectElements("scan")
	require.Len(t, scans, 2)

	first := scans[0]
	assert.Equal(t, "4006381333931", first.SelectAttrValue("code", ""))
	assert.Equal(t, "2026-02-28T09:30:00Z", first.SelectAttrValue("scannedAt", ""))
	assert.Equal(t, "Oat Drink", first.SelectElement("productName").Text())
	assert.Equal(t, "7.8", first.SelectElement("foodScore").Text())
	assert.Equal(t, "B", first.SelectElement("nutriScore").Text())
	assert.Equal(t, "true", first.SelectElement("diet").SelectAttrValue("vegan", ""))
	assert.Equal(t, "en:oats", first.FindElement("allergens/allergen").Text())

	values := first.FindElements("nutrition/value")
	require.Len(t, values, 2)
	assert.Equal(t, "fat", values[0].SelectAttrValue("name", ""))
	assert.Equal(t, "1.5", values[0].Text())
	assert.Equal(t, "https://pilo.example/product/4006381333931", first.SelectElement("link").Text())
}

func TestXMLExporter_EntradaMinima(t *testing.T) {
	out, err := export.NewXMLExporter().ExportHistoryXML(context.Background(), sampleExport())
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))
	second := doc.FindElements("scanHistory/scan")[1]

	assert.Equal(t, "Unknown Product", second.SelectElement("productName").Text())
	assert.Nil(t, second.SelectElement("foodScore"))
	assert.Nil(t, second.SelectElement("allergens"))
	assert.Empty(t, second.SelectAttrValue("scannedAt", ""))
	assert.Equal(t, "false", second.SelectElement("diet").SelectAttrValue("vegan", ""))
}

func TestXMLExporter_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := export.NewXMLExporter().ExportHistoryXML(ctx, sampleExport())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestXMLExporter_HistorialVacio(t *testing.T) {
	out, err := export.NewXMLExporter().ExportHistoryXML(context.Background(), ports.HistoryExport{GeneratedAt: time.Now()})
	require.NoError(t, err)
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out))
	assert.Equal(t, "0", doc.SelectElement("scanHistory").SelectAttrValue("count", ""))
	assert.Nil(t, doc.FindElement("scanHistory/user"))
}
