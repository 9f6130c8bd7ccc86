package entity_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pilo-web/internal/domain/entity"
)

const productJSON = `{
  "code": "5901234123457",
  "product_name": "Crunchy Oats",
  "brands": "Pilo Foods",
  "food_score": 7.25,
  "food_restriction": {"isVegan": true, "isVegetarian": true},
  "nutrition_values": {
    "energy": 1800,
    "fat": {"value": 12.5, "unit": "g"},
    "sugar": "30.2",
    "salt": {"unit": "g"},
    "fiber": "n/a",
    "protein": null
  },
  "nutrition_advisor": {"fat": "moderate", "sugar": {"level": "high"}},
  "allergens": ["gluten"],
  "nova_group": 4,
  "createdAt": "2024-05-01T10:00:00.000Z"
}`

func TestProduct_NormalizaValoresNutricionales(t *testing.T) {
	var p entity.Product
	require.NoError(t, json.Unmarshal([]byte(productJSON), &p))

	assert.Equal(t, "1800", p.NutritionValues["energy"].String(), "número directo")
	assert.Equal(t, "12.5", p.NutritionValues["fat"].String(), "objeto con value")
	assert.Equal(t, "30.2", p.NutritionValues["sugar"].String(), "string numérico")
	assert.True(t, p.NutritionValues["salt"].IsZero(), "objeto sin value vale 0")
	_, ok := p.NutritionValues["fiber"]
	assert.False(t, ok, "string no numérico se descarta")
	_, ok = p.NutritionValues["protein"]
	assert.False(t, ok, "null se descarta")

	assert.Equal(t, "moderate", p.NutritionAdvisor["fat"])
	assert.Equal(t, "high", p.NutritionAdvisor["sugar"])
	assert.Equal(t, entity.FlexString("4"), p.NovaGroup)
	assert.True(t, p.FoodScore.Valid)
	assert.Equal(t, "7.25", p.FoodScore.Decimal.String())
	assert.True(t, p.HasAllergen("gluten"))
	assert.False(t, p.HasAllergen("milk"))
}

func TestProduct_AdvisorComoStringSeIgnora(t *testing.T) {
	var p entity.Product
	require.NoError(t, json.Unmarshal([]byte(`{"code":"12345678","nutrition_advisor":"eat less sugar","nova_group":"3"}`), &p))
	assert.Empty(t, p.NutritionAdvisor)
	assert.Equal(t, entity.FlexString("3"), p.NovaGroup)
	assert.False(t, p.FoodScore.Valid)
	assert.Equal(t, "Unknown Product", p.NameOr("Unknown Product"))
}

func TestHistoryEntry_DecodificaCreatedAt(t *testing.T) {
	var h entity.HistoryEntry
	require.NoError(t, json.Unmarshal([]byte(productJSON), &h))
	assert.Equal(t, "5901234123457", h.Code)
	assert.Equal(t, 2024, h.CreatedAt.Year())
	assert.Equal(t, "Crunchy Oats", h.ProductName)
}
