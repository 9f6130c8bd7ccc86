package entity

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product payload de GET /api/v1/barcode/{code}. Solo lectura: el cliente nunca lo modifica.
// Los campos con forma variable (valores nutricionales, niveles del asesor, grupo NOVA)
// se normalizan al decodificar.
type Product struct {
	Code             string              `json:"code"`
	ProductName      string              `json:"product_name,omitempty"`
	Brands           string              `json:"brands,omitempty"`
	ImageURL         string              `json:"image_url,omitempty"`
	FoodScore        decimal.NullDecimal `json:"food_score"`
	FoodRestriction  FoodRestriction     `json:"food_restriction"`
	NutritionValues  NutritionValues     `json:"nutrition_values,omitempty"`
	NutritionAdvisor AdvisorLevels       `json:"nutrition_advisor,omitempty"`
	Allergens        []string            `json:"allergens,omitempty"`
	NutriscoreGrade  string              `json:"nutriscore_grade,omitempty"`
	NovaGroup        FlexString          `json:"nova_group,omitempty"`
	IngredientsText  string              `json:"ingredients_text,omitempty"`
}

// FoodRestriction flags dietarios calculados por el backend.
type FoodRestriction struct {
	IsVegan      bool `json:"isVegan"`
	IsVegetarian bool `json:"isVegetarian"`
}

// HasAllergen informa si el alérgeno aparece en la lista (comparación exacta, como la entrega el backend).
func (p *Product) HasAllergen(name string) bool {
	for _, a := range p.Allergens {
		if a == name {
			return true
		}
	}
	return false
}

// NameOr devuelve el nombre del producto o el valor por defecto.
func (p *Product) NameOr(def string) string {
	if strings.TrimSpace(p.ProductName) == "" {
		return def
	}
	return p.ProductName
}

// BrandsOr devuelve la marca o el valor por defecto.
func (p *Product) BrandsOr(def string) string {
	if strings.TrimSpace(p.Brands) == "" {
		return def
	}
	return p.Brands
}

// HistoryEntry producto escaneado más la fecha de creación (GET /data/history).
type HistoryEntry struct {
	Product
	CreatedAt time.Time `json:"createdAt"`
}

// ── Normalización de formas ambiguas ─────────────────────────────────────────

// NutritionValues nutriente → valor canónico. Acepta por cada clave un número,
// un string numérico o un objeto {"value": ...}. Valores no numéricos se descartan.
type NutritionValues map[string]decimal.Decimal

func (n *NutritionValues) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*n = nil
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		// Forma desconocida (array, string): se ignora en lugar de fallar todo el producto.
		*n = nil
		return nil
	}
	out := make(NutritionValues, len(raw))
	for k, v := range raw {
		if d, ok := ParseNumeric(v); ok {
			out[k] = d
		}
	}
	*n = out
	return nil
}

// Keys claves ordenadas alfabéticamente para un render estable.
func (n NutritionValues) Keys() []string {
	keys := make([]string, 0, len(n))
	for k := range n {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseNumeric coerciona un valor JSON (número, string numérico u objeto con "value") a decimal.
// Un objeto sin "value" numérico vale 0.
func ParseNumeric(raw json.RawMessage) (decimal.Decimal, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return decimal.Zero, false
	}
	switch raw[0] {
	case '{':
		var obj struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return decimal.Zero, false
		}
		if d, ok := ParseNumeric(obj.Value); ok {
			return d, true
		}
		return decimal.Zero, true
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		d, err := decimal.NewFromString(string(raw))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}
}

// AdvisorLevels nutriente → nivel ("low", "medium", "high"...). El backend a veces
// envía un string libre en lugar del objeto; en ese caso queda vacío.
type AdvisorLevels map[string]string

func (a *AdvisorLevels) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		*a = nil
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		*a = nil
		return nil
	}
	out := make(AdvisorLevels, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
			continue
		}
		var obj struct {
			Level string `json:"level"`
		}
		if err := json.Unmarshal(v, &obj); err == nil && obj.Level != "" {
			out[k] = obj.Level
		}
	}
	*a = out
	return nil
}

// Keys claves ordenadas.
func (a AdvisorLevels) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FlexString acepta número o string y guarda su representación textual.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if isNull(data) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(data), 64); err != nil {
		*f = ""
		return nil
	}
	*f = FlexString(data)
	return nil
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}
