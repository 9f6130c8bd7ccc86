// Package nutrition deriva el modelo de vista de un producto: flags dietarios,
// consejo por nutriente contra bandas fijas y colores de los niveles del asesor.
package nutrition

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/pilo-web/internal/domain/entity"
)

// Tone color semántico usado por las plantillas.
type Tone string

const (
	ToneGreen  Tone = "green"
	ToneYellow Tone = "yellow"
	ToneRed    Tone = "red"
	ToneBlue   Tone = "blue"
	ToneGray   Tone = "gray"
)

// Textos de consejo.
const (
	AdviceLow     = "Low - Consider increasing intake"
	AdviceHigh    = "High - Consider reducing intake"
	AdviceOptimal = "Optimal range"
)

// ScoreMax tope del indicador circular del puntaje.
const ScoreMax = 10

// Band rango de referencia diario de un nutriente.
type Band struct {
	Low  decimal.Decimal
	High decimal.Decimal
	Unit string
}

func band(low, high, unit string) Band {
	return Band{Low: decimal.RequireFromString(low), High: decimal.RequireFromString(high), Unit: unit}
}

// Bandas fijas; las claves se comparan en minúsculas.
var bands = map[string]Band{
	"energy":  band("1500", "2500", "kcal"),
	"fat":     band("44", "77", "g"),
	"sugar":   band("25", "50", "g"),
	"salt":    band("0.3", "6", "g"),
	"sodium":  band("0.12", "2.4", "g"),
	"fiber":   band("25", "35", "g"),
	"protein": band("50", "70", "g"),
}

// BandFor devuelve la banda del nutriente si existe.
func BandFor(nutrient string) (Band, bool) {
	b, ok := bands[strings.ToLower(nutrient)]
	return b, ok
}

// Advice resultado de clasificar un valor.
type Advice struct {
	Text string
	Tone Tone
}

// AdviceFor clasifica value contra la banda del nutriente. Cero o nutriente
// sin banda no llevan consejo (gris).
func AdviceFor(nutrient string, value decimal.Decimal) Advice {
	if value.IsZero() {
		return Advice{Tone: ToneGray}
	}
	b, ok := BandFor(nutrient)
	if !ok {
		return Advice{Tone: ToneGray}
	}
	switch {
	case value.LessThan(b.Low):
		return Advice{Text: AdviceLow, Tone: ToneYellow}
	case value.GreaterThan(b.High):
		return Advice{Text: AdviceHigh, Tone: ToneRed}
	default:
		return Advice{Text: AdviceOptimal, Tone: ToneGreen}
	}
}

// AdvisorTone color fijo para los niveles que envía el backend.
func AdvisorTone(level string) Tone {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "low":
		return ToneGreen
	case "medium", "moderate":
		return ToneYellow
	case "high":
		return ToneRed
	default:
		return ToneGray
	}
}

// Unit energy en kcal, el resto en gramos.
func Unit(nutrient string) string {
	if strings.ToLower(nutrient) == "energy" {
		return "kcal"
	}
	return "g"
}

var titleCaser = cases.Title(language.English)

// Label "saturated_fat" → "Saturated Fat".
func Label(key string) string {
	return titleCaser.String(strings.ReplaceAll(key, "_", " "))
}

// DietaryFlags vegano/vegetariano vienen del backend; sin gluten/sin lactosa son
// la negación de la presencia del alérgeno correspondiente.
type DietaryFlags struct {
	Vegan       bool
	Vegetarian  bool
	GlutenFree  bool
	LactoseFree bool
}

// Flags deriva los flags dietarios de un producto.
func Flags(p *entity.Product) DietaryFlags {
	return DietaryFlags{
		Vegan:       p.FoodRestriction.IsVegan,
		Vegetarian:  p.FoodRestriction.IsVegetarian,
		GlutenFree:  !p.HasAllergen("gluten"),
		LactoseFree: !p.HasAllergen("milk"),
	}
}

// FlagRow fila de la sección "Dietary Information".
type FlagRow struct {
	Label string
	OK    bool
}

// Rows en el orden de la vista.
func (f DietaryFlags) Rows() []FlagRow {
	return []FlagRow{
		{Label: "Vegan", OK: f.Vegan},
		{Label: "Vegetarian", OK: f.Vegetarian},
		{Label: "Gluten Free", OK: f.GlutenFree},
		{Label: "Lactose Free", OK: f.LactoseFree},
	}
}

// Tags etiquetas que muestran las tarjetas del historial.
func (f DietaryFlags) Tags() []string {
	var tags []string
	if f.Vegan {
		tags = append(tags, "Vegan")
	}
	if f.Vegetarian {
		tags = append(tags, "Vegetarian")
	}
	return tags
}

// NutrientRow valor nutricional con su consejo.
type NutrientRow struct {
	Key    string
	Label  string
	Value  string
	Unit   string
	Advice Advice
}

// AdvisorRow nivel del asesor del backend.
type AdvisorRow struct {
	Label string
	Level string
	Tone  Tone
}

// View modelo de vista de la página de producto.
type View struct {
	Code            string
	Name            string
	Brands          string
	ImageURL        string
	Score           decimal.Decimal
	ScoreText       string
	ScorePercent    int // 0..100 para el indicador
	Flags           DietaryFlags
	Nutrients       []NutrientRow
	Advisor         []AdvisorRow
	Allergens       []string
	NutriScore      string
	NovaGroup       string
	IngredientsText string
}

// BuildView arma el modelo de vista con los valores por defecto de la página.
func BuildView(p *entity.Product) View {
	v := View{
		Code:            p.Code,
		Name:            p.NameOr("Unknown Product"),
		Brands:          p.BrandsOr("Unknown Brand"),
		ImageURL:        p.ImageURL,
		Flags:           Flags(p),
		Allergens:       p.Allergens,
		NutriScore:      strings.ToUpper(p.NutriscoreGrade),
		NovaGroup:       string(p.NovaGroup),
		IngredientsText: p.IngredientsText,
	}
	if p.FoodScore.Valid {
		v.Score = p.FoodScore.Decimal
	}
	v.ScoreText = v.Score.StringFixed(1)
	v.ScorePercent = scorePercent(v.Score)

	for _, k := range p.NutritionValues.Keys() {
		val := p.NutritionValues[k]
		v.Nutrients = append(v.Nutrients, NutrientRow{
			Key:    k,
			Label:  Label(k),
			Value:  val.Round(2).String(),
			Unit:   Unit(k),
			Advice: AdviceFor(k, val),
		})
	}
	for _, k := range p.NutritionAdvisor.Keys() {
		level := p.NutritionAdvisor[k]
		v.Advisor = append(v.Advisor, AdvisorRow{
			Label: Label(k),
			Level: Label(level),
			Tone:  AdvisorTone(level),
		})
	}
	return v
}

// Rating puntaje con un decimal o "N/A" si el backend no lo envió.
func Rating(p *entity.Product) string {
	if !p.FoodScore.Valid {
		return "N/A"
	}
	return p.FoodScore.Decimal.StringFixed(1)
}

func scorePercent(score decimal.Decimal) int {
	pct := score.Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(ScoreMax)).Round(0).IntPart()
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return int(pct)
}
