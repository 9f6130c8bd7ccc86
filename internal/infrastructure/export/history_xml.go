// Package export serializa el historial de escaneos a XML.
package export

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/jhoicas/pilo-web/internal/application/ports"
	"github.com/jhoicas/pilo-web/internal/domain/entity"
	"github.com/jhoicas/pilo-web/internal/domain/nutrition"
)

// Namespace del documento exportado.
const Namespace = "https://www.pilo.life/schema/scan-history/1"

// Verificar en tiempo de compilación que XMLExporter implementa HistoryXMLExporter.
var _ ports.HistoryXMLExporter = (*XMLExporter)(nil)

// XMLExporter arma el documento con etree.
type XMLExporter struct{}

func NewXMLExporter() *XMLExporter { return &XMLExporter{} }

// ExportHistoryXML devuelve el historial como <scanHistory>, una <scan> por entrada.
func (x *XMLExporter) ExportHistoryXML(ctx context.Context, in ports.HistoryExport) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("scanHistory")
	root.CreateAttr("xmlns", Namespace)
	root.CreateAttr("generatedAt", in.GeneratedAt.UTC().Format(time.RFC3339))
	root.CreateAttr("count", strconv.Itoa(len(in.Entries)))

	if in.User != nil {
		u := root.CreateElement("user")
		u.CreateElement("name").SetText(in.User.DisplayName())
		if in.User.Email != "" {
			u.CreateElement("email").SetText(in.User.Email)
		}
	}

	for i := range in.Entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		writeScan(root, &in.Entries[i], in.BaseURL)
	}

	doc.Indent(2)
	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("export: serializar XML: %w", err)
	}
	return out.Bytes(), nil
}

func writeScan(root *etree.Element, e *entity.HistoryEntry, baseURL string) {
	p := &e.Product
	scan := root.CreateElement("scan")
	scan.CreateAttr("code", p.Code)
	if !e.CreatedAt.IsZero() {
		scan.CreateAttr("scannedAt", e.CreatedAt.UTC().Format(time.RFC3339))
	}

	scan.CreateElement("productName").SetText(p.NameOr("Unknown Product"))
	if p.Brands != "" {
		scan.CreateElement("brands").SetText(p.Brands)
	}
	if p.FoodScore.Valid {
		scan.CreateElement("foodScore").SetText(p.FoodScore.Decimal.StringFixed(1))
	}
	if p.NutriscoreGrade != "" {
		scan.CreateElement("nutriScore").SetText(strings.ToUpper(p.NutriscoreGrade))
	}
	if p.NovaGroup != "" {
		scan.CreateElement("novaGroup").SetText(string(p.NovaGroup))
	}

	flags := nutrition.Flags(p)
	diet := scan.CreateElement("diet")
	diet.CreateAttr("vegan", strconv.FormatBool(flags.Vegan))
	diet.CreateAttr("vegetarian", strconv.FormatBool(flags.Vegetarian))
	diet.CreateAttr("glutenFree", strconv.FormatBool(flags.GlutenFree))
	diet.CreateAttr("lactoseFree", strconv.FormatBool(flags.LactoseFree))

	if len(p.Allergens) > 0 {
		al := scan.CreateElement("allergens")
		for _, a := range p.Allergens {
			al.CreateElement("allergen").SetText(a)
		}
	}

	if len(p.NutritionValues) > 0 {
		nv := scan.CreateElement("nutrition")
		for _, k := range p.NutritionValues.Keys() {
			v := nv.CreateElement("value")
			v.CreateAttr("name", k)
			v.CreateAttr("unit", nutrition.Unit(k))
			v.SetText(p.NutritionValues[k].String())
		}
	}

	if baseURL != "" && p.Code != "" {
		scan.CreateElement("link").SetText(strings.TrimRight(baseURL, "/") + "/product/" + url.PathEscape(p.Code))
	}
}
