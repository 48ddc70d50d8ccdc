// Package pdf genera la hoja de picking de un pedido (A4) con Maroto v2.
//
// Layout:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Hoja de picking + N° pedido │ Estado + Fecha        │
//	│  BODEGA: nombre + dirección │ CLIENTE                        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: # | Producto | Código | Cantidad | OK                │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTAL: líneas y unidades                                    │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
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

	"github.com/jhoicas/stockflow-api/internal/application/order"
	"github.com/jhoicas/stockflow-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ order.PickingListGenerator = (*MarotoPickingListGenerator)(nil)

// MarotoPickingListGenerator implementa order.PickingListGenerator usando Maroto v2.
type MarotoPickingListGenerator struct{}

// NewMarotoPickingListGenerator construye el generador.
func NewMarotoPickingListGenerator() *MarotoPickingListGenerator {
	return &MarotoPickingListGenerator{}
}

// GeneratePickingList genera el PDF y devuelve sus bytes.
func (g *MarotoPickingListGenerator) GeneratePickingList(
	_ context.Context,
	o *entity.Order,
	warehouse *entity.Warehouse,
	lines []order.PickingLine,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Hoja de picking "+o.ID, true).
		WithAuthor(warehouse.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(o))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(partiesRow(o, warehouse))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableRows(lines)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(lines))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(o *entity.Order) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New("HOJA DE PICKING", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Pedido: "+o.ID, props.Text{Size: 8, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("Estado: "+o.Status, props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 1,
			}),
			text.New("Fecha: "+o.CreatedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

func partiesRow(o *entity.Order, w *entity.Warehouse) core.Row {
	return row.New(16).Add(
		col.New(6).Add(
			text.New("BODEGA", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(w.Name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(nonEmpty(w.Address, "—"), props.Text{Size: 8, Top: 11, Color: colorGray}),
		),
		col.New(6).Add(
			text.New("CLIENTE", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(o.Customer, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("#", 1, align.Center),
		h("Producto", 5, align.Left),
		h("Código", 3, align.Left),
		h("Cantidad", 2, align.Right),
		h("OK", 1, align.Center),
	)
}

func tableRows(lines []order.PickingLine) []core.Row {
	rows := make([]core.Row, 0, len(lines))
	for i, l := range lines {
		rows = append(rows, row.New(7).Add(
			col.New(1).Add(text.New(strconv.Itoa(i+1), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(5).Add(text.New(l.ProductName, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(3).Add(text.New(shortID(l.ProductID), props.Text{Size: 7, Top: 1, Left: 1, Color: colorGray})),
			col.New(2).Add(text.New(strconv.FormatInt(l.Count, 10), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New("[  ]", props.Text{Size: 8, Align: align.Center, Top: 1})),
		))
	}
	return rows
}

func totalsRow(lines []order.PickingLine) core.Row {
	var units int64
	for _, l := range lines {
		units += l.Count
	}
	return row.New(10).Add(
		col.New(6),
		col.New(6).Add(text.New(
			fmt.Sprintf("Líneas: %d   |   Unidades: %d", len(lines), units),
			props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 2, Right: 1},
		)),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// shortID deja los primeros 8 caracteres de un UUID para que quepa en la columna.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
