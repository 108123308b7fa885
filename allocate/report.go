package allocate

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"

	"github.com/hausverwaltung/umlage/money"
)

// Document is the serialized form of a Report. Every monetary and quantity
// field is a decimal string; binary floats never appear on the wire.
type Document struct {
	PropertyID   string `json:"propertyId"`
	PropertyName string `json:"propertyName"`
	Year         int    `json:"year"`

	Pools  map[string]string `json:"pools"`
	Prices map[string]string `json:"prices"`

	Units  []UnitDocument  `json:"units"`
	Checks []CheckDocument `json:"checks"`
}

// UnitDocument is one unit's row in the serialized report.
type UnitDocument struct {
	UnitID     string `json:"unitId"`
	Label      string `json:"label"`
	General    string `json:"general"`
	Water      string `json:"water"`
	Electric   string `json:"electricity"`
	HotWater   string `json:"hotWater"`
	Heating    string `json:"heating"`
	Net10      string `json:"net10"`
	Net20      string `json:"net20"`
	Gross10    string `json:"gross10"`
	Gross20    string `json:"gross20"`
	GrossTotal string `json:"grossTotal"`
	Akonto     string `json:"akonto"`
	Balance    string `json:"balance"`
}

// CheckDocument is one plausibility check in the serialized report.
type CheckDocument struct {
	Name        string `json:"name"`
	Pool        string `json:"pool"`
	Distributed string `json:"distributed"`
	Delta       string `json:"delta"`
}

// Document converts the report into its serializable form.
func (r *Report) Document() *Document {
	doc := &Document{
		PropertyID:   r.PropertyID,
		PropertyName: r.PropertyName,
		Year:         r.Year,
		Pools: map[string]string{
			"general":     money.Cents(r.General.Pool),
			"water":       money.Cents(r.Water.Pool),
			"electricity": money.Cents(r.Electricity.Pool),
			"hotWater":    money.Cents(r.HotWater.Pool),
			"heating":     money.Cents(r.Heating.Pool),
		},
		Prices: map[string]string{
			"waterPerM3":    r.Water.PricePerM3.String(),
			"powerPerKWh":   r.Electricity.PricePerKWh.String(),
			"hotWaterPerM3": r.HotWater.PricePerM3.String(),
		},
	}

	for i, s := range r.Statement {
		doc.Units = append(doc.Units, UnitDocument{
			UnitID:     s.UnitID,
			Label:      s.Label,
			General:    money.Cents(r.General.Rows[i].Amount),
			Water:      money.Cents(r.Water.Rows[i].Cost),
			Electric:   money.Cents(r.Electricity.Rows[i].Amount),
			HotWater:   money.Cents(r.HotWater.Rows[i].Cost),
			Heating:    money.Cents(r.Heating.Rows[i].Total),
			Net10:      money.Cents(s.Net10),
			Net20:      money.Cents(s.Net20),
			Gross10:    money.Cents(s.Gross10),
			Gross20:    money.Cents(s.Gross20),
			GrossTotal: money.Cents(s.GrossTotal),
			Akonto:     money.Cents(s.Akonto),
			Balance:    money.Cents(s.Balance),
		})
	}

	for _, c := range r.Checks {
		doc.Checks = append(doc.Checks, CheckDocument{
			Name:        c.Name,
			Pool:        money.Cents(c.Pool),
			Distributed: money.Cents(c.Distributed),
			Delta:       money.Cents(c.Delta),
		})
	}

	return doc
}

// Render writes a human-readable table of the report. Unit labels carry
// German umlauts, so cells are padded by display width, not byte length.
func (r *Report) Render(w io.Writer) {
	fmt.Fprintf(w, "Betriebskostenabrechnung %s %d\n\n", r.PropertyName, r.Year)

	header := []string{"Einheit", "BK", "Wasser", "Strom", "Warmwasser", "Heizung", "Brutto", "Akonto", "Saldo"}
	rows := [][]string{header}
	for i, s := range r.Statement {
		rows = append(rows, []string{
			s.Label,
			money.Cents(r.General.Rows[i].Amount),
			money.Cents(r.Water.Rows[i].Cost),
			money.Cents(r.Electricity.Rows[i].Amount),
			money.Cents(r.HotWater.Rows[i].Cost),
			money.Cents(r.Heating.Rows[i].Total),
			money.Cents(s.GrossTotal),
			money.Cents(s.Akonto),
			money.Cents(s.Balance),
		})
	}

	widths := make([]int, len(header))
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i == 0 {
				cells[i] = padRight(cell, widths[i])
			} else {
				cells[i] = padLeft(cell, widths[i])
			}
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " "))
	}

	fmt.Fprintln(w)
	for _, c := range r.Checks {
		fmt.Fprintf(w, "check %s: pool %s, distributed %s, delta %s\n",
			c.Name, money.Cents(c.Pool), money.Cents(c.Distributed), money.Cents(c.Delta))
	}
}

// CheckTolerance is the largest check delta considered a rounding residual;
// anything above it points at a broken correction pass.
var CheckTolerance = decimal.New(5, -2)

// CheckWarnings returns the checks whose delta exceeds the tolerance.
func (r *Report) CheckWarnings() []Check {
	var warnings []Check
	for _, c := range r.Checks {
		if c.Delta.Abs().GreaterThan(CheckTolerance) {
			warnings = append(warnings, c)
		}
	}
	return warnings
}

func padLeft(s string, width int) string {
	return strings.Repeat(" ", max(0, width-runewidth.StringWidth(s))) + s
}

func padRight(s string, width int) string {
	return s + strings.Repeat(" ", max(0, width-runewidth.StringWidth(s)))
}
