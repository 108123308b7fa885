package allocate

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"

	"github.com/hausverwaltung/umlage/estate"
	"github.com/hausverwaltung/umlage/money"
)

// Pools holds the net cost pools of one property year. A property without
// expenses yields zero pools, never an error, so year switches over sparse
// history stay cheap.
type Pools struct {
	Year        int
	Electricity decimal.Decimal
	Water       decimal.Decimal
	Operating   decimal.Decimal
}

// AggregatePools folds the dated expense records of one property into the
// three named cost pools for the given calendar year. Records outside the
// year and records of other categories are ignored.
func AggregatePools(expenses []estate.Expense, year int) Pools {
	pools := Pools{
		Year:        year,
		Electricity: decimal.Zero,
		Water:       decimal.Zero,
		Operating:   decimal.Zero,
	}

	for _, e := range expenses {
		if e.Date.Year() != year {
			continue
		}
		switch e.Category {
		case estate.ExpenseElectricity:
			pools.Electricity = pools.Electricity.Add(e.Net)
		case estate.ExpenseWater:
			pools.Water = pools.Water.Add(e.Net)
		case estate.ExpenseOperating:
			pools.Operating = pools.Operating.Add(e.Net)
		}
	}

	return pools
}

// YearlyConsumption derives a meter's total consumption for one calendar
// year from its readings, at milli precision.
//
// Consumption meters report per-interval values: the year total is the sum
// of all readings dated inside the year.
//
// Cumulative meters report a running counter: the year total is the last
// reading inside the year minus the last reading at or before the start of
// the year. When no reading precedes the year start, the earliest available
// reading serves as the baseline (the total is clipped to reading
// availability). A meter with no readings in the year contributes zero.
func YearlyConsumption(meter estate.Meter, readings []estate.MeterReading, year int) decimal.Decimal {
	own := make([]estate.MeterReading, 0, len(readings))
	for _, r := range readings {
		if r.MeterID == meter.ID {
			own = append(own, r)
		}
	}
	if len(own) == 0 {
		return decimal.Zero
	}

	slices.SortStableFunc(own, func(a, b estate.MeterReading) int {
		return a.Date.Compare(b.Date)
	})

	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	nextStart := yearStart.AddDate(1, 0, 0)

	if meter.Kind == estate.MeterConsumption {
		total := decimal.Zero
		for _, r := range own {
			if !r.Date.Before(yearStart) && r.Date.Before(nextStart) {
				total = total.Add(r.Value)
			}
		}
		return money.RoundMilli(total)
	}

	// Cumulative counter.
	var baseline, end *estate.MeterReading
	for i := range own {
		r := &own[i]
		if !r.Date.After(yearStart) {
			baseline = r
		}
		if r.Date.Before(nextStart) {
			end = r
		}
	}
	if end == nil {
		return decimal.Zero
	}
	if baseline == nil {
		baseline = &own[0]
	}
	if !baseline.Date.Before(end.Date) {
		return decimal.Zero
	}
	return money.RoundMilli(end.Value.Sub(baseline.Value))
}

// mediumTotal sums the yearly consumption of all meters with the given
// medium, split by whether the meter is communal.
func mediumTotal(meters []estate.Meter, readings []estate.MeterReading, year int, medium estate.MeterMedium, communal bool) decimal.Decimal {
	total := decimal.Zero
	for _, m := range meters {
		if m.Medium != medium || m.Communal() != communal {
			continue
		}
		total = total.Add(YearlyConsumption(m, readings, year))
	}
	return total
}

// unitMediumTotal sums the yearly consumption of one unit's meters across
// the given media.
func unitMediumTotal(meters []estate.Meter, readings []estate.MeterReading, year int, unitID string, media ...estate.MeterMedium) decimal.Decimal {
	total := decimal.Zero
	for _, m := range meters {
		if m.UnitID != unitID {
			continue
		}
		for _, medium := range media {
			if m.Medium == medium {
				total = total.Add(YearlyConsumption(m, readings, year))
				break
			}
		}
	}
	return total
}
