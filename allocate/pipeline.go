package allocate

import (
	"github.com/shopspring/decimal"

	"github.com/hausverwaltung/umlage/booking"
	"github.com/hausverwaltung/umlage/estate"
	"github.com/hausverwaltung/umlage/money"
)

// Input carries everything one report build needs. The caller scopes the
// records to the property and surroundings of the year; the engine never
// reaches back into storage.
type Input struct {
	Property estate.Property
	Year     int
	Expenses []estate.Expense
	Meters   []estate.Meter
	Readings []estate.MeterReading
	Leases   []estate.Lease
	Bookings []estate.Booking
}

// GeneralRow is one unit's share of the general operating-cost pool. Ratio
// is the unit's fraction of the total operating-cost weight at micro
// precision; it is the weight basis reused by the later stages.
type GeneralRow struct {
	UnitID string
	Label  string
	Weight decimal.Decimal
	Ratio  decimal.Decimal
	Amount decimal.Decimal
}

// GeneralStage is the first pipeline stage: the general operating-cost pool
// distributed by the units' static operating-cost shares.
type GeneralStage struct {
	Pool        decimal.Decimal
	TotalWeight decimal.Decimal
	Rows        []GeneralRow
}

// WaterRow is one unit's water costing: measured consumption, its share of
// the house loss (Schwund), and the resulting cost.
type WaterRow struct {
	UnitID    string
	Label     string
	Measured  decimal.Decimal
	LossShare decimal.Decimal
	Adjusted  decimal.Decimal
	Cost      decimal.Decimal
}

// WaterStage distributes the water receipts pool. The house total comes
// from the communal meters; the gap to the summed unit meters is the loss,
// spread by the general-stage ratio before costing.
type WaterStage struct {
	Pool          decimal.Decimal
	HouseTotal    decimal.Decimal
	MeasuredTotal decimal.Decimal
	Loss          decimal.Decimal
	PricePerM3    decimal.Decimal
	Rows          []WaterRow
}

// ElectricityRow is one unit's share of the common electricity cost.
type ElectricityRow struct {
	UnitID string
	Label  string
	Amount decimal.Decimal
}

// ElectricityStage prices the communal electricity and carves out the
// common-area pool (communal consumption minus the heat pump's input),
// distributed by the general-stage weights.
type ElectricityStage struct {
	CommunalKWh decimal.Decimal
	HeatPumpKWh decimal.Decimal
	CommonKWh   decimal.Decimal
	PricePerKWh decimal.Decimal
	Pool        decimal.Decimal
	Rows        []ElectricityRow
}

// HeatPumpStage splits the heat pump's electricity cost between hot water
// and heating, by the ratio of its two output meters.
type HeatPumpStage struct {
	InputKWh        decimal.Decimal
	Cost            decimal.Decimal
	HeatOutput      decimal.Decimal
	WarmWaterOutput decimal.Decimal
	HotWaterPool    decimal.Decimal
	HeatingPool     decimal.Decimal
}

// HotWaterRow is one unit's hot-water costing by measured consumption.
type HotWaterRow struct {
	UnitID      string
	Label       string
	Consumption decimal.Decimal
	Cost        decimal.Decimal
}

// HotWaterStage distributes the hot-water pool proportional to the units'
// hot-water meters at a derived price per m³.
type HotWaterStage struct {
	Pool             decimal.Decimal
	TotalConsumption decimal.Decimal
	PricePerM3       decimal.Decimal
	Rows             []HotWaterRow
}

// HeatingRow is one unit's heating cost: a fixed portion by operating-cost
// share and a variable portion by measured heat energy.
type HeatingRow struct {
	UnitID      string
	Label       string
	Fixed       decimal.Decimal
	Consumption decimal.Decimal
	Variable    decimal.Decimal
	Total       decimal.Decimal
}

// HeatingStage splits the heating pool into its fixed and variable portions.
type HeatingStage struct {
	Pool             decimal.Decimal
	FixedPool        decimal.Decimal
	VariablePool     decimal.Decimal
	TotalConsumption decimal.Decimal
	Rows             []HeatingRow
}

// StatementRow is one unit's annual result: the reduced-rate bucket (general
// + water + common electricity + hot water), the standard-rate bucket
// (heating), their gross amounts, the year's prepayments, and the balance.
// A positive balance is a refund owed to the tenant.
type StatementRow struct {
	UnitID     string
	Label      string
	Net10      decimal.Decimal
	Net20      decimal.Decimal
	Gross10    decimal.Decimal
	Gross20    decimal.Decimal
	GrossTotal decimal.Decimal
	Akonto     decimal.Decimal
	Balance    decimal.Decimal
}

// Check is one plausibility comparison of a tax bucket's pools against the
// amounts actually distributed. Deltas are reported, never fatal; more than
// a few cents indicates a programming error in the correction.
type Check struct {
	Name        string
	Pool        decimal.Decimal
	Distributed decimal.Decimal
	Delta       decimal.Decimal
}

// Report is the full annual allocation document.
type Report struct {
	PropertyID   string
	PropertyName string
	Year         int

	General     GeneralStage
	Water       WaterStage
	Electricity ElectricityStage
	HeatPump    HeatPumpStage
	HotWater    HotWaterStage
	Heating     HeatingStage

	Statement []StatementRow
	Checks    []Check
}

// BuildReport runs the five cascading allocation stages and assembles the
// annual per-unit statement. It is a pure function of its input; the memo
// table for tax profiles lives only for this call.
func BuildReport(in Input) *Report {
	pools := AggregatePools(in.Expenses, in.Year)
	memo := booking.Memo{}

	r := &Report{
		PropertyID:   in.Property.ID,
		PropertyName: in.Property.Name,
		Year:         in.Year,
	}

	r.General = buildGeneral(in.Property, pools.Operating)
	r.Water = buildWater(in, r.General, pools.Water)
	r.Electricity = buildElectricity(in, r.General, pools.Electricity)
	r.HeatPump = buildHeatPump(in, r.Electricity)
	r.HotWater = buildHotWater(in, r.HeatPump.HotWaterPool)
	r.Heating = buildHeating(in, r.General, r.HeatPump.HeatingPool)

	akonto := booking.AkontoByUnit(in.Property, in.Leases, in.Bookings, in.Year, memo)
	r.Statement = buildStatement(r, akonto)
	r.Checks = buildChecks(r)

	return r
}

func unitRows(p estate.Property) []Row {
	rows := make([]Row, len(p.Units))
	for i, u := range p.Units {
		rows[i] = Row{ID: u.ID, Label: u.Name, Weight: u.BKShare}
	}
	return rows
}

func buildGeneral(p estate.Property, pool decimal.Decimal) GeneralStage {
	rows := unitRows(p)
	shares, _ := Allocate(pool, rows)

	totalWeight := decimal.Zero
	for _, r := range rows {
		totalWeight = totalWeight.Add(r.Weight)
	}

	stage := GeneralStage{Pool: pool, TotalWeight: totalWeight, Rows: make([]GeneralRow, len(shares))}
	for i, s := range shares {
		ratio := decimal.Zero
		if totalWeight.Sign() > 0 {
			ratio = money.RoundMicro(s.Weight.Div(totalWeight))
		}
		stage.Rows[i] = GeneralRow{UnitID: s.ID, Label: s.Label, Weight: s.Weight, Ratio: ratio, Amount: s.Amount}
	}
	return stage
}

func buildWater(in Input, general GeneralStage, pool decimal.Decimal) WaterStage {
	houseTotal := mediumTotal(in.Meters, in.Readings, in.Year, estate.MediumColdWater, true).
		Add(mediumTotal(in.Meters, in.Readings, in.Year, estate.MediumHotWater, true))

	stage := WaterStage{
		Pool:       pool,
		HouseTotal: houseTotal,
		PricePerM3: decimal.Zero,
		Rows:       make([]WaterRow, len(general.Rows)),
	}

	measuredTotal := decimal.Zero
	for i, g := range general.Rows {
		measured := unitMediumTotal(in.Meters, in.Readings, in.Year, g.UnitID, estate.MediumColdWater, estate.MediumHotWater)
		measuredTotal = measuredTotal.Add(measured)
		stage.Rows[i] = WaterRow{UnitID: g.UnitID, Label: g.Label, Measured: measured}
	}
	stage.MeasuredTotal = measuredTotal
	stage.Loss = houseTotal.Sub(measuredTotal)

	// The loss is spread by the general-stage ratio before costing, so
	// every unit carries its slice of the unmeasured consumption.
	allocRows := make([]Row, len(stage.Rows))
	for i := range stage.Rows {
		row := &stage.Rows[i]
		row.LossShare = money.RoundMilli(stage.Loss.Mul(general.Rows[i].Ratio))
		row.Adjusted = row.Measured.Add(row.LossShare)
		allocRows[i] = Row{ID: row.UnitID, Label: row.Label, Weight: row.Adjusted}
	}

	if houseTotal.Sign() > 0 {
		stage.PricePerM3 = money.RoundMicro(pool.Div(houseTotal))
		shares, _ := Allocate(pool, allocRows)
		for i, s := range shares {
			stage.Rows[i].Cost = s.Amount
		}
	}
	return stage
}

func buildElectricity(in Input, general GeneralStage, pool decimal.Decimal) ElectricityStage {
	stage := ElectricityStage{
		CommunalKWh: mediumTotal(in.Meters, in.Readings, in.Year, estate.MediumElectricity, true),
		HeatPumpKWh: mediumTotal(in.Meters, in.Readings, in.Year, estate.MediumHeatPumpPower, true),
		PricePerKWh: decimal.Zero,
	}
	stage.CommonKWh = stage.CommunalKWh.Sub(stage.HeatPumpKWh)

	if stage.CommunalKWh.Sign() > 0 {
		stage.PricePerKWh = money.RoundMicro(pool.Div(stage.CommunalKWh))
	}
	stage.Pool = money.RoundCent(stage.CommonKWh.Mul(stage.PricePerKWh))

	shares, _ := Allocate(stage.Pool, unitRows(in.Property))
	stage.Rows = make([]ElectricityRow, len(shares))
	for i, s := range shares {
		stage.Rows[i] = ElectricityRow{UnitID: s.ID, Label: s.Label, Amount: s.Amount}
	}
	return stage
}

func buildHeatPump(in Input, electricity ElectricityStage) HeatPumpStage {
	stage := HeatPumpStage{
		InputKWh:        electricity.HeatPumpKWh,
		HeatOutput:      mediumTotal(in.Meters, in.Readings, in.Year, estate.MediumHeatPumpHeatOut, true),
		WarmWaterOutput: mediumTotal(in.Meters, in.Readings, in.Year, estate.MediumHeatPumpWarmWater, true),
	}
	stage.Cost = money.RoundCent(stage.InputKWh.Mul(electricity.PricePerKWh))

	totalOutput := stage.HeatOutput.Add(stage.WarmWaterOutput)
	if totalOutput.Sign() > 0 {
		stage.HotWaterPool = money.RoundCent(stage.Cost.Mul(stage.WarmWaterOutput).Div(totalOutput))
		stage.HeatingPool = stage.Cost.Sub(stage.HotWaterPool)
	} else {
		// Without output meters the split ratio is undefined; the full
		// cost stays in the heating pool.
		stage.HotWaterPool = decimal.Zero
		stage.HeatingPool = stage.Cost
	}
	return stage
}

func buildHotWater(in Input, pool decimal.Decimal) HotWaterStage {
	stage := HotWaterStage{
		Pool:       pool,
		PricePerM3: decimal.Zero,
		Rows:       make([]HotWaterRow, len(in.Property.Units)),
	}

	allocRows := make([]Row, len(in.Property.Units))
	total := decimal.Zero
	for i, u := range in.Property.Units {
		consumption := unitMediumTotal(in.Meters, in.Readings, in.Year, u.ID, estate.MediumHotWater)
		total = total.Add(consumption)
		stage.Rows[i] = HotWaterRow{UnitID: u.ID, Label: u.Name, Consumption: consumption}
		allocRows[i] = Row{ID: u.ID, Label: u.Name, Weight: consumption}
	}
	stage.TotalConsumption = total

	if total.Sign() > 0 {
		stage.PricePerM3 = money.RoundMicro(pool.Div(total))
	}

	shares, _ := Allocate(pool, allocRows)
	for i, s := range shares {
		stage.Rows[i].Cost = s.Amount
	}
	return stage
}

func buildHeating(in Input, general GeneralStage, pool decimal.Decimal) HeatingStage {
	stage := HeatingStage{
		Pool:      pool,
		FixedPool: money.RoundCent(pool.Mul(in.Property.HeatingFixedShare)),
		Rows:      make([]HeatingRow, len(in.Property.Units)),
	}
	stage.VariablePool = pool.Sub(stage.FixedPool)

	fixedShares, _ := Allocate(stage.FixedPool, unitRows(in.Property))

	variableRows := make([]Row, len(in.Property.Units))
	total := decimal.Zero
	for i, u := range in.Property.Units {
		consumption := unitMediumTotal(in.Meters, in.Readings, in.Year, u.ID, estate.MediumHeatEnergy)
		total = total.Add(consumption)
		stage.Rows[i] = HeatingRow{UnitID: u.ID, Label: u.Name, Consumption: consumption}
		variableRows[i] = Row{ID: u.ID, Label: u.Name, Weight: consumption}
	}
	stage.TotalConsumption = total

	variableShares, _ := Allocate(stage.VariablePool, variableRows)
	for i := range stage.Rows {
		stage.Rows[i].Fixed = fixedShares[i].Amount
		stage.Rows[i].Variable = variableShares[i].Amount
		stage.Rows[i].Total = fixedShares[i].Amount.Add(variableShares[i].Amount)
	}
	return stage
}

func buildStatement(r *Report, akonto map[string]decimal.Decimal) []StatementRow {
	rows := make([]StatementRow, len(r.General.Rows))
	for i, g := range r.General.Rows {
		net10 := g.Amount.
			Add(r.Water.Rows[i].Cost).
			Add(r.Electricity.Rows[i].Amount).
			Add(r.HotWater.Rows[i].Cost)
		net20 := r.Heating.Rows[i].Total

		row := StatementRow{
			UnitID:  g.UnitID,
			Label:   g.Label,
			Net10:   net10,
			Net20:   net20,
			Gross10: money.Gross(net10, estate.TaxRateReduced),
			Gross20: money.Gross(net20, estate.TaxRateStandard),
			Akonto:  akonto[g.UnitID],
		}
		row.GrossTotal = row.Gross10.Add(row.Gross20)
		row.Balance = row.Akonto.Sub(row.GrossTotal)
		rows[i] = row
	}
	return rows
}

func buildChecks(r *Report) []Check {
	pool10 := r.General.Pool.Add(r.Water.Pool).Add(r.Electricity.Pool).Add(r.HotWater.Pool)
	pool20 := r.Heating.Pool

	sum10 := decimal.Zero
	sum20 := decimal.Zero
	for _, s := range r.Statement {
		sum10 = sum10.Add(s.Net10)
		sum20 = sum20.Add(s.Net20)
	}

	return []Check{
		{Name: "net 10% bucket", Pool: pool10, Distributed: sum10, Delta: sum10.Sub(pool10)},
		{Name: "net 20% bucket", Pool: pool20, Distributed: sum20, Delta: sum20.Sub(pool20)},
	}
}
