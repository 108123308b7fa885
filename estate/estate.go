// Package estate defines the plain domain records the engine computes over.
//
// All records are transient value types handed in by the caller (the
// persistence layer is an external collaborator); the engine never mutates
// them and never assumes a live database handle behind them.
package estate

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Austrian VAT rates applied to residential lettings: rent and operating
// costs at the reduced rate, heating (and parking rents) at the standard rate.
var (
	TaxRateReduced  = decimal.New(10, -2) // 0.10
	TaxRateStandard = decimal.New(20, -2) // 0.20
)

// UnitKind distinguishes dwellings from parking spaces, whose rent is taxed
// at the standard rate.
type UnitKind string

const (
	UnitApartment UnitKind = "apartment"
	UnitParking   UnitKind = "parking"
)

// Unit is a rentable unit within a property.
type Unit struct {
	ID         string
	Name       string
	DoorNumber string
	Kind       UnitKind

	// BKShare is the unit's static operating-cost share, the weight basis
	// for the general distribution stage.
	BKShare decimal.Decimal
}

// Property groups the units of one building together with the allocation
// parameters configured for it.
type Property struct {
	ID    string
	Name  string
	Units []Unit

	// HeatingFixedShare is the fraction of the heating pool distributed by
	// operating-cost share instead of measured heat energy (e.g. 0.30).
	HeatingFixedShare decimal.Decimal
}

// UnitByID returns the unit with the given id, or false.
func (p *Property) UnitByID(id string) (Unit, bool) {
	for _, u := range p.Units {
		if u.ID == id {
			return u, true
		}
	}
	return Unit{}, false
}

// Tenant is a person on a lease. The IBAN is the account payments are
// expected from, used by the bank-import matcher.
type Tenant struct {
	Name string
	IBAN string
}

// LeaseStatus tracks whether a lease is live or wound down.
type LeaseStatus string

const (
	LeaseActive LeaseStatus = "active"
	LeaseEnded  LeaseStatus = "ended"
)

// IndexAdjustment records the last applied rent indexation: the index value
// the current net rent was locked in at, and when it took effect.
type IndexAdjustment struct {
	EffectiveDate time.Time
	Index         decimal.Decimal
}

// Lease is a rental contract for one unit.
type Lease struct {
	ID      string
	UnitID  string
	Tenants []Tenant

	EntryDate time.Time
	ExitDate  *time.Time
	Status    LeaseStatus

	// Static monthly net amounts, the fallback basis when no due bookings
	// exist for a month.
	NetRent          decimal.Decimal
	OperatingCostNet decimal.Decimal
	HeatingCostNet   decimal.Decimal

	LastIndexAdjustment *IndexAdjustment
}

// ActiveOn reports whether the lease covers the given date. Ended leases
// remain eligible through their exit date so that final settlements can
// still be matched; an ended lease without an exit date is never active.
func (l *Lease) ActiveOn(date time.Time) bool {
	if l.Status == LeaseEnded && l.ExitDate == nil {
		return false
	}
	if date.Before(l.EntryDate) {
		return false
	}
	if l.ExitDate != nil && date.After(*l.ExitDate) {
		return false
	}
	return true
}

// RentTaxRate returns the VAT rate applicable to this lease's rent: standard
// for parking units, reduced otherwise.
func (l *Lease) RentTaxRate(kind UnitKind) decimal.Decimal {
	if kind == UnitParking {
		return TaxRateStandard
	}
	return TaxRateReduced
}

// MeterKind determines how yearly consumption is derived from readings.
type MeterKind string

const (
	// MeterConsumption meters report per-interval consumption values; the
	// year total is the sum of readings inside the year window.
	MeterConsumption MeterKind = "consumption"
	// MeterCumulative meters report a running counter; the year total is
	// the end-of-year reading minus the last reading at or before the
	// start of the year.
	MeterCumulative MeterKind = "cumulative"
)

// MeterMedium identifies what a meter measures.
type MeterMedium string

const (
	MediumColdWater         MeterMedium = "cold_water"
	MediumHotWater          MeterMedium = "hot_water"
	MediumElectricity       MeterMedium = "electricity"
	MediumHeatPumpPower     MeterMedium = "heat_pump_power"
	MediumHeatEnergy        MeterMedium = "heat_energy"
	MediumHeatPumpHeatOut   MeterMedium = "heat_pump_heat_output"
	MediumHeatPumpWarmWater MeterMedium = "heat_pump_warm_water_output"
)

// Meter is a physical meter. A meter with an empty UnitID is communal and
// measures the whole house.
type Meter struct {
	ID     string
	UnitID string
	Kind   MeterKind
	Medium MeterMedium
}

// Communal reports whether the meter measures the whole house rather than a
// single unit.
func (m *Meter) Communal() bool { return m.UnitID == "" }

// MeterReading is one dated meter value at milli precision.
type MeterReading struct {
	MeterID string
	Date    time.Time
	Value   decimal.Decimal
}

// ExpenseCategory names the cost pools expenses are aggregated into.
type ExpenseCategory string

const (
	ExpenseElectricity ExpenseCategory = "electricity"
	ExpenseWater       ExpenseCategory = "water"
	ExpenseOperating   ExpenseCategory = "operating"
	ExpenseOther       ExpenseCategory = "other"
)

// Expense is one dated receipt booked against a property.
type Expense struct {
	PropertyID string
	Category   ExpenseCategory
	Date       time.Time
	Net        decimal.Decimal
	TaxRate    decimal.Decimal
	Gross      decimal.Decimal
}

// BookingType distinguishes due entries from actual payment entries.
type BookingType string

const (
	BookingSOLL BookingType = "SOLL"
	BookingIST  BookingType = "IST"
)

// BookingCategory names the income streams a booking belongs to.
type BookingCategory string

const (
	CategoryRent      BookingCategory = "rent"
	CategoryOperating BookingCategory = "bk"
	CategoryHeating   BookingCategory = "heating"
	// CategoryPayment is a generic incoming payment not yet attributed to a
	// specific stream; the rate-bucket profile splits it.
	CategoryPayment BookingCategory = "payment"
)

// Booking is one due (SOLL) or actual (IST) entry on a lease.
type Booking struct {
	ID       string
	LeaseID  string
	Type     BookingType
	Category BookingCategory
	Date     time.Time
	TaxRate  decimal.Decimal
	Net      decimal.Decimal
	Gross    decimal.Decimal

	// Reference carries the external reference number for bookings created
	// from bank imports; used for idempotency.
	Reference string

	// SettlementAdjustment marks payments whose free text referenced a
	// year-end settlement rather than a regular installment.
	SettlementAdjustment bool
}

// Month is a calendar month key.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// First returns midnight UTC on the first day of the month.
func (m Month) First() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Next returns the following calendar month.
func (m Month) Next() Month {
	return MonthOf(m.First().AddDate(0, 1, 0))
}

// Before reports whether m precedes other.
func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}
