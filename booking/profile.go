// Package booking covers the income side of the engine: per-month tax-rate
// bucket profiles, attribution of generic incoming payments to the rent,
// operating-cost and heating streams, prepayment (akonto) totals, and the
// idempotent generation of monthly due bookings.
package booking

import (
	"github.com/shopspring/decimal"

	"github.com/hausverwaltung/umlage/estate"
	"github.com/hausverwaltung/umlage/money"
)

// Buckets accumulates the net amounts due at one tax rate in one month,
// split by income stream.
type Buckets struct {
	Rent      decimal.Decimal
	Operating decimal.Decimal
	Heating   decimal.Decimal
	Total     decimal.Decimal
}

// Profile maps a tax-rate key (the rate's decimal string, e.g. "0.1") to the
// amounts due at that rate for one lease in one calendar month.
type Profile map[string]Buckets

// Memo caches profiles within one report-building or import invocation. It
// is passed explicitly through the pipeline; nothing is cached across calls.
type Memo map[string]Profile

// BuildProfile builds the tax-rate bucket profile for one lease and month.
//
// The profile is derived from the month's due (SOLL) bookings. When the
// month has none, a synthetic profile is built from the lease's static net
// amounts at the standard rates: rent and operating costs at the reduced
// rate (rent at the standard rate for parking units), heating at the
// standard rate.
func BuildProfile(lease estate.Lease, kind estate.UnitKind, month estate.Month, bookings []estate.Booking, memo Memo) Profile {
	key := lease.ID + "/" + month.String()
	if memo != nil {
		if p, ok := memo[key]; ok {
			return p
		}
	}

	profile := Profile{}
	for _, b := range bookings {
		if b.LeaseID != lease.ID || b.Type != estate.BookingSOLL || estate.MonthOf(b.Date) != month {
			continue
		}
		profile.add(b.TaxRate, b.Category, b.Net)
	}

	if len(profile) == 0 {
		profile.add(lease.RentTaxRate(kind), estate.CategoryRent, lease.NetRent)
		profile.add(estate.TaxRateReduced, estate.CategoryOperating, lease.OperatingCostNet)
		profile.add(estate.TaxRateStandard, estate.CategoryHeating, lease.HeatingCostNet)
	}

	if memo != nil {
		memo[key] = profile
	}
	return profile
}

func (p Profile) add(rate decimal.Decimal, category estate.BookingCategory, net decimal.Decimal) {
	if net.IsZero() {
		return
	}
	b := p[rate.String()]
	switch category {
	case estate.CategoryRent:
		b.Rent = b.Rent.Add(net)
	case estate.CategoryOperating:
		b.Operating = b.Operating.Add(net)
	case estate.CategoryHeating:
		b.Heating = b.Heating.Add(net)
	default:
		return
	}
	b.Total = b.Total.Add(net)
	p[rate.String()] = b
}

// Attribution is the split of one payment's net amount across the income
// streams of its tax bucket.
type Attribution struct {
	Rent      decimal.Decimal
	Operating decimal.Decimal
	Heating   decimal.Decimal
}

// Attribute splits a payment's net amount across rent, operating costs and
// heating proportionally to the bucket's due amounts at the payment's tax
// rate. Each share is rounded to cents independently; no largest-remainder
// correction is applied here since the rent stream is not redistributed
// further.
//
// The second return is false when the profile has no bucket (or an empty
// bucket) at the given rate.
func Attribute(profile Profile, net, rate decimal.Decimal) (Attribution, bool) {
	b, ok := profile[rate.String()]
	if !ok || b.Total.Sign() <= 0 {
		return Attribution{Rent: decimal.Zero, Operating: decimal.Zero, Heating: decimal.Zero}, false
	}

	return Attribution{
		Rent:      money.RoundCent(net.Mul(b.Rent).Div(b.Total)),
		Operating: money.RoundCent(net.Mul(b.Operating).Div(b.Total)),
		Heating:   money.RoundCent(net.Mul(b.Heating).Div(b.Total)),
	}, true
}

// AkontoByUnit sums the operating-cost prepayments of one calendar year per
// unit: actual (IST) bookings already tagged as operating or heating count
// with their gross amount; generic payment bookings are first attributed via
// the lease's monthly profile, and only their operating and heating portions
// count. Rent income never enters the operating-cost statement.
func AkontoByUnit(p estate.Property, leases []estate.Lease, bookings []estate.Booking, year int, memo Memo) map[string]decimal.Decimal {
	byID := make(map[string]estate.Lease, len(leases))
	for _, l := range leases {
		byID[l.ID] = l
	}

	akonto := make(map[string]decimal.Decimal)
	for _, b := range bookings {
		if b.Type != estate.BookingIST || b.Date.Year() != year {
			continue
		}
		lease, ok := byID[b.LeaseID]
		if !ok {
			continue
		}

		switch b.Category {
		case estate.CategoryOperating, estate.CategoryHeating:
			akonto[lease.UnitID] = akonto[lease.UnitID].Add(b.Gross)
		case estate.CategoryPayment:
			kind := estate.UnitApartment
			if u, ok := p.UnitByID(lease.UnitID); ok {
				kind = u.Kind
			}
			profile := BuildProfile(lease, kind, estate.MonthOf(b.Date), bookings, memo)
			attr, ok := Attribute(profile, b.Net, b.TaxRate)
			if !ok {
				continue
			}
			portion := attr.Operating.Add(attr.Heating)
			akonto[lease.UnitID] = akonto[lease.UnitID].Add(money.Gross(portion, b.TaxRate))
		}
	}
	return akonto
}
