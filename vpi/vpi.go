// Package vpi implements the consumer-price-index catch-up calculator for
// rent escalation clauses: given a lease's locked-in index and the current
// index value, it derives the escalation factor, the new net rent, and the
// gross shortfall accumulated since the last adjustment.
package vpi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hausverwaltung/umlage/estate"
	"github.com/hausverwaltung/umlage/money"
)

// Skip reasons recorded when a lease is excluded from an indexation run.
const (
	SkipMissingAdjustment = "missing last adjustment"
	SkipBaseIndex         = "non-positive base index"
	SkipNoIncrease        = "no increase factor"
)

// Result is the outcome of the catch-up calculation for one lease. A
// skipped lease carries its reason; a processed lease carries the factor,
// the new net rent and the gross catch-up to be booked as a single
// backdated due entry by the caller.
type Result struct {
	LeaseID      string
	Skipped      bool
	SkipReason   string
	Factor       decimal.Decimal
	NewNetRent   decimal.Decimal
	NewGrossRent decimal.Decimal
	Months       int
	CatchUpGross decimal.Decimal
}

func skip(leaseID, reason string) Result {
	return Result{LeaseID: leaseID, Skipped: true, SkipReason: reason}
}

// CatchUp computes the indexation catch-up for one lease against the
// current index value, as of runDate.
//
// The escalation factor newIndex/oldIndex is rounded to six decimals; the
// new net rent is the locked-in net rent times the factor, at cents. For
// every whole month between the last adjustment's effective date and the
// run date, the gross rent already due (the month's SOLL rent bookings) is
// compared against the new gross rent; the summed shortfall is the
// catch-up. Months where more was due than the new rent contribute
// nothing; the catch-up never goes negative.
func CatchUp(lease estate.Lease, kind estate.UnitKind, newIndex decimal.Decimal, bookings []estate.Booking, runDate time.Time) Result {
	adjustment := lease.LastIndexAdjustment
	if adjustment == nil {
		return skip(lease.ID, SkipMissingAdjustment)
	}
	if adjustment.Index.Sign() <= 0 {
		return skip(lease.ID, SkipBaseIndex)
	}

	factor := money.RoundMicro(newIndex.Div(adjustment.Index))
	if factor.LessThanOrEqual(decimal.NewFromInt(1)) {
		return skip(lease.ID, SkipNoIncrease)
	}

	rate := lease.RentTaxRate(kind)
	result := Result{
		LeaseID:      lease.ID,
		Factor:       factor,
		NewNetRent:   money.RoundCent(lease.NetRent.Mul(factor)),
		CatchUpGross: decimal.Zero,
	}
	result.NewGrossRent = money.Gross(result.NewNetRent, rate)

	for month := estate.MonthOf(adjustment.EffectiveDate); !month.Next().First().After(runDate); month = month.Next() {
		if month.First().Before(adjustment.EffectiveDate) {
			// The effective month itself only counts when the
			// adjustment took effect on its first day.
			continue
		}
		result.Months++

		booked := decimal.Zero
		for _, b := range bookings {
			if b.LeaseID == lease.ID && b.Type == estate.BookingSOLL && b.Category == estate.CategoryRent && estate.MonthOf(b.Date) == month {
				booked = booked.Add(b.Gross)
			}
		}

		if shortfall := result.NewGrossRent.Sub(booked); shortfall.Sign() > 0 {
			result.CatchUpGross = result.CatchUpGross.Add(shortfall)
		}
	}

	return result
}

// Run applies CatchUp to every lease of a property and returns the results
// in lease order, skips included, so the caller can report both.
func Run(property estate.Property, leases []estate.Lease, newIndex decimal.Decimal, bookings []estate.Booking, runDate time.Time) []Result {
	results := make([]Result, 0, len(leases))
	for _, lease := range leases {
		kind := estate.UnitApartment
		if unit, ok := property.UnitByID(lease.UnitID); ok {
			kind = unit.Kind
		}
		results = append(results, CatchUp(lease, kind, newIndex, bookings, runDate))
	}
	return results
}
