package booking

import (
	"github.com/shopspring/decimal"

	"github.com/hausverwaltung/umlage/estate"
	"github.com/hausverwaltung/umlage/money"
)

// GenerateMonthlySOLL produces the due bookings for one calendar month: one
// entry per active lease and configured category (rent, operating costs,
// heating), dated on the first of the month.
//
// Generation is idempotent: a (lease, month, category) combination that
// already has a due booking in existing is skipped, so running a month twice
// never duplicates entries.
func GenerateMonthlySOLL(p estate.Property, leases []estate.Lease, existing []estate.Booking, month estate.Month) []estate.Booking {
	type key struct {
		leaseID  string
		category estate.BookingCategory
	}
	present := make(map[key]bool)
	for _, b := range existing {
		if b.Type == estate.BookingSOLL && estate.MonthOf(b.Date) == month {
			present[key{b.LeaseID, b.Category}] = true
		}
	}

	var created []estate.Booking
	for _, lease := range leases {
		if !lease.ActiveOn(month.First()) {
			continue
		}

		kind := estate.UnitApartment
		if u, ok := p.UnitByID(lease.UnitID); ok {
			kind = u.Kind
		}

		due := []struct {
			category estate.BookingCategory
			net      decimal.Decimal
			rate     decimal.Decimal
		}{
			{estate.CategoryRent, lease.NetRent, lease.RentTaxRate(kind)},
			{estate.CategoryOperating, lease.OperatingCostNet, estate.TaxRateReduced},
			{estate.CategoryHeating, lease.HeatingCostNet, estate.TaxRateStandard},
		}

		for _, d := range due {
			if d.net.Sign() <= 0 || present[key{lease.ID, d.category}] {
				continue
			}
			created = append(created, estate.Booking{
				LeaseID:  lease.ID,
				Type:     estate.BookingSOLL,
				Category: d.category,
				Date:     month.First(),
				TaxRate:  d.rate,
				Net:      d.net,
				Gross:    money.Gross(d.net, d.rate),
			})
		}
	}
	return created
}
