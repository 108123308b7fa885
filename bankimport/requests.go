package bankimport

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hausverwaltung/umlage/booking"
	"github.com/hausverwaltung/umlage/estate"
	"github.com/hausverwaltung/umlage/money"
)

// BookingRequest is one booking to be created for a matched payment. The
// caller persists all requests of a confirmation in one transaction, or
// none; the Reference carries the bank reference number for idempotency.
type BookingRequest struct {
	LeaseID              string
	Date                 time.Time
	Category             estate.BookingCategory
	TaxRate              decimal.Decimal
	Net                  decimal.Decimal
	Gross                decimal.Decimal
	Reference            string
	SettlementAdjustment bool
}

// settlementVocabulary flags payments that reference a year-end settlement
// rather than a regular installment.
var settlementVocabulary = []string{
	"jahresabrechnung",
	"abrechnung",
	"nachzahlung",
	"rückzahlung",
}

func isSettlement(text string) bool {
	lower := strings.ToLower(text)
	for _, word := range settlementVocabulary {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// Requests derives the booking-creation requests for a resolved match: one
// entry per lease and tax bucket, splitting each lease's gross portion by
// what was due that month at each VAT rate. Weak and unresolved matches
// yield no requests; they need a manual decision first.
func (m *Matcher) Requests(match Match) []BookingRequest {
	var portions []SplitAllocation
	switch match.Resolution {
	case ResolutionUnique:
		portions = []SplitAllocation{{Lease: *match.Lease, Amount: match.Transaction.Amount}}
	case ResolutionSplit:
		portions = match.Splits
	default:
		return nil
	}

	settlement := isSettlement(match.Transaction.ReferenceText)
	month := estate.MonthOf(match.Transaction.BookingDate)

	var requests []BookingRequest
	for _, portion := range portions {
		kind := estate.UnitApartment
		if unit, ok := m.property.UnitByID(portion.Lease.UnitID); ok {
			kind = unit.Kind
		}
		profile := booking.BuildProfile(portion.Lease, kind, month, m.bookings, m.memo)
		requests = append(requests, bucketRequests(portion, profile, match.Transaction, settlement)...)
	}
	return requests
}

// bucketRequests splits one lease's gross portion across the profile's tax
// buckets, proportional to each bucket's gross due amount. With a single
// bucket the full portion lands there; commingled rent+BK and heating dues
// produce two entries.
func bucketRequests(portion SplitAllocation, profile booking.Profile, txn Transaction, settlement bool) []BookingRequest {
	type bucket struct {
		rate  decimal.Decimal
		gross decimal.Decimal
	}

	var buckets []bucket
	grossTotal := decimal.Zero
	for _, rate := range []decimal.Decimal{estate.TaxRateReduced, estate.TaxRateStandard} {
		b, ok := profile[rate.String()]
		if !ok || b.Total.Sign() <= 0 {
			continue
		}
		gross := money.Gross(b.Total, rate)
		buckets = append(buckets, bucket{rate: rate, gross: gross})
		grossTotal = grossTotal.Add(gross)
	}

	if len(buckets) == 0 || grossTotal.Sign() <= 0 {
		// No due profile to split against; book the full portion as a
		// generic payment at the reduced rate.
		return []BookingRequest{{
			LeaseID:              portion.Lease.ID,
			Date:                 txn.BookingDate,
			Category:             estate.CategoryPayment,
			TaxRate:              estate.TaxRateReduced,
			Net:                  money.Net(portion.Amount, estate.TaxRateReduced),
			Gross:                portion.Amount,
			Reference:            txn.ReferenceNumber,
			SettlementAdjustment: settlement,
		}}
	}

	requests := make([]BookingRequest, 0, len(buckets))
	remaining := portion.Amount
	for i, b := range buckets {
		gross := money.RoundCent(portion.Amount.Mul(b.gross).Div(grossTotal))
		if i == len(buckets)-1 {
			gross = remaining
		}
		remaining = remaining.Sub(gross)

		requests = append(requests, BookingRequest{
			LeaseID:              portion.Lease.ID,
			Date:                 txn.BookingDate,
			Category:             estate.CategoryPayment,
			TaxRate:              b.rate,
			Net:                  money.Net(gross, b.rate),
			Gross:                gross,
			Reference:            txn.ReferenceNumber,
			SettlementAdjustment: settlement,
		})
	}
	return requests
}
