package bankimport

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hausverwaltung/umlage/booking"
	"github.com/hausverwaltung/umlage/estate"
	"github.com/hausverwaltung/umlage/money"
)

// Resolution classifies how a transaction was matched.
type Resolution string

const (
	// ResolutionUnique means exactly one candidate's expected amount
	// equals the transaction amount.
	ResolutionUnique Resolution = "unique"
	// ResolutionSplit means exactly one subset of candidates sums to the
	// transaction amount; the payment covers several leases.
	ResolutionSplit Resolution = "split"
	// ResolutionWeak means a single candidate exists but its expected
	// amount differs from the transaction.
	ResolutionWeak Resolution = "weak"
	// ResolutionUnresolved means no or ambiguous candidates; the
	// transaction is surfaced for manual assignment, never guessed.
	ResolutionUnresolved Resolution = "unresolved"
)

// SplitAllocation assigns one lease its portion of a multi-lease payment.
type SplitAllocation struct {
	Lease  estate.Lease
	Amount decimal.Decimal
}

// Match is the outcome of matching one transaction.
type Match struct {
	Transaction Transaction
	Resolution  Resolution

	// Lease is set for unique and weak matches.
	Lease *estate.Lease
	// Splits is set for split matches.
	Splits []SplitAllocation
	// Candidates lists every lease that was considered.
	Candidates []estate.Lease
}

// maxSubsetCandidates bounds the combinatorial split search. Beyond this
// the subset space is too large to prove uniqueness cheaply, and real
// batches never get close.
const maxSubsetCandidates = 16

// Matcher matches the transactions of one import batch against the leases
// and bookings of a property. A Matcher is built per batch; its profile
// memo never outlives it.
type Matcher struct {
	property estate.Property
	leases   []estate.Lease
	bookings []estate.Booking
	memo     booking.Memo
}

// NewMatcher creates a matcher over the given property scope.
func NewMatcher(property estate.Property, leases []estate.Lease, bookings []estate.Booking) *Matcher {
	return &Matcher{
		property: property,
		leases:   leases,
		bookings: bookings,
		memo:     booking.Memo{},
	}
}

// Match resolves one transaction. Resolution order: a single cent-exact
// expected-amount match wins; otherwise a unique subset of candidates whose
// expected amounts sum to the transaction amount becomes a split; otherwise
// a lone candidate is a weak match; everything else stays unresolved.
func (m *Matcher) Match(txn Transaction) Match {
	candidates := m.candidates(txn)
	result := Match{Transaction: txn, Resolution: ResolutionUnresolved, Candidates: candidates}

	if len(candidates) == 0 {
		return result
	}

	expected := make([]decimal.Decimal, len(candidates))
	for i, lease := range candidates {
		expected[i] = m.expectedAmount(lease, txn)
	}

	var exact []int
	for i := range candidates {
		if expected[i].Equal(txn.Amount) {
			exact = append(exact, i)
		}
	}
	if len(exact) == 1 {
		result.Resolution = ResolutionUnique
		result.Lease = &candidates[exact[0]]
		return result
	}

	if subset, ok := uniqueSubsetSum(expected, txn.Amount); ok {
		result.Resolution = ResolutionSplit
		for _, i := range subset {
			result.Splits = append(result.Splits, SplitAllocation{Lease: candidates[i], Amount: expected[i]})
		}
		return result
	}

	if len(candidates) == 1 {
		result.Resolution = ResolutionWeak
		result.Lease = &candidates[0]
		return result
	}

	return result
}

// candidates finds the leases eligible for a transaction: first by exact
// IBAN match of any tenant, then, only when no IBAN matches, by free-text
// token containment against unit and tenant names. Either way a candidate
// must be active on the booking date.
func (m *Matcher) candidates(txn Transaction) []estate.Lease {
	var byIBAN []estate.Lease
	for _, lease := range m.leases {
		if !lease.ActiveOn(txn.BookingDate) {
			continue
		}
		for _, tenant := range lease.Tenants {
			if tenant.IBAN != "" && tenant.IBAN == txn.PartnerIBAN {
				byIBAN = append(byIBAN, lease)
				break
			}
		}
	}
	if len(byIBAN) > 0 {
		return byIBAN
	}

	haystack := strings.ToLower(txn.ReferenceText + " " + txn.PartnerName)
	var byText []estate.Lease
	for _, lease := range m.leases {
		if !lease.ActiveOn(txn.BookingDate) {
			continue
		}
		if m.textTokensMatch(lease, haystack) {
			byText = append(byText, lease)
		}
	}
	return byText
}

func (m *Matcher) textTokensMatch(lease estate.Lease, haystack string) bool {
	var tokens []string
	if unit, ok := m.property.UnitByID(lease.UnitID); ok {
		tokens = append(tokens, unit.Name, unit.DoorNumber)
	}
	for _, tenant := range lease.Tenants {
		tokens = append(tokens, tenant.Name)
	}

	for _, token := range tokens {
		token = strings.ToLower(strings.TrimSpace(token))
		if token != "" && strings.Contains(haystack, token) {
			return true
		}
	}
	return false
}

// expectedAmount is the gross amount a lease is expected to pay around the
// transaction's booking date. Fallback chain, in documented precedence:
// the month's positive open balance, then the month's due total, then the
// lease's static gross total.
func (m *Matcher) expectedAmount(lease estate.Lease, txn Transaction) decimal.Decimal {
	month := estate.MonthOf(txn.BookingDate)

	due := decimal.Zero
	paid := decimal.Zero
	for _, b := range m.bookings {
		if b.LeaseID != lease.ID || estate.MonthOf(b.Date) != month {
			continue
		}
		switch b.Type {
		case estate.BookingSOLL:
			due = due.Add(b.Gross)
		case estate.BookingIST:
			paid = paid.Add(b.Gross)
		}
	}

	if open := due.Sub(paid); open.Sign() > 0 {
		return open
	}
	if due.Sign() > 0 {
		return due
	}

	kind := estate.UnitApartment
	if unit, ok := m.property.UnitByID(lease.UnitID); ok {
		kind = unit.Kind
	}
	return money.Gross(lease.NetRent, lease.RentTaxRate(kind)).
		Add(money.Gross(lease.OperatingCostNet, estate.TaxRateReduced)).
		Add(money.Gross(lease.HeatingCostNet, estate.TaxRateStandard))
}

// uniqueSubsetSum searches all subsets of size >= 2 whose amounts sum
// cent-exactly to target. It returns the subset only when it is the single
// such subset; the enumeration stops as soon as a second one is found,
// since ambiguity can no longer be resolved.
func uniqueSubsetSum(amounts []decimal.Decimal, target decimal.Decimal) ([]int, bool) {
	n := len(amounts)
	if n < 2 || n > maxSubsetCandidates {
		return nil, false
	}

	var found []int
	matches := 0

	for mask := 1; mask < 1<<n && matches < 2; mask++ {
		if popcount(mask) < 2 {
			continue
		}
		sum := decimal.Zero
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				sum = sum.Add(amounts[i])
			}
		}
		if !sum.Equal(target) {
			continue
		}
		matches++
		if matches == 1 {
			found = found[:0]
			for i := 0; i < n; i++ {
				if mask&(1<<i) != 0 {
					found = append(found, i)
				}
			}
		}
	}

	if matches != 1 {
		return nil, false
	}
	return found, true
}

func popcount(mask int) int {
	count := 0
	for mask != 0 {
		mask &= mask - 1
		count++
	}
	return count
}
