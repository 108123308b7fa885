// Package allocate implements the operating-cost allocation engine: the
// proportional allocator with largest-remainder rounding correction, the
// cost-pool aggregation for a property year, and the cascading allocation
// pipeline that produces the annual per-unit statement.
package allocate

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"

	"github.com/hausverwaltung/umlage/money"
)

// Row is one allocation target with its weight.
type Row struct {
	ID     string
	Label  string
	Weight decimal.Decimal
}

// Share is the allocated result for one row. Raw is the unrounded share at
// micro precision; Amount is the cent-precision share after rounding and
// largest-remainder correction.
type Share struct {
	ID     string
	Label  string
	Weight decimal.Decimal
	Raw    decimal.Decimal
	Amount decimal.Decimal
}

// Allocate distributes total across rows proportionally to their weights.
//
// Each raw share is rounded to cents independently (half-up); the residual
// between the total and the sum of rounded shares is then corrected one cent
// at a time, favoring the rows whose rounding moved them furthest in the
// residual's direction (largest-remainder method). The returned distributed
// sum always equals total exactly when the weight sum is positive.
//
// A non-positive weight sum yields all-zero shares and a zero distributed
// sum; it is not an error.
func Allocate(total decimal.Decimal, rows []Row) ([]Share, decimal.Decimal) {
	shares := make([]Share, len(rows))

	totalWeight := decimal.Zero
	for _, r := range rows {
		totalWeight = totalWeight.Add(r.Weight)
	}

	if totalWeight.Sign() <= 0 {
		for i, r := range rows {
			shares[i] = Share{ID: r.ID, Label: r.Label, Weight: r.Weight, Raw: decimal.Zero, Amount: decimal.Zero}
		}
		return shares, decimal.Zero
	}

	distributed := decimal.Zero
	for i, r := range rows {
		raw := money.RoundMicro(total.Mul(r.Weight).Div(totalWeight))
		amount := money.RoundCent(raw)
		shares[i] = Share{ID: r.ID, Label: r.Label, Weight: r.Weight, Raw: raw, Amount: amount}
		distributed = distributed.Add(amount)
	}

	// The correction targets the cent-rounded total: shares are cent
	// amounts, so a sub-cent residual could never be walked off and the
	// cyclic walk below would not terminate.
	diff := money.RoundCent(total).Sub(distributed)
	if diff.IsZero() {
		return shares, distributed
	}

	// Correction order: when cents are missing, give them to the rows whose
	// rounding lost the most (largest raw-minus-rounded remainder first);
	// when cents are surplus, take them from the rows whose rounding gained
	// the most.
	order := make([]int, len(shares))
	for i := range order {
		order[i] = i
	}
	asc := diff.Sign() < 0
	slices.SortStableFunc(order, func(a, b int) int {
		ra := shares[a].Raw.Sub(shares[a].Amount)
		rb := shares[b].Raw.Sub(shares[b].Amount)
		if asc {
			return ra.Cmp(rb)
		}
		return rb.Cmp(ra)
	})

	step := money.OneCent
	if asc {
		step = money.OneCent.Neg()
	}

	// Walk the ordering cyclically, one cent per row per pass, until the
	// residual is exhausted.
	for i := 0; !diff.IsZero(); i++ {
		idx := order[i%len(order)]
		shares[idx].Amount = shares[idx].Amount.Add(step)
		distributed = distributed.Add(step)
		diff = diff.Sub(step)
	}

	return shares, distributed
}

// Conserved verifies the allocator postcondition sum(shares) == total. It is
// a programming invariant, not a user-facing condition; callers assert it in
// tests.
func Conserved(total decimal.Decimal, shares []Share) error {
	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s.Amount)
	}
	if !sum.Equal(total) {
		return fmt.Errorf("allocation not conserved: distributed %s of %s", sum.String(), total.String())
	}
	return nil
}
