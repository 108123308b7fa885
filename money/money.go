// Package money provides the fixed-point numeric primitives shared by the
// allocation and reconciliation engine.
//
// Three precisions are used throughout:
//
//   - cent (2 fractional digits) for currency amounts
//   - milli (3 fractional digits) for physical quantities (m³, kWh)
//   - micro (6 fractional digits) for ratios and unit prices
//
// All arithmetic is exact base-10 decimal; binary floats never enter the
// engine. Rounding is half-up (ties away from zero), which is what
// decimal.Decimal.Round implements.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Fractional digit counts for the three precisions.
const (
	CentPlaces  = 2
	MilliPlaces = 3
	MicroPlaces = 6
)

// RoundCent rounds d to currency precision, half-up.
func RoundCent(d decimal.Decimal) decimal.Decimal {
	return d.Round(CentPlaces)
}

// RoundMilli rounds d to quantity precision, half-up.
func RoundMilli(d decimal.Decimal) decimal.Decimal {
	return d.Round(MilliPlaces)
}

// RoundMicro rounds d to ratio/unit-price precision, half-up.
func RoundMicro(d decimal.Decimal) decimal.Decimal {
	return d.Round(MicroPlaces)
}

// Parse converts a decimal string to a decimal.Decimal.
func Parse(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return d, nil
}

// MustParse converts a decimal string to a decimal.Decimal and panics on error.
// Use only in tests or for literals known to be valid.
func MustParse(value string) decimal.Decimal {
	d, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return d
}

// FromMinorUnits builds an amount from integer minor units and a number of
// decimal places, e.g. (12345, 2) -> 123.45. This is the wire format used by
// bank transaction batches.
func FromMinorUnits(value int64, places int32) decimal.Decimal {
	return decimal.New(value, -places)
}

// Gross converts a net amount to gross at the given tax rate (e.g. 0.10),
// rounded to cents.
func Gross(net, rate decimal.Decimal) decimal.Decimal {
	return RoundCent(net.Mul(decimal.NewFromInt(1).Add(rate)))
}

// Net converts a gross amount back to net at the given tax rate, rounded to
// cents.
func Net(gross, rate decimal.Decimal) decimal.Decimal {
	return RoundCent(gross.Div(decimal.NewFromInt(1).Add(rate)))
}

// ValidateGross checks the invariant gross == net×(1+rate) at cent
// precision. Both amounts must themselves be cent-precision values; sub-cent
// currency fields are rejected here so they never reach the allocator.
func ValidateGross(net, rate, gross decimal.Decimal) error {
	if !net.Equal(RoundCent(net)) {
		return fmt.Errorf("net amount %s has sub-cent precision", net.String())
	}
	if !gross.Equal(RoundCent(gross)) {
		return fmt.Errorf("gross amount %s has sub-cent precision", gross.String())
	}
	want := Gross(net, rate)
	if !gross.Equal(want) {
		return fmt.Errorf("gross amount %s does not match net %s at rate %s (want %s)",
			gross.StringFixed(CentPlaces), net.StringFixed(CentPlaces), rate.String(), want.StringFixed(CentPlaces))
	}
	return nil
}

// Cents formats d as a cent-precision decimal string for serialization.
func Cents(d decimal.Decimal) string {
	return d.StringFixed(CentPlaces)
}

// OneCent is the smallest currency step, used by rounding correction.
var OneCent = decimal.New(1, -CentPlaces)
