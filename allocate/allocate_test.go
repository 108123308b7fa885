package allocate

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/hausverwaltung/umlage/money"
)

func rowsFromWeights(weights ...string) []Row {
	rows := make([]Row, len(weights))
	for i, w := range weights {
		rows[i] = Row{ID: string(rune('a' + i)), Weight: money.MustParse(w)}
	}
	return rows
}

func TestAllocateConservation(t *testing.T) {
	tests := []struct {
		name    string
		total   string
		weights []string
		want    []string
	}{
		{
			name:    "three equal weights need one extra cent",
			total:   "100.00",
			weights: []string{"1", "1", "1"},
			want:    []string{"33.34", "33.33", "33.33"},
		},
		{
			name:    "negative residual takes a cent back",
			total:   "100.00",
			weights: []string{"1", "1", "1", "1", "1", "1"},
			want:    []string{"16.66", "16.66", "16.67", "16.67", "16.67", "16.67"},
		},
		{
			name:    "uneven weights",
			total:   "250.00",
			weights: []string{"55.5", "44.5"},
			want:    []string{"138.75", "111.25"},
		},
		{
			name:    "negative total",
			total:   "-100.00",
			weights: []string{"1", "1", "1"},
			want:    []string{"-33.34", "-33.33", "-33.33"},
		},
		{
			name:    "single row takes everything",
			total:   "73.99",
			weights: []string{"0.123"},
			want:    []string{"73.99"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := money.MustParse(tt.total)
			shares, distributed := Allocate(total, rowsFromWeights(tt.weights...))

			assert.NoError(t, Conserved(total, shares))
			assert.True(t, distributed.Equal(total))

			for i, s := range shares {
				assert.Equal(t, tt.want[i], s.Amount.StringFixed(2))
			}
		})
	}
}

func TestAllocateSubCentTotal(t *testing.T) {
	// A sub-cent total cannot be represented in cent shares; the correction
	// must settle on the cent-rounded total instead of walking forever.
	shares, distributed := Allocate(money.MustParse("10.005"), rowsFromWeights("1", "1"))

	assert.Equal(t, "10.01", distributed.StringFixed(2))
	assert.Equal(t, "5.01", shares[0].Amount.StringFixed(2))
	assert.Equal(t, "5.00", shares[1].Amount.StringFixed(2))
}

func TestAllocateZeroWeights(t *testing.T) {
	shares, distributed := Allocate(money.MustParse("100.00"), rowsFromWeights("0", "0", "0"))

	assert.True(t, distributed.IsZero())
	for _, s := range shares {
		assert.True(t, s.Amount.IsZero())
	}
}

func TestAllocateNegativeWeightSum(t *testing.T) {
	shares, distributed := Allocate(money.MustParse("100.00"), rowsFromWeights("1", "-2"))

	assert.True(t, distributed.IsZero())
	assert.Equal(t, 2, len(shares))
	for _, s := range shares {
		assert.True(t, s.Amount.IsZero())
	}
}

func TestAllocateNoRows(t *testing.T) {
	shares, distributed := Allocate(money.MustParse("10.00"), nil)
	assert.Equal(t, 0, len(shares))
	assert.True(t, distributed.IsZero())
}

func TestAllocateCorrectionStaysWithinOneCent(t *testing.T) {
	// With typical row counts the correction never moves a share by more
	// than one cent from its raw value.
	total := money.MustParse("1000.01")
	shares, _ := Allocate(total, rowsFromWeights("3", "7", "11", "13", "17", "19", "23"))

	assert.NoError(t, Conserved(total, shares))
	for _, s := range shares {
		drift := s.Amount.Sub(s.Raw).Abs()
		assert.True(t, drift.LessThanOrEqual(decimal.New(101, -4)), "share %s drifted %s from raw", s.ID, drift.String())
	}
}
