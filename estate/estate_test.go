package estate

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLeaseActiveOn(t *testing.T) {
	exit := date(2025, time.June, 30)

	tests := []struct {
		name  string
		lease Lease
		on    time.Time
		want  bool
	}{
		{
			name:  "open-ended lease inside window",
			lease: Lease{EntryDate: date(2024, time.January, 1), Status: LeaseActive},
			on:    date(2025, time.March, 15),
			want:  true,
		},
		{
			name:  "before entry",
			lease: Lease{EntryDate: date(2024, time.January, 1), Status: LeaseActive},
			on:    date(2023, time.December, 31),
			want:  false,
		},
		{
			name:  "on exit date",
			lease: Lease{EntryDate: date(2024, time.January, 1), ExitDate: &exit, Status: LeaseActive},
			on:    date(2025, time.June, 30),
			want:  true,
		},
		{
			name:  "after exit date",
			lease: Lease{EntryDate: date(2024, time.January, 1), ExitDate: &exit, Status: LeaseActive},
			on:    date(2025, time.July, 1),
			want:  false,
		},
		{
			name:  "ended lease with exit date still eligible",
			lease: Lease{EntryDate: date(2024, time.January, 1), ExitDate: &exit, Status: LeaseEnded},
			on:    date(2025, time.May, 1),
			want:  true,
		},
		{
			name:  "ended lease without exit date never eligible",
			lease: Lease{EntryDate: date(2024, time.January, 1), Status: LeaseEnded},
			on:    date(2025, time.May, 1),
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.lease.ActiveOn(tt.on))
		})
	}
}

func TestRentTaxRate(t *testing.T) {
	l := Lease{}
	assert.Equal(t, "0.1", l.RentTaxRate(UnitApartment).String())
	assert.Equal(t, "0.2", l.RentTaxRate(UnitParking).String())
}

func TestMonth(t *testing.T) {
	m := MonthOf(date(2025, time.December, 17))
	assert.Equal(t, "2025-12", m.String())
	assert.Equal(t, "2026-01", m.Next().String())
	assert.True(t, m.Before(m.Next()))
	assert.False(t, m.Next().Before(m))
	assert.Equal(t, date(2025, time.December, 1), m.First())
}
