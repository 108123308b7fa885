package booking

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/hausverwaltung/umlage/estate"
	"github.com/hausverwaltung/umlage/money"
)

func testLease() estate.Lease {
	return estate.Lease{
		ID:               "L1",
		UnitID:           "U1",
		EntryDate:        time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Status:           estate.LeaseActive,
		NetRent:          money.MustParse("500.00"),
		OperatingCostNet: money.MustParse("100.00"),
		HeatingCostNet:   money.MustParse("50.00"),
	}
}

func TestBuildProfileFromSOLLBookings(t *testing.T) {
	lease := testLease()
	month := estate.Month{Year: 2025, Month: time.March}

	bookings := []estate.Booking{
		{LeaseID: "L1", Type: estate.BookingSOLL, Category: estate.CategoryRent, Date: month.First(), TaxRate: estate.TaxRateReduced, Net: money.MustParse("480.00")},
		{LeaseID: "L1", Type: estate.BookingSOLL, Category: estate.CategoryOperating, Date: month.First(), TaxRate: estate.TaxRateReduced, Net: money.MustParse("90.00")},
		{LeaseID: "L1", Type: estate.BookingSOLL, Category: estate.CategoryHeating, Date: month.First(), TaxRate: estate.TaxRateStandard, Net: money.MustParse("40.00")},
		// Different month, must not leak in.
		{LeaseID: "L1", Type: estate.BookingSOLL, Category: estate.CategoryRent, Date: month.Next().First(), TaxRate: estate.TaxRateReduced, Net: money.MustParse("999.00")},
		// Other lease.
		{LeaseID: "L2", Type: estate.BookingSOLL, Category: estate.CategoryRent, Date: month.First(), TaxRate: estate.TaxRateReduced, Net: money.MustParse("999.00")},
	}

	profile := BuildProfile(lease, estate.UnitApartment, month, bookings, nil)

	reduced := profile["0.1"]
	assert.Equal(t, "480.00", money.Cents(reduced.Rent))
	assert.Equal(t, "90.00", money.Cents(reduced.Operating))
	assert.Equal(t, "570.00", money.Cents(reduced.Total))

	standard := profile["0.2"]
	assert.Equal(t, "40.00", money.Cents(standard.Heating))
	assert.Equal(t, "40.00", money.Cents(standard.Total))
}

func TestBuildProfileFallback(t *testing.T) {
	lease := testLease()
	month := estate.Month{Year: 2025, Month: time.March}

	profile := BuildProfile(lease, estate.UnitApartment, month, nil, nil)

	reduced := profile["0.1"]
	assert.Equal(t, "500.00", money.Cents(reduced.Rent))
	assert.Equal(t, "100.00", money.Cents(reduced.Operating))
	assert.Equal(t, "600.00", money.Cents(reduced.Total))

	standard := profile["0.2"]
	assert.Equal(t, "50.00", money.Cents(standard.Heating))
}

func TestBuildProfileFallbackParkingRentAtStandardRate(t *testing.T) {
	lease := testLease()
	lease.OperatingCostNet = money.MustParse("0")
	lease.HeatingCostNet = money.MustParse("0")
	month := estate.Month{Year: 2025, Month: time.March}

	profile := BuildProfile(lease, estate.UnitParking, month, nil, nil)

	_, hasReduced := profile["0.1"]
	assert.False(t, hasReduced)
	assert.Equal(t, "500.00", money.Cents(profile["0.2"].Rent))
}

func TestBuildProfileMemo(t *testing.T) {
	lease := testLease()
	month := estate.Month{Year: 2025, Month: time.March}
	memo := Memo{}

	first := BuildProfile(lease, estate.UnitApartment, month, nil, memo)
	assert.Equal(t, 1, len(memo))

	// A second call with different bookings must hit the memo, not rebuild.
	bookings := []estate.Booking{
		{LeaseID: "L1", Type: estate.BookingSOLL, Category: estate.CategoryRent, Date: month.First(), TaxRate: estate.TaxRateReduced, Net: money.MustParse("999.00")},
	}
	second := BuildProfile(lease, estate.UnitApartment, month, bookings, memo)
	assert.Equal(t, money.Cents(first["0.1"].Rent), money.Cents(second["0.1"].Rent))
}

func TestAttributeRoundTrip(t *testing.T) {
	// A 638.00 gross payment at 10% covers rent and operating costs; the
	// 36.00 gross payment at 20% covers heating alone.
	lease := testLease()
	month := estate.Month{Year: 2025, Month: time.March}
	profile := BuildProfile(lease, estate.UnitApartment, month, nil, nil)

	net10 := money.Net(money.MustParse("638.00"), estate.TaxRateReduced)
	assert.Equal(t, "580.00", money.Cents(net10))

	attr, ok := Attribute(profile, net10, estate.TaxRateReduced)
	assert.True(t, ok)
	assert.Equal(t, "483.33", money.Cents(attr.Rent))
	assert.Equal(t, "96.67", money.Cents(attr.Operating))
	assert.Equal(t, "0.00", money.Cents(attr.Heating))

	net20 := money.Net(money.MustParse("36.00"), estate.TaxRateStandard)
	attr20, ok := Attribute(profile, net20, estate.TaxRateStandard)
	assert.True(t, ok)
	assert.Equal(t, "30.00", money.Cents(attr20.Heating))
	assert.Equal(t, "0.00", money.Cents(attr20.Rent))
}

func TestAttributeMissingBucket(t *testing.T) {
	profile := Profile{}
	_, ok := Attribute(profile, money.MustParse("100.00"), estate.TaxRateReduced)
	assert.False(t, ok)
}

func TestAkontoByUnit(t *testing.T) {
	property := estate.Property{
		ID:    "P1",
		Units: []estate.Unit{{ID: "U1", Kind: estate.UnitApartment}},
	}
	lease := testLease()
	jan := time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)

	bookings := []estate.Booking{
		// Tagged operating prepayment counts with its gross.
		{LeaseID: "L1", Type: estate.BookingIST, Category: estate.CategoryOperating, Date: jan, TaxRate: estate.TaxRateReduced, Net: money.MustParse("100.00"), Gross: money.MustParse("110.00")},
		// Generic payment at 10%: only the operating portion counts.
		{LeaseID: "L1", Type: estate.BookingIST, Category: estate.CategoryPayment, Date: jan, TaxRate: estate.TaxRateReduced, Net: money.MustParse("580.00"), Gross: money.MustParse("638.00")},
		// Rent income never enters the statement.
		{LeaseID: "L1", Type: estate.BookingIST, Category: estate.CategoryRent, Date: jan, TaxRate: estate.TaxRateReduced, Net: money.MustParse("500.00"), Gross: money.MustParse("550.00")},
		// Outside the year.
		{LeaseID: "L1", Type: estate.BookingIST, Category: estate.CategoryOperating, Date: jan.AddDate(1, 0, 0), TaxRate: estate.TaxRateReduced, Net: money.MustParse("100.00"), Gross: money.MustParse("110.00")},
	}

	akonto := AkontoByUnit(property, []estate.Lease{lease}, bookings, 2025, Memo{})

	// 110.00 tagged + gross of the 96.67 attributed operating net (106.34).
	assert.Equal(t, "216.34", money.Cents(akonto["U1"]))
}

func TestGenerateMonthlySOLLIdempotent(t *testing.T) {
	property := estate.Property{
		ID:    "P1",
		Units: []estate.Unit{{ID: "U1", Kind: estate.UnitApartment}},
	}
	lease := testLease()
	month := estate.Month{Year: 2025, Month: time.April}

	first := GenerateMonthlySOLL(property, []estate.Lease{lease}, nil, month)
	assert.Equal(t, 3, len(first))

	for _, b := range first {
		assert.Equal(t, estate.BookingSOLL, b.Type)
		assert.Equal(t, month.First(), b.Date)
	}

	second := GenerateMonthlySOLL(property, []estate.Lease{lease}, first, month)
	assert.Equal(t, 0, len(second))
}

func TestGenerateMonthlySOLLSkipsInactiveAndZero(t *testing.T) {
	property := estate.Property{
		ID:    "P1",
		Units: []estate.Unit{{ID: "U1", Kind: estate.UnitApartment}},
	}
	month := estate.Month{Year: 2025, Month: time.April}

	ended := testLease()
	ended.Status = estate.LeaseEnded // no exit date, never active

	zeroHeating := testLease()
	zeroHeating.ID = "L2"
	zeroHeating.HeatingCostNet = money.MustParse("0")

	created := GenerateMonthlySOLL(property, []estate.Lease{ended, zeroHeating}, nil, month)

	assert.Equal(t, 2, len(created))
	for _, b := range created {
		assert.Equal(t, "L2", b.LeaseID)
		assert.NotEqual(t, estate.CategoryHeating, b.Category)
	}
}
