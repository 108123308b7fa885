// Package loader reads the JSON dataset the management application exports
// for one property: master data, leases, meters, readings, expenses and
// bookings. All monetary fields arrive as decimal strings.
package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hausverwaltung/umlage/estate"
	"github.com/hausverwaltung/umlage/money"
)

// Dataset is the decoded property scope a command operates on.
type Dataset struct {
	Property estate.Property
	Leases   []estate.Lease
	Meters   []estate.Meter
	Readings []estate.MeterReading
	Expenses []estate.Expense
	Bookings []estate.Booking

	// SkippedRows counts list entries dropped for malformed numeric or
	// date fields. Bad rows never abort the load.
	SkippedRows int
}

type payload struct {
	Property propertyPayload  `json:"property"`
	Leases   []leasePayload   `json:"leases"`
	Meters   []meterPayload   `json:"meters"`
	Readings []readingPayload `json:"readings"`
	Expenses []expensePayload `json:"expenses"`
	Bookings []bookingPayload `json:"bookings"`
}

type propertyPayload struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	HeatingFixedShare string        `json:"heatingFixedShare"`
	Units             []unitPayload `json:"units"`
}

type unitPayload struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	DoorNumber string `json:"doorNumber"`
	Kind       string `json:"kind"`
	BKShare    string `json:"bkShare"`
}

type tenantPayload struct {
	Name string `json:"name"`
	IBAN string `json:"iban"`
}

type adjustmentPayload struct {
	EffectiveDate string `json:"effectiveDate"`
	Index         string `json:"index"`
}

type leasePayload struct {
	ID                  string             `json:"id"`
	UnitID              string             `json:"unitId"`
	Tenants             []tenantPayload    `json:"tenants"`
	EntryDate           string             `json:"entryDate"`
	ExitDate            string             `json:"exitDate"`
	Status              string             `json:"status"`
	NetRent             string             `json:"netRent"`
	OperatingCostNet    string             `json:"operatingCostNet"`
	HeatingCostNet      string             `json:"heatingCostNet"`
	LastIndexAdjustment *adjustmentPayload `json:"lastIndexAdjustment"`
}

type meterPayload struct {
	ID     string `json:"id"`
	UnitID string `json:"unitId"`
	Kind   string `json:"kind"`
	Medium string `json:"medium"`
}

type readingPayload struct {
	MeterID string `json:"meterId"`
	Date    string `json:"date"`
	Value   string `json:"value"`
}

type expensePayload struct {
	Category string `json:"category"`
	Date     string `json:"date"`
	Net      string `json:"net"`
	TaxRate  string `json:"taxRate"`
	Gross    string `json:"gross"`
}

type bookingPayload struct {
	ID        string `json:"id"`
	LeaseID   string `json:"leaseId"`
	Type      string `json:"type"`
	Category  string `json:"category"`
	Date      string `json:"date"`
	TaxRate   string `json:"taxRate"`
	Net       string `json:"net"`
	Gross     string `json:"gross"`
	Reference string `json:"reference"`
}

// Load reads a dataset file.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a dataset from a reader. Structural errors abort the load;
// malformed rows inside the lists are skipped and counted.
func Read(r io.Reader) (*Dataset, error) {
	var p payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}

	ds := &Dataset{}

	share, err := money.Parse(orZero(p.Property.HeatingFixedShare))
	if err != nil {
		return nil, fmt.Errorf("property heatingFixedShare: %w", err)
	}
	ds.Property = estate.Property{
		ID:                p.Property.ID,
		Name:              p.Property.Name,
		HeatingFixedShare: share,
	}
	for _, u := range p.Property.Units {
		bkShare, err := money.Parse(orZero(u.BKShare))
		if err != nil {
			return nil, fmt.Errorf("unit %s bkShare: %w", u.ID, err)
		}
		ds.Property.Units = append(ds.Property.Units, estate.Unit{
			ID:         u.ID,
			Name:       u.Name,
			DoorNumber: u.DoorNumber,
			Kind:       estate.UnitKind(u.Kind),
			BKShare:    bkShare,
		})
	}

	for _, l := range p.Leases {
		lease, err := decodeLease(l)
		if err != nil {
			ds.SkippedRows++
			continue
		}
		ds.Leases = append(ds.Leases, lease)
	}

	for _, m := range p.Meters {
		ds.Meters = append(ds.Meters, estate.Meter{
			ID:     m.ID,
			UnitID: m.UnitID,
			Kind:   estate.MeterKind(m.Kind),
			Medium: estate.MeterMedium(m.Medium),
		})
	}

	for _, row := range p.Readings {
		date, dateErr := parseDate(row.Date)
		value, valueErr := money.Parse(row.Value)
		if dateErr != nil || valueErr != nil {
			ds.SkippedRows++
			continue
		}
		ds.Readings = append(ds.Readings, estate.MeterReading{MeterID: row.MeterID, Date: date, Value: value})
	}

	for _, row := range p.Expenses {
		expense, err := decodeExpense(row, ds.Property.ID)
		if err != nil {
			ds.SkippedRows++
			continue
		}
		ds.Expenses = append(ds.Expenses, expense)
	}

	for _, row := range p.Bookings {
		b, err := decodeBooking(row)
		if err != nil {
			ds.SkippedRows++
			continue
		}
		ds.Bookings = append(ds.Bookings, b)
	}

	return ds, nil
}

func decodeLease(l leasePayload) (estate.Lease, error) {
	entry, err := parseDate(l.EntryDate)
	if err != nil {
		return estate.Lease{}, err
	}

	lease := estate.Lease{
		ID:        l.ID,
		UnitID:    l.UnitID,
		EntryDate: entry,
		Status:    estate.LeaseStatus(l.Status),
	}
	if lease.Status == "" {
		lease.Status = estate.LeaseActive
	}

	if l.ExitDate != "" {
		exit, err := parseDate(l.ExitDate)
		if err != nil {
			return estate.Lease{}, err
		}
		lease.ExitDate = &exit
	}

	for _, t := range l.Tenants {
		lease.Tenants = append(lease.Tenants, estate.Tenant{Name: t.Name, IBAN: t.IBAN})
	}

	if lease.NetRent, err = money.Parse(orZero(l.NetRent)); err != nil {
		return estate.Lease{}, err
	}
	if lease.OperatingCostNet, err = money.Parse(orZero(l.OperatingCostNet)); err != nil {
		return estate.Lease{}, err
	}
	if lease.HeatingCostNet, err = money.Parse(orZero(l.HeatingCostNet)); err != nil {
		return estate.Lease{}, err
	}

	if l.LastIndexAdjustment != nil {
		effective, err := parseDate(l.LastIndexAdjustment.EffectiveDate)
		if err != nil {
			return estate.Lease{}, err
		}
		index, err := money.Parse(l.LastIndexAdjustment.Index)
		if err != nil {
			return estate.Lease{}, err
		}
		lease.LastIndexAdjustment = &estate.IndexAdjustment{EffectiveDate: effective, Index: index}
	}

	return lease, nil
}

func decodeExpense(row expensePayload, propertyID string) (estate.Expense, error) {
	date, err := parseDate(row.Date)
	if err != nil {
		return estate.Expense{}, err
	}
	net, err := money.Parse(row.Net)
	if err != nil {
		return estate.Expense{}, err
	}
	rate, err := money.Parse(row.TaxRate)
	if err != nil {
		return estate.Expense{}, err
	}
	gross, err := money.Parse(row.Gross)
	if err != nil {
		return estate.Expense{}, err
	}
	if err := money.ValidateGross(net, rate, gross); err != nil {
		return estate.Expense{}, err
	}
	return estate.Expense{
		PropertyID: propertyID,
		Category:   estate.ExpenseCategory(row.Category),
		Date:       date,
		Net:        net,
		TaxRate:    rate,
		Gross:      gross,
	}, nil
}

func decodeBooking(row bookingPayload) (estate.Booking, error) {
	date, err := parseDate(row.Date)
	if err != nil {
		return estate.Booking{}, err
	}
	net, err := money.Parse(orZero(row.Net))
	if err != nil {
		return estate.Booking{}, err
	}
	rate, err := money.Parse(orZero(row.TaxRate))
	if err != nil {
		return estate.Booking{}, err
	}
	gross, err := money.Parse(orZero(row.Gross))
	if err != nil {
		return estate.Booking{}, err
	}
	return estate.Booking{
		ID:        row.ID,
		LeaseID:   row.LeaseID,
		Type:      estate.BookingType(row.Type),
		Category:  estate.BookingCategory(row.Category),
		Date:      date,
		TaxRate:   rate,
		Net:       net,
		Gross:     gross,
		Reference: row.Reference,
	}, nil
}

func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}

func orZero(value string) string {
	if value == "" {
		return "0"
	}
	return value
}
