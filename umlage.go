// Package umlage allocates the yearly operating costs of a residential
// property to its units and reconciles incoming bank payments against open
// rent positions. The heavy lifting lives in the subpackages; this package
// offers convenience entrypoints over a dataset file.
package umlage

import (
	"io"

	"github.com/hausverwaltung/umlage/allocate"
	"github.com/hausverwaltung/umlage/bankimport"
	"github.com/hausverwaltung/umlage/loader"
)

// BuildStatement loads a property dataset and builds the annual
// operating-cost statement for the given year.
func BuildStatement(path string, year int) (*allocate.Report, error) {
	ds, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	return allocate.BuildReport(allocate.Input{
		Property: ds.Property,
		Year:     year,
		Expenses: ds.Expenses,
		Meters:   ds.Meters,
		Readings: ds.Readings,
		Leases:   ds.Leases,
		Bookings: ds.Bookings,
	}), nil
}

// MatchBatch loads a property dataset and matches a bank transaction batch
// read from r against its leases and bookings.
func MatchBatch(path string, r io.Reader) ([]bankimport.Match, bankimport.BatchStats, error) {
	ds, err := loader.Load(path)
	if err != nil {
		return nil, bankimport.BatchStats{}, err
	}

	transactions, stats, err := bankimport.DecodeBatch(r)
	if err != nil {
		return nil, stats, err
	}

	matcher := bankimport.NewMatcher(ds.Property, ds.Leases, ds.Bookings)
	matches := make([]bankimport.Match, 0, len(transactions))
	for _, txn := range transactions {
		matches = append(matches, matcher.Match(txn))
	}
	return matches, stats, nil
}
