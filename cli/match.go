package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/hausverwaltung/umlage/bankimport"
	"github.com/hausverwaltung/umlage/loader"
	"github.com/hausverwaltung/umlage/money"
)

type MatchCmd struct {
	Dataset string `help:"Property dataset with leases and bookings." arg:"" type:"existingfile"`
	Batch   string `help:"Bank transaction batch to match." arg:"" type:"existingfile"`
	Yes     bool   `help:"Emit booking requests without a confirmation prompt." short:"y"`
}

// requestDocument is the wire form of one booking request, amounts as
// decimal strings.
type requestDocument struct {
	LeaseID              string `json:"leaseId"`
	Date                 string `json:"date"`
	Category             string `json:"category"`
	TaxRate              string `json:"taxRate"`
	Net                  string `json:"net"`
	Gross                string `json:"gross"`
	Reference            string `json:"reference"`
	SettlementAdjustment bool   `json:"settlementAdjustment,omitempty"`
}

func (cmd *MatchCmd) Run(ctx *kong.Context, globals *Globals) error {
	ds, err := loader.Load(cmd.Dataset)
	if err != nil {
		return err
	}

	f, err := os.Open(cmd.Batch)
	if err != nil {
		return fmt.Errorf("failed to open batch: %w", err)
	}
	defer f.Close()

	transactions, stats, err := bankimport.DecodeBatch(f)
	if err != nil {
		return err
	}

	printInfof(ctx.Stderr, "Batch: %d accepted, %d skipped, %d duplicate(s)",
		stats.Accepted, stats.Skipped, stats.Duplicates)

	matcher := bankimport.NewMatcher(ds.Property, ds.Leases, ds.Bookings)

	var requests []bankimport.BookingRequest
	unresolved := 0

	for _, txn := range transactions {
		match := matcher.Match(txn)

		switch match.Resolution {
		case bankimport.ResolutionUnique:
			printSuccess(ctx.Stderr, fmt.Sprintf("%s %s matched lease %s",
				txn.ReferenceNumber, money.Cents(txn.Amount), match.Lease.ID))
		case bankimport.ResolutionSplit:
			for _, split := range match.Splits {
				printSuccess(ctx.Stderr, fmt.Sprintf("%s %s split to lease %s",
					txn.ReferenceNumber, money.Cents(split.Amount), split.Lease.ID))
			}
		case bankimport.ResolutionWeak:
			printWarning(ctx.Stderr, fmt.Sprintf("%s %s weakly points at lease %s, needs review",
				txn.ReferenceNumber, money.Cents(txn.Amount), match.Lease.ID))
			unresolved++
		default:
			printWarning(ctx.Stderr, fmt.Sprintf("%s %s unresolved (%d candidate(s))",
				txn.ReferenceNumber, money.Cents(txn.Amount), len(match.Candidates)))
			if globals.Verbose {
				for _, c := range match.Candidates {
					printInfof(ctx.Stderr, "  candidate lease %s", c.ID)
				}
			}
			unresolved++
		}

		requests = append(requests, matcher.Requests(match)...)
	}

	if unresolved > 0 {
		printInfof(ctx.Stderr, "%d transaction(s) need manual assignment", unresolved)
	}

	if len(requests) == 0 {
		printInfof(ctx.Stderr, "No bookings to create")
		return nil
	}

	if !cmd.Yes {
		confirmed, err := promptYesNo(ctx, fmt.Sprintf("Emit %d booking request(s)?", len(requests)))
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if !confirmed {
			printInfof(ctx.Stderr, "Aborted, no booking requests emitted")
			return nil
		}
	}

	docs := make([]requestDocument, 0, len(requests))
	for _, r := range requests {
		docs = append(docs, requestDocument{
			LeaseID:              r.LeaseID,
			Date:                 r.Date.Format("2006-01-02"),
			Category:             string(r.Category),
			TaxRate:              r.TaxRate.String(),
			Net:                  money.Cents(r.Net),
			Gross:                money.Cents(r.Gross),
			Reference:            r.Reference,
			SettlementAdjustment: r.SettlementAdjustment,
		})
	}

	enc := json.NewEncoder(ctx.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(docs); err != nil {
		return fmt.Errorf("failed to encode booking requests: %w", err)
	}

	printSuccess(ctx.Stderr, fmt.Sprintf("%d booking request(s) emitted", len(requests)))
	return nil
}
