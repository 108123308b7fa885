package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/alecthomas/kong"

	"github.com/hausverwaltung/umlage/booking"
	"github.com/hausverwaltung/umlage/estate"
	"github.com/hausverwaltung/umlage/loader"
	"github.com/hausverwaltung/umlage/money"
)

type SollCmd struct {
	Dataset string `help:"Property dataset with leases and existing bookings." arg:"" type:"existingfile"`
	Month   string `help:"Month to generate dues for, as YYYY-MM (defaults to the current month)."`
}

// bookingDocument is the wire form of one generated due booking.
type bookingDocument struct {
	LeaseID  string `json:"leaseId"`
	Type     string `json:"type"`
	Category string `json:"category"`
	Date     string `json:"date"`
	TaxRate  string `json:"taxRate"`
	Net      string `json:"net"`
	Gross    string `json:"gross"`
}

func (cmd *SollCmd) Run(ctx *kong.Context, globals *Globals) error {
	month := estate.MonthOf(time.Now())
	if cmd.Month != "" {
		parsed, err := time.Parse("2006-01", cmd.Month)
		if err != nil {
			return fmt.Errorf("invalid month %q: %w", cmd.Month, err)
		}
		month = estate.MonthOf(parsed)
	}

	ds, err := loader.Load(cmd.Dataset)
	if err != nil {
		return err
	}

	created := booking.GenerateMonthlySOLL(ds.Property, ds.Leases, ds.Bookings, month)
	if len(created) == 0 {
		printInfof(ctx.Stderr, "No dues to generate for %s, all present", month)
		return nil
	}

	if globals.Verbose {
		for _, b := range created {
			printInfof(ctx.Stderr, "lease %s %s %s gross", b.LeaseID, b.Category, money.Cents(b.Gross))
		}
	}

	docs := make([]bookingDocument, 0, len(created))
	for _, b := range created {
		docs = append(docs, bookingDocument{
			LeaseID:  b.LeaseID,
			Type:     string(b.Type),
			Category: string(b.Category),
			Date:     b.Date.Format("2006-01-02"),
			TaxRate:  b.TaxRate.String(),
			Net:      money.Cents(b.Net),
			Gross:    money.Cents(b.Gross),
		})
	}

	enc := json.NewEncoder(ctx.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(docs); err != nil {
		return fmt.Errorf("failed to encode bookings: %w", err)
	}

	printSuccess(ctx.Stderr, fmt.Sprintf("%d due booking(s) generated for %s", len(created), month))
	return nil
}
