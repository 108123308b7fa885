package cli

import (
	"fmt"
	"time"

	"github.com/alecthomas/kong"

	"github.com/hausverwaltung/umlage/loader"
	"github.com/hausverwaltung/umlage/money"
	"github.com/hausverwaltung/umlage/vpi"
)

type VpiCmd struct {
	Dataset string `help:"Property dataset with leases and bookings." arg:"" type:"existingfile"`
	Index   string `help:"Current consumer price index value." required:""`
	Date    string `help:"Run date as YYYY-MM-DD (defaults to today)."`
}

func (cmd *VpiCmd) Run(ctx *kong.Context, globals *Globals) error {
	index, err := money.Parse(cmd.Index)
	if err != nil {
		return fmt.Errorf("invalid index value %q: %w", cmd.Index, err)
	}

	runDate := time.Now()
	if cmd.Date != "" {
		if runDate, err = time.Parse("2006-01-02", cmd.Date); err != nil {
			return fmt.Errorf("invalid run date %q: %w", cmd.Date, err)
		}
	}

	ds, err := loader.Load(cmd.Dataset)
	if err != nil {
		return err
	}

	results := vpi.Run(ds.Property, ds.Leases, index, ds.Bookings, runDate)

	adjusted := 0
	for _, r := range results {
		if r.Skipped {
			printWarning(ctx.Stderr, fmt.Sprintf("lease %s skipped: %s", r.LeaseID, r.SkipReason))
			continue
		}
		adjusted++

		printSuccess(ctx.Stdout, fmt.Sprintf("lease %s: factor %s, new rent %s net / %s gross, catch-up %s over %d month(s)",
			r.LeaseID, r.Factor, money.Cents(r.NewNetRent), money.Cents(r.NewGrossRent),
			money.Cents(r.CatchUpGross), r.Months))

		if globals.Verbose {
			printInfof(ctx.Stdout, "  book %s as a backdated due entry for lease %s",
				money.Cents(r.CatchUpGross), r.LeaseID)
		}
	}

	if adjusted == 0 {
		printInfof(ctx.Stdout, "No leases adjusted")
	}
	return nil
}
