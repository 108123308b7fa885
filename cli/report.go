package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fsnotify/fsnotify"

	"github.com/hausverwaltung/umlage/allocate"
	"github.com/hausverwaltung/umlage/loader"
	"github.com/hausverwaltung/umlage/money"
)

type ReportCmd struct {
	File  string `help:"Property dataset to build the statement from." arg:"" type:"existingfile"`
	Year  int    `help:"Statement year (defaults to the previous calendar year)."`
	JSON  bool   `help:"Emit the statement as JSON instead of a table." short:"j"`
	Watch bool   `help:"Rebuild the statement whenever the dataset changes." short:"w"`
}

func (cmd *ReportCmd) Run(ctx *kong.Context, globals *Globals) error {
	if cmd.Year == 0 {
		cmd.Year = time.Now().Year() - 1
	}

	datasetFile, err := filepath.Abs(cmd.File)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	if err := cmd.build(ctx, globals, datasetFile); err != nil {
		return err
	}

	if !cmd.Watch {
		return nil
	}

	printInfof(ctx.Stdout, "Watching %s", pathStyle.Render(datasetFile))
	return cmd.watch(ctx, globals, datasetFile)
}

func (cmd *ReportCmd) build(ctx *kong.Context, globals *Globals, datasetFile string) error {
	ds, err := loader.Load(datasetFile)
	if err != nil {
		return err
	}
	if ds.SkippedRows > 0 {
		printWarning(ctx.Stderr, fmt.Sprintf("%d malformed dataset row(s) skipped", ds.SkippedRows))
	}

	report := allocate.BuildReport(allocate.Input{
		Property: ds.Property,
		Year:     cmd.Year,
		Expenses: ds.Expenses,
		Meters:   ds.Meters,
		Readings: ds.Readings,
		Leases:   ds.Leases,
		Bookings: ds.Bookings,
	})

	if cmd.JSON {
		enc := json.NewEncoder(ctx.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report.Document()); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
	} else {
		report.Render(ctx.Stdout)
	}

	if globals.Verbose {
		printInfof(ctx.Stdout, "Pools: BK %s, Wasser %s, Strom %s, Warmwasser %s, Heizung %s",
			money.Cents(report.General.Pool),
			money.Cents(report.Water.Pool),
			money.Cents(report.Electricity.Pool),
			money.Cents(report.HotWater.Pool),
			money.Cents(report.Heating.Pool),
		)
	}

	// Check deltas are surfaced but never fail the run: a pool can stay
	// legitimately undistributed (no communal meter, no weights), and the
	// statement is still a valid document.
	warnings := report.CheckWarnings()
	for _, c := range warnings {
		printWarning(ctx.Stderr, fmt.Sprintf("check %s off by %s", c.Name, money.Cents(c.Delta)))
	}

	if len(warnings) > 0 {
		printInfof(ctx.Stdout, "Statement %d complete with %d check warning(s)", cmd.Year, len(warnings))
	} else {
		printSuccess(ctx.Stdout, fmt.Sprintf("Statement %d complete", cmd.Year))
	}
	return nil
}

// watch rebuilds the statement whenever the dataset file changes. Events are
// debounced because editors and exporters write files in multiple steps.
func (cmd *ReportCmd) watch(ctx *kong.Context, globals *Globals, datasetFile string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory, not the file: atomic saves replace the inode
	// and would silently drop a file-level watch.
	if err := watcher.Add(filepath.Dir(datasetFile)); err != nil {
		return fmt.Errorf("failed to watch dataset: %w", err)
	}

	const debounceDelay = 100 * time.Millisecond

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != datasetFile {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, func() {
				if err := cmd.build(ctx, globals, datasetFile); err != nil {
					printError(ctx.Stderr, err.Error())
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			printWarning(ctx.Stderr, fmt.Sprintf("file watcher error: %v", err))
		}
	}
}
