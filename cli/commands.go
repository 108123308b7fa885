package cli

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands.
type Globals struct {
	Verbose bool `help:"Show per-stage detail for operations."`
}

type Commands struct {
	Globals

	Report ReportCmd `cmd:"" help:"Build the yearly operating-cost statement for a property dataset."`
	Match  MatchCmd  `cmd:"" help:"Match a bank transaction batch against open rent positions."`
	Soll   SollCmd   `cmd:"" help:"Generate the monthly due bookings for every active lease."`
	Vpi    VpiCmd    `cmd:"" help:"Calculate index-clause rent catch-ups against a new index value."`
}
