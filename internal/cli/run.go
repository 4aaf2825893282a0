package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kgotso-Koete/camstop/internal/procs"
	"github.com/Kgotso-Koete/camstop/internal/reaper"
)

// runOptions carries flag overrides on top of the loaded config. The *Set
// fields distinguish "flag given" from zero values.
type runOptions struct {
	signal    string
	signalSet bool
	settle    string
	settleSet bool
	verify    bool
	verifySet bool
	dryRun    bool
	jsonOut   bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full cleanup sequence",
		Long: `Signal every process matching the configured patterns, then every holder
of the camera device nodes, wait the settle delay, and list survivors.

Examples:
  camstop run
  camstop run --signal SIGTERM --settle 5s
  camstop run --verify           # return early once nothing matches
  camstop run --dry-run --json   # machine-readable plan, no signals`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.signalSet = cmd.Flags().Changed("signal")
			opts.settleSet = cmd.Flags().Changed("settle")
			opts.verifySet = cmd.Flags().Changed("verify")
			return runCleanup(opts)
		},
	}

	cmd.Flags().StringVar(&opts.signal, "signal", "", "signal to send (default from config, SIGKILL)")
	cmd.Flags().StringVar(&opts.settle, "settle", "", "settle delay before the survivor scan (default from config, 2s)")
	cmd.Flags().BoolVar(&opts.verify, "verify", false, "poll for survivors instead of sleeping the full settle delay")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "report targets without sending any signal")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "emit the run report as JSON")
	return cmd
}

// runCleanup resolves config plus overrides and executes the sequence
// against the real process table. Shared by `camstop` and `camstop run`.
func runCleanup(opts runOptions) error {
	sigName := cfg.Signal
	if opts.signalSet {
		sigName = opts.signal
	}
	sig, err := procs.ParseSignal(sigName)
	if err != nil {
		return err
	}

	delayStr := cfg.SettleDelay
	if opts.settleSet {
		delayStr = opts.settle
	}
	delay, err := time.ParseDuration(delayStr)
	if err != nil {
		return fmt.Errorf("invalid settle delay %q: %w", delayStr, err)
	}

	verify := cfg.Verify
	if opts.verifySet {
		verify = opts.verify
	}

	r := reaper.New(procs.NewSystemLister())
	if !opts.jsonOut {
		r.Progress = func(msg string) {
			fmt.Println(render(statusStyle, msg+"..."))
		}
	}

	rep := r.Run(reaper.Options{
		Patterns:    cfg.Patterns,
		DeviceGlobs: cfg.DeviceGlobs,
		SettleDelay: delay,
		Signal:      sig,
		Verify:      verify,
		DryRun:      opts.dryRun,
	})

	if opts.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	printRunReport(rep)
	return nil
}

func printRunReport(rep *reaper.Report) {
	verb := "signalled"
	if rep.DryRun {
		verb = "would signal"
	}
	fmt.Printf("%s %d process(es)\n", verb, len(rep.Signalled))
	for _, t := range rep.Signalled {
		fmt.Printf("  %s %s\n", render(dimStyle, fmt.Sprintf("[%s %s]", t.Source, t.Matched)), t.Process)
	}

	if len(rep.Survivors) == 0 {
		fmt.Println(render(okStyle, "no camera processes remaining"))
		return
	}
	fmt.Println(render(warnStyle, fmt.Sprintf("%d process(es) still matching:", len(rep.Survivors))))
	for _, p := range rep.Survivors {
		fmt.Printf("  %6d  %s\n", p.PID, p.Cmdline)
	}
}
