// Package reaper implements the camera cleanup sequence: signal every
// process whose command line matches one of the configured patterns, signal
// every holder of the camera device nodes, wait out the settle delay, then
// report whatever still matches.
package reaper

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/Kgotso-Koete/camstop/internal/procs"
)

// verifyInterval is the poll interval used when Verify is enabled.
const verifyInterval = 200 * time.Millisecond

// Options configures a single cleanup run.
type Options struct {
	// Patterns are matched, in order, as case-sensitive substrings of the
	// full command line including arguments.
	Patterns []string

	// DeviceGlobs are expanded against the filesystem at run time; holders
	// of every matching path are signalled. A glob that matches nothing is
	// silently skipped.
	DeviceGlobs []string

	// SettleDelay is the fixed wait between signalling and the survivor
	// scan. It always elapses fully unless Verify is set.
	SettleDelay time.Duration

	Signal unix.Signal

	// Verify replaces the blind settle sleep with a bounded poll that
	// returns as soon as nothing matches, capped at SettleDelay.
	Verify bool

	// DryRun records targets without delivering any signal.
	DryRun bool
}

// Target is one process the run signalled (or would signal under DryRun),
// tagged with what selected it.
type Target struct {
	Process procs.Process `json:"process" yaml:"process"`
	Matched string        `json:"matched" yaml:"matched"`
	Source  string        `json:"source" yaml:"source"` // "pattern" or "device"
}

// Report summarizes a cleanup run. Survivors is advisory only: the sequence
// never acts on it.
type Report struct {
	Signalled []Target        `json:"signalled" yaml:"signalled"`
	Survivors []procs.Process `json:"survivors" yaml:"survivors"`
	DryRun    bool            `json:"dry_run" yaml:"dry_run"`
}

// Reaper drives the cleanup sequence against a process Lister.
type Reaper struct {
	lister procs.Lister

	// Progress receives human-readable status lines. Nil disables them.
	Progress func(msg string)

	sleep func(time.Duration)
	glob  func(pattern string) ([]string, error)
}

func New(lister procs.Lister) *Reaper {
	return &Reaper{
		lister: lister,
		sleep:  time.Sleep,
		glob:   filepath.Glob,
	}
}

func (r *Reaper) progressf(format string, args ...any) {
	if r.Progress != nil {
		r.Progress(fmt.Sprintf(format, args...))
	}
}

// Run executes the full sequence. Every step is attempted regardless of
// prior outcomes: a failed snapshot, glob or signal never aborts the run.
func (r *Reaper) Run(opts Options) *Report {
	rep := &Report{DryRun: opts.DryRun}
	seen := make(map[int32]bool)

	for _, pat := range opts.Patterns {
		r.progressf("stopping processes matching %q", pat)
		for _, p := range r.matches(pat) {
			if !seen[p.PID] {
				seen[p.PID] = true
				rep.Signalled = append(rep.Signalled, Target{Process: p, Matched: pat, Source: "pattern"})
			}
			r.signal(p, opts)
		}
	}

	paths := r.expandDevices(opts.DeviceGlobs)
	if len(paths) > 0 {
		r.progressf("stopping holders of camera devices")
	}
	for _, path := range paths {
		holders, err := r.lister.Holders(path)
		if err != nil {
			slog.Warn("cannot enumerate holders", "path", path, "error", err)
			continue
		}
		for _, p := range holders {
			if !seen[p.PID] {
				seen[p.PID] = true
				rep.Signalled = append(rep.Signalled, Target{Process: p, Matched: path, Source: "device"})
			}
			r.signal(p, opts)
		}
	}

	r.settle(opts)

	r.progressf("checking for remaining camera processes")
	rep.Survivors = r.Matches(opts.Patterns)
	return rep
}

// Matches returns every process whose command line contains any of the
// given patterns, in snapshot order.
func (r *Reaper) Matches(patterns []string) []procs.Process {
	snap, err := r.lister.Snapshot()
	if err != nil {
		slog.Warn("cannot read process table", "error", err)
		return nil
	}
	var out []procs.Process
	for _, p := range snap {
		for _, pat := range patterns {
			if strings.Contains(p.Cmdline, pat) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// HoldersOf expands the device globs and returns the holders per path.
// Paths with no holders are omitted.
func (r *Reaper) HoldersOf(globs []string) map[string][]procs.Process {
	out := make(map[string][]procs.Process)
	for _, path := range r.expandDevices(globs) {
		holders, err := r.lister.Holders(path)
		if err != nil || len(holders) == 0 {
			continue
		}
		out[path] = holders
	}
	return out
}

func (r *Reaper) matches(pattern string) []procs.Process {
	snap, err := r.lister.Snapshot()
	if err != nil {
		slog.Warn("cannot read process table", "error", err)
		return nil
	}
	var out []procs.Process
	for _, p := range snap {
		if strings.Contains(p.Cmdline, pattern) {
			out = append(out, p)
		}
	}
	return out
}

func (r *Reaper) signal(p procs.Process, opts Options) {
	if opts.DryRun {
		slog.Info("dry run, not signalling", "pid", p.PID, "cmdline", p.Cmdline)
		return
	}
	if err := r.lister.Signal(p.PID, opts.Signal); err != nil {
		// Already gone or not ours to kill; the survivor listing is
		// the only place this surfaces.
		slog.Debug("signal not delivered", "pid", p.PID, "signal", unix.SignalName(opts.Signal), "error", err)
		return
	}
	slog.Debug("signalled", "pid", p.PID, "signal", unix.SignalName(opts.Signal), "cmdline", p.Cmdline)
}

// expandDevices resolves the device globs against the filesystem. Glob
// errors and empty expansions are ignored: an absent camera device simply
// has no holders to kill.
func (r *Reaper) expandDevices(globs []string) []string {
	seen := make(map[string]bool)
	var paths []string
	for _, g := range globs {
		matches, err := r.glob(g)
		if err != nil {
			slog.Debug("bad device glob", "glob", g, "error", err)
			continue
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	sort.Strings(paths)
	return paths
}

// settle waits between signalling and the survivor scan. The default is a
// fixed sleep with no early exit; Verify turns it into a poll capped at the
// same delay.
func (r *Reaper) settle(opts Options) {
	if opts.SettleDelay <= 0 {
		return
	}
	if !opts.Verify {
		r.sleep(opts.SettleDelay)
		return
	}
	deadline := time.Now().Add(opts.SettleDelay)
	for {
		if len(r.Matches(opts.Patterns)) == 0 {
			return
		}
		if !time.Now().Before(deadline) {
			return
		}
		r.sleep(verifyInterval)
	}
}
