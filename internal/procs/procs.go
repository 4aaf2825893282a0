// Package procs provides access to the host process table through a small
// capability interface, so callers that decide which processes to signal can
// be tested without touching real processes.
package procs

import (
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

// Process is one entry of a process-table snapshot.
type Process struct {
	PID     int32  `json:"pid" yaml:"pid"`
	Name    string `json:"name" yaml:"name"`
	Cmdline string `json:"cmdline" yaml:"cmdline"`
}

func (p Process) String() string {
	return fmt.Sprintf("%d %s", p.PID, p.Cmdline)
}

// Lister is the capability the cleanup sequence runs against: snapshot the
// process table, deliver a signal, and enumerate holders of a file path.
type Lister interface {
	// Snapshot returns the current process table. Entries without a
	// readable command line are omitted, as is the calling process.
	Snapshot() ([]Process, error)

	// Signal delivers sig to pid. Delivery to a process that has already
	// exited returns an error; callers treat that as non-fatal.
	Signal(pid int32, sig unix.Signal) error

	// Holders returns the processes with an open file handle on path.
	// A path that does not exist or has no holders yields an empty slice.
	Holders(path string) ([]Process, error)
}

// ParseSignal resolves a signal name like "SIGTERM", "TERM" or "KILL".
func ParseSignal(name string) (unix.Signal, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if n == "" {
		return 0, fmt.Errorf("empty signal name")
	}
	if !strings.HasPrefix(n, "SIG") {
		n = "SIG" + n
	}
	sig := unix.SignalNum(n)
	if sig == 0 {
		return 0, fmt.Errorf("unknown signal %q", name)
	}
	return sig, nil
}
