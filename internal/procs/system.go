package procs

import (
	"log/slog"
	"os"

	"github.com/shirou/gopsutil/v4/process"
	"golang.org/x/sys/unix"
)

// SystemLister reads the real process table via gopsutil.
type SystemLister struct {
	self int32
}

// NewSystemLister returns a Lister over the host process table. The calling
// process is excluded from snapshots and holder queries so the tool never
// signals itself.
func NewSystemLister() *SystemLister {
	return &SystemLister{self: int32(os.Getpid())}
}

func (s *SystemLister) Snapshot() ([]Process, error) {
	all, err := process.Processes()
	if err != nil {
		return nil, err
	}
	out := make([]Process, 0, len(all))
	for _, p := range all {
		if p.Pid == s.self {
			continue
		}
		cmdline, err := p.Cmdline()
		if err != nil || cmdline == "" {
			// Kernel threads and processes we cannot read; neither
			// is a kill target.
			continue
		}
		name, _ := p.Name()
		out = append(out, Process{PID: p.Pid, Name: name, Cmdline: cmdline})
	}
	return out, nil
}

func (s *SystemLister) Signal(pid int32, sig unix.Signal) error {
	p, err := process.NewProcess(pid)
	if err != nil {
		return err
	}
	return p.SendSignal(sig)
}

func (s *SystemLister) Holders(path string) ([]Process, error) {
	all, err := process.Processes()
	if err != nil {
		return nil, err
	}
	var out []Process
	for _, p := range all {
		if p.Pid == s.self {
			continue
		}
		files, err := p.OpenFiles()
		if err != nil {
			// Usually EPERM on other users' processes when unprivileged.
			slog.Debug("cannot read open files", "pid", p.Pid, "error", err)
			continue
		}
		for _, f := range files {
			if f.Path != path {
				continue
			}
			cmdline, _ := p.Cmdline()
			name, _ := p.Name()
			out = append(out, Process{PID: p.Pid, Name: name, Cmdline: cmdline})
			break
		}
	}
	return out, nil
}
