package process

import (
	"syscall"

	psutil_process "github.com/shirou/gopsutil/process"
)

// Process is a running process seen by the operator tool
type Process interface {
	Pid() int32
	Executable() string
	Path() (string, error)
	Cwd() (string, error)
	CmdlineSlice() ([]string, error)
	IsRunning() bool
	Signal(sig syscall.Signal) error
}

type process struct {
	*psutil_process.Process
}

func (p process) Pid() int32 {
	return p.Process.Pid
}

func (p process) Executable() string {
	name, _ := p.Process.Name()
	return name
}

func (p process) Path() (string, error) {
	return p.Process.Exe()
}

func (p process) IsRunning() bool {
	running, err := p.Process.IsRunning()
	return err == nil && running
}

// Processes lists all processes of the host
func Processes() ([]Process, error) {
	ps, err := psutil_process.Processes()
	if err != nil {
		return nil, err
	}

	procs := make([]Process, 0, len(ps))
	for _, p := range ps {
		procs = append(procs, process{p})
	}
	return procs, nil
}
