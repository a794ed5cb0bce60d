package channellbc

import (
	"context"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
	"github.com/xiaonanln/chanworld/engine/gwlog"
	"github.com/xiaonanln/chanworld/engine/gwutils"
)

// ReportFunc receives the cpu percent of the channel process, it is called from the collect routine
type ReportFunc func(cpuPercent float64)

// Initialize starts collecting the cpu usage of this process every collectInterval
func Initialize(ctx context.Context, collectInterval time.Duration, report ReportFunc) {
	pid := os.Getpid()
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		gwlog.Fatalf("can not find channel process: pid = %v", pid)
	}
	gwlog.Infof("channellbc: found channel process: %s", p)

	go gwutils.RepeatUntilPanicless(func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(collectInterval):
			}

			pcnt, err := p.CPUPercentWithContext(ctx)
			if err != nil {
				gwlog.Panicf("channellbc: get process cpu percent failed: %s", err)
			}

			gwlog.Debugf("channellbc: cpu percent is %.3f%%", pcnt)
			report(pcnt)
		}
	})
}
