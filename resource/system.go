package resource

import (
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/maxpoletaev/overseer/membership"
)

const bytesInGB = 1024 * 1024 * 1024

var _ Sampler = (*SystemSampler)(nil)

// SystemSampler reads CPU, memory and load figures from the operating system.
type SystemSampler struct {
	logger  kitlog.Logger
	started time.Time
	now     func() time.Time
}

func NewSystemSampler(logger kitlog.Logger) *SystemSampler {
	return &SystemSampler{
		logger:  logger,
		started: time.Now(),
		now:     time.Now,
	}
}

func (s *SystemSampler) Sample(id membership.NodeID, clock uint64) Snapshot {
	now := s.now()

	snap := Snapshot{
		NodeID:      id,
		Clock:       clock,
		LoadAvg:     -1,
		Uptime:      now.Sub(s.started).Truncate(time.Second),
		CollectedAt: now,
	}

	if percents, err := cpu.Percent(0, false); err != nil {
		level.Debug(s.logger).Log("msg", "failed to read cpu usage", "err", err)
	} else if len(percents) > 0 {
		snap.CPUPercent = percents[0]
	}

	if vm, err := mem.VirtualMemory(); err != nil {
		level.Debug(s.logger).Log("msg", "failed to read memory usage", "err", err)
	} else {
		snap.MemPercent = vm.UsedPercent
		snap.MemTotalGB = vm.Total / bytesInGB
	}

	if avg, err := load.Avg(); err != nil {
		level.Debug(s.logger).Log("msg", "failed to read load average", "err", err)
	} else {
		snap.LoadAvg = avg.Load1
	}

	if n, err := cpu.Counts(true); err != nil {
		level.Debug(s.logger).Log("msg", "failed to read cpu count", "err", err)
	} else {
		snap.Processors = n
	}

	return snap
}
