package sampler

import (
	"context"
	"fmt"

	"github.com/prometheus/procfs"

	"github.com/topchat/topchat/pkg/types"
)

// Procfs samples the local host from a procfs mount.
type Procfs struct {
	fs      procfs.FS
	tracker cpuTracker
}

// NewProcfs opens the procfs mounted at path ("/proc" when empty).
func NewProcfs(path string) (*Procfs, error) {
	if path == "" {
		path = procfs.DefaultMountPoint
	}
	fs, err := procfs.NewFS(path)
	if err != nil {
		return nil, fmt.Errorf("open procfs %q: %w", path, err)
	}
	return &Procfs{fs: fs}, nil
}

// Sample reads /proc/stat and /proc/meminfo.
func (p *Procfs) Sample(_ context.Context) (*Sample, error) {
	stat, err := p.fs.Stat()
	if err != nil {
		return nil, fmt.Errorf("procfs: read stat: %w", err)
	}

	cur := make(map[int]cpuTimes, len(stat.CPU))
	for n, c := range stat.CPU {
		idle := c.Idle + c.Iowait
		total := c.User + c.Nice + c.System + c.Idle + c.Iowait + c.IRQ + c.SoftIRQ + c.Steal
		cur[int(n)] = cpuTimes{busy: total - idle, total: total}
	}

	mi, err := p.fs.Meminfo()
	if err != nil {
		return nil, fmt.Errorf("procfs: read meminfo: %w", err)
	}

	return &Sample{
		CPU:    p.tracker.loads(cur),
		Memory: memoryFromMeminfo(mi),
	}, nil
}

// memoryFromMeminfo converts kB fields to byte totals. Kernels without
// MemAvailable fall back to free + buffers + cached.
func memoryFromMeminfo(mi procfs.Meminfo) *types.MemoryData {
	total := kib(mi.MemTotal)
	if total == 0 {
		return nil
	}
	free := kib(mi.MemFree)
	avail := kib(mi.MemAvailable)
	if mi.MemAvailable == nil {
		avail = free + kib(mi.Buffers) + kib(mi.Cached)
	}
	if avail > total {
		avail = total
	}
	return &types.MemoryData{
		Total:     total,
		Free:      free,
		Available: avail,
		Used:      total - avail,
	}
}

func kib(v *uint64) uint64 {
	if v == nil {
		return 0
	}
	return *v * 1024
}
