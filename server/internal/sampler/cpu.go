package sampler

import (
	"sort"

	"github.com/topchat/topchat/pkg/types"
)

// cpuTimes is the cumulative time one core has spent busy and in total,
// in seconds since boot.
type cpuTimes struct {
	busy  float64
	total float64
}

// cpuTracker keeps the previous reading per core and derives utilization
// from the delta to the current one.
type cpuTracker struct {
	prev map[int]cpuTimes
}

// loads converts cumulative per-core times into utilization percentages
// and stores cur as the next baseline.
func (t *cpuTracker) loads(cur map[int]cpuTimes) []types.CPULoad {
	cores := make([]int, 0, len(cur))
	for n := range cur {
		cores = append(cores, n)
	}
	sort.Ints(cores)

	out := make([]types.CPULoad, 0, len(cores))
	for _, n := range cores {
		c := cur[n]
		busy, total := c.busy, c.total
		if p, ok := t.prev[n]; ok {
			busy = deltaOf(c.busy, p.busy)
			total = deltaOf(c.total, p.total)
		}

		var pct float64
		if total > 0 {
			pct = busy / total * 100
		}
		out = append(out, types.CPULoad{Core: uint32(n), Percent: float32(clampPct(pct))})
	}

	t.prev = cur
	return out
}

// deltaOf returns the positive counter delta between current and previous.
// If current < previous (counter reset or core hot-plug), returns 0.
func deltaOf(current, previous float64) float64 {
	d := current - previous
	if d < 0 {
		return 0
	}
	return d
}

func clampPct(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
