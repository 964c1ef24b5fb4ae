package api

import (
	"fmt"
	"sort"

	"github.com/topchat/topchat/pkg/types"
)

// Hint levels, most severe last.
const (
	LevelOK       = "ok"
	LevelInfo     = "info"
	LevelWarning  = "warning"
	LevelCritical = "critical"
)

// DiagnosticHint is one human-readable insight about the host's state.
type DiagnosticHint struct {
	// Key is a stable machine-readable identifier.
	Key string `json:"key"`
	// Level is "ok" | "info" | "warning" | "critical"
	Level string `json:"level"`
	// Title is a short label.
	Title string `json:"title"`
	// Detail is the full explanation.
	Detail string `json:"detail"`
	// Value is an optional numeric value associated with this hint.
	Value *float64 `json:"value,omitempty"`
}

// computeDiagnostics derives diagnostic hints from a snapshot.
// Hints are ordered critical first, then warnings, then info.
func computeDiagnostics(snap *types.Snapshot) []DiagnosticHint {
	var hints []DiagnosticHint

	if len(snap.CPU) == 0 {
		return append(hints, DiagnosticHint{
			Key:   "no_cpu_data",
			Level: LevelCritical,
			Title: "No CPU data",
			Detail: "The metrics source returned no per-core readings. " +
				"Check the configured metrics source: the proc mount for procfs, " +
				"or that node_exporter runs with the cpu collector enabled.",
		})
	}

	// Peak core.
	if peak := snap.CPUMax(); peak >= 80 {
		v := peak
		level := LevelWarning
		if peak >= 95 {
			level = LevelCritical
		}
		hints = append(hints, DiagnosticHint{
			Key:   "cpu_peak",
			Level: level,
			Title: fmt.Sprintf("Core at %.0f%%", peak),
			Detail: fmt.Sprintf(
				"At least one core is running at %.1f%%. "+
					"Short spikes are normal; a core pinned near 100%% usually means a single-threaded "+
					"process is saturated.",
				peak),
			Value: &v,
		})
	}

	// Whole-machine load.
	if avg := snap.CPUAvg(); avg >= 70 {
		v := avg
		level := LevelWarning
		if avg >= 90 {
			level = LevelCritical
		}
		hints = append(hints, DiagnosticHint{
			Key:   "cpu_load",
			Level: level,
			Title: fmt.Sprintf("%.0f%% average load", avg),
			Detail: fmt.Sprintf(
				"All %d cores together average %.1f%% utilization. "+
					"Sustained load at this level leaves little headroom for bursts.",
				len(snap.CPU), avg),
			Value: &v,
		})
	}

	// One hot core on an otherwise quiet machine.
	if peak, avg := snap.CPUMax(), snap.CPUAvg(); len(snap.CPU) > 1 && peak-avg >= 50 {
		v := peak - avg
		hints = append(hints, DiagnosticHint{
			Key:   "cpu_imbalance",
			Level: LevelInfo,
			Title: "Uneven core load",
			Detail: fmt.Sprintf(
				"The busiest core is %.0f points above the average. "+
					"Work is not spread across cores.",
				v),
			Value: &v,
		})
	}

	switch {
	case snap.Memory == nil:
		hints = append(hints, DiagnosticHint{
			Key:    "memory_unknown",
			Level:  LevelInfo,
			Title:  "Memory not reported",
			Detail: "The metrics source does not expose memory totals, so memory usage is not shown.",
		})
	case snap.Memory.UsedPct() >= 85:
		v := snap.Memory.UsedPct()
		level := LevelWarning
		if v >= 95 {
			level = LevelCritical
		}
		hints = append(hints, DiagnosticHint{
			Key:   "memory_pressure",
			Level: level,
			Title: fmt.Sprintf("%.0f%% memory used", v),
			Detail: fmt.Sprintf(
				"Only %d MiB of %d MiB is still available. "+
					"The kernel will start reclaiming page cache and may invoke the OOM killer.",
				snap.Memory.Available>>20, snap.Memory.Total>>20),
			Value: &v,
		})
	}

	if len(hints) == 0 {
		avg := snap.CPUAvg()
		hints = append(hints, DiagnosticHint{
			Key:    "healthy",
			Level:  LevelOK,
			Title:  "All clear",
			Detail: fmt.Sprintf("CPU averages %.0f%% and memory has headroom.", avg),
			Value:  &avg,
		})
	}

	sort.SliceStable(hints, func(i, j int) bool {
		return levelRank(hints[i].Level) > levelRank(hints[j].Level)
	})
	return hints
}

// worstLevel returns the most severe level among hints, or "ok".
func worstLevel(hints []DiagnosticHint) string {
	worst := LevelOK
	for _, h := range hints {
		if levelRank(h.Level) > levelRank(worst) {
			worst = h.Level
		}
	}
	return worst
}

func levelRank(level string) int {
	switch level {
	case LevelCritical:
		return 3
	case LevelWarning:
		return 2
	case LevelInfo:
		return 1
	default:
		return 0
	}
}
