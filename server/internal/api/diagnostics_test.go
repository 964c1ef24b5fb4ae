package api

import (
	"testing"

	"github.com/topchat/topchat/pkg/types"
)

func cores(pcts ...float32) []types.CPULoad {
	out := make([]types.CPULoad, len(pcts))
	for i, p := range pcts {
		out[i] = types.CPULoad{Core: uint32(i), Percent: p}
	}
	return out
}

func keys(hints []DiagnosticHint) map[string]string {
	m := make(map[string]string, len(hints))
	for _, h := range hints {
		m[h.Key] = h.Level
	}
	return m
}

var roomyMemory = &types.MemoryData{Total: 100 << 20, Available: 80 << 20, Used: 20 << 20}

func TestDiagnostics_AllClear(t *testing.T) {
	hints := computeDiagnostics(&types.Snapshot{CPU: cores(10, 20), Memory: roomyMemory})
	if len(hints) != 1 || hints[0].Key != "healthy" || hints[0].Level != LevelOK {
		t.Errorf("got %+v, want single healthy hint", hints)
	}
}

func TestDiagnostics_NoCPU(t *testing.T) {
	hints := computeDiagnostics(&types.Snapshot{Memory: roomyMemory})
	if len(hints) != 1 || hints[0].Key != "no_cpu_data" || hints[0].Level != LevelCritical {
		t.Errorf("got %+v", hints)
	}
}

func TestDiagnostics_CPU(t *testing.T) {
	tests := []struct {
		name  string
		cpu   []types.CPULoad
		key   string
		level string
	}{
		{"peak warning", cores(85, 10), "cpu_peak", LevelWarning},
		{"peak critical", cores(99, 10), "cpu_peak", LevelCritical},
		{"load warning", cores(75, 75), "cpu_load", LevelWarning},
		{"load critical", cores(92, 92), "cpu_load", LevelCritical},
		{"imbalance", cores(70, 0, 0, 0), "cpu_imbalance", LevelInfo},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := keys(computeDiagnostics(&types.Snapshot{CPU: tc.cpu, Memory: roomyMemory}))
			if got[tc.key] != tc.level {
				t.Errorf("%s: got %q, want %q (all: %v)", tc.key, got[tc.key], tc.level, got)
			}
		})
	}
}

func TestDiagnostics_Memory(t *testing.T) {
	tight := &types.MemoryData{Total: 100 << 20, Available: 10 << 20, Used: 90 << 20}
	full := &types.MemoryData{Total: 100 << 20, Available: 2 << 20, Used: 98 << 20}

	if got := keys(computeDiagnostics(&types.Snapshot{CPU: cores(5), Memory: tight})); got["memory_pressure"] != LevelWarning {
		t.Errorf("90%% used: got %v", got)
	}
	if got := keys(computeDiagnostics(&types.Snapshot{CPU: cores(5), Memory: full})); got["memory_pressure"] != LevelCritical {
		t.Errorf("98%% used: got %v", got)
	}
	if got := keys(computeDiagnostics(&types.Snapshot{CPU: cores(5)})); got["memory_unknown"] != LevelInfo {
		t.Errorf("no memory: got %v", got)
	}
}

func TestDiagnostics_OrderedBySeverity(t *testing.T) {
	hints := computeDiagnostics(&types.Snapshot{CPU: cores(99, 0, 0, 0)})
	for i := 1; i < len(hints); i++ {
		if levelRank(hints[i].Level) > levelRank(hints[i-1].Level) {
			t.Errorf("hint %d (%s) more severe than hint %d (%s)", i, hints[i].Level, i-1, hints[i-1].Level)
		}
	}
	if worstLevel(hints) != LevelCritical {
		t.Errorf("worstLevel: got %q, want critical", worstLevel(hints))
	}
}

func TestWorstLevel_Empty(t *testing.T) {
	if got := worstLevel(nil); got != LevelOK {
		t.Errorf("got %q, want ok", got)
	}
}
