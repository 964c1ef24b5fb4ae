package sampler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/topchat/topchat/pkg/types"
	"github.com/topchat/topchat/server/internal/config"
)

// Sample is one reading of the host: per-core utilization ordered by core
// index, and memory totals (nil when the source cannot report memory).
type Sample struct {
	CPU    []types.CPULoad
	Memory *types.MemoryData
}

// Source is implemented by every host metrics backend.
// Sample may be called from a single goroutine only.
type Source interface {
	Sample(ctx context.Context) (*Sample, error)
}

// New returns the Source selected by cfg.Source.
func New(cfg config.MetricsConfig) (Source, error) {
	switch cfg.Source {
	case config.SourceProcfs, "":
		src, err := NewProcfs(cfg.ProcPath)
		if err != nil {
			return nil, fmt.Errorf("sampler: %w", err)
		}
		return src, nil
	case config.SourceNodeExporter:
		return NewExporter(cfg.Endpoint, &http.Client{Timeout: cfg.Timeout}), nil
	default:
		return nil, fmt.Errorf("sampler: unsupported source %q", cfg.Source)
	}
}
