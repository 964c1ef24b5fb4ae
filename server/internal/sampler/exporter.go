package sampler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/topchat/topchat/pkg/types"
)

// node_exporter metric names we read.
const (
	nodeCPUSeconds   = "node_cpu_seconds_total"
	nodeMemTotal     = "node_memory_MemTotal_bytes"
	nodeMemFree      = "node_memory_MemFree_bytes"
	nodeMemAvailable = "node_memory_MemAvailable_bytes"
	nodeCPULabel     = "cpu"
	nodeCPUModeLabel = "mode"
)

// errNoCPUFamily is returned when the scrape has no node_cpu_seconds_total.
var errNoCPUFamily = errors.New(nodeCPUSeconds + " not found")

// Exporter samples a remote host through its node_exporter endpoint.
type Exporter struct {
	endpoint string
	client   *http.Client
	tracker  cpuTracker
}

// NewExporter returns an Exporter scraping endpoint with client.
func NewExporter(endpoint string, client *http.Client) *Exporter {
	return &Exporter{endpoint: endpoint, client: client}
}

// Sample scrapes the endpoint once.
func (e *Exporter) Sample(ctx context.Context) (*Sample, error) {
	mfs, err := fetchMetrics(ctx, e.client, e.endpoint)
	if err != nil {
		return nil, fmt.Errorf("node_exporter %q: %w", e.endpoint, err)
	}

	cur, err := cpuTimesFromFamily(mfs[nodeCPUSeconds])
	if err != nil {
		return nil, fmt.Errorf("node_exporter %q: %w", e.endpoint, err)
	}

	return &Sample{
		CPU:    e.tracker.loads(cur),
		Memory: memoryFromFamilies(mfs),
	}, nil
}

// cpuTimesFromFamily groups node_cpu_seconds_total samples by core.
// idle and iowait modes count as not busy.
func cpuTimesFromFamily(mf *dto.MetricFamily) (map[int]cpuTimes, error) {
	if mf == nil {
		return nil, errNoCPUFamily
	}
	cur := make(map[int]cpuTimes)
	for _, m := range mf.GetMetric() {
		core, err := strconv.Atoi(labelValue(m, nodeCPULabel))
		if err != nil {
			slog.Debug("sampler: skipping cpu sample without numeric core label", "err", err)
			continue
		}
		v := metricValue(m)
		t := cur[core]
		t.total += v
		switch labelValue(m, nodeCPUModeLabel) {
		case "idle", "iowait":
		default:
			t.busy += v
		}
		cur[core] = t
	}
	return cur, nil
}

// memoryFromFamilies returns nil when the exporter has no meminfo collector.
func memoryFromFamilies(mfs map[string]*dto.MetricFamily) *types.MemoryData {
	total := uint64(sumFamily(mfs[nodeMemTotal]))
	if total == 0 {
		return nil
	}
	free := uint64(sumFamily(mfs[nodeMemFree]))
	avail := uint64(sumFamily(mfs[nodeMemAvailable]))
	if mfs[nodeMemAvailable] == nil {
		avail = free
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

// fetchMetrics performs an HTTP GET to url and returns parsed metric families.
func fetchMetrics(ctx context.Context, client *http.Client, url string) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return parseMetrics(resp.Body)
}

// parseMetrics decodes a Prometheus text exposition from r into metric families.
// A partial result with a non-fatal parse warning is still returned successfully.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse prometheus text: %w", err)
	}
	return mfs, nil
}

// sumFamily adds up all values in a MetricFamily. Returns 0 if mf is nil.
func sumFamily(mf *dto.MetricFamily) float64 {
	if mf == nil {
		return 0
	}
	var total float64
	for _, m := range mf.GetMetric() {
		total += metricValue(m)
	}
	return total
}

func metricValue(m *dto.Metric) float64 {
	switch {
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	case m.Untyped != nil:
		return m.Untyped.GetValue()
	default:
		return 0
	}
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
