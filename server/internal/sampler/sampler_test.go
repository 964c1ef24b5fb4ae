package sampler

import (
	"testing"
	"time"

	"github.com/topchat/topchat/server/internal/config"
)

func TestNew(t *testing.T) {
	dir := fakeProc(t, "cpu0 1 0 0 1 0 0 0 0 0 0\n", meminfo)

	src, err := New(config.MetricsConfig{Source: config.SourceProcfs, ProcPath: dir})
	if err != nil {
		t.Fatalf("New procfs: %v", err)
	}
	if _, ok := src.(*Procfs); !ok {
		t.Errorf("procfs source: got %T, want *Procfs", src)
	}

	src, err = New(config.MetricsConfig{
		Source:   config.SourceNodeExporter,
		Endpoint: "http://127.0.0.1:9100/metrics",
		Timeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("New node_exporter: %v", err)
	}
	if _, ok := src.(*Exporter); !ok {
		t.Errorf("node_exporter source: got %T, want *Exporter", src)
	}

	if _, err := New(config.MetricsConfig{Source: "snmp"}); err == nil {
		t.Error("expected error for unknown source, got nil")
	}
	if _, err := New(config.MetricsConfig{Source: config.SourceProcfs, ProcPath: "/nonexistent/proc"}); err == nil {
		t.Error("expected error for missing proc path, got nil")
	}
}
