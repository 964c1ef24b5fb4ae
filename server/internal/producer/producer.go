package producer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/topchat/topchat/pkg/types"
	"github.com/topchat/topchat/server/internal/config"
	"github.com/topchat/topchat/server/internal/sampler"
	"github.com/topchat/topchat/server/internal/session"
	"github.com/topchat/topchat/server/internal/telemetry"
)

const tracerName = "github.com/topchat/topchat/server/internal/producer"

// Publisher receives every produced snapshot. Close is called once when the
// producer stops.
type Publisher interface {
	Publish(snap *types.Snapshot)
	Close()
}

// Observer is called with each published snapshot. It must not block.
type Observer func(snap *types.Snapshot)

// Producer builds and publishes one Snapshot per tick.
type Producer struct {
	source   sampler.Source
	registry *session.Registry
	inbox    *session.Inbox
	pub      Publisher
	metrics  *telemetry.Metrics
	tracer   trace.Tracer

	interval atomic.Int64
	idle     atomic.Int64

	mu        sync.RWMutex
	observers []Observer

	hostname func() (string, error)
	now      func() time.Time
}

// New creates a Producer. m may be nil.
func New(src sampler.Source, reg *session.Registry, inbox *session.Inbox, pub Publisher, cfg config.ProducerConfig, m *telemetry.Metrics) *Producer {
	p := &Producer{
		source:   src,
		registry: reg,
		inbox:    inbox,
		pub:      pub,
		metrics:  m,
		tracer:   otel.Tracer(tracerName),
		hostname: os.Hostname,
		now:      time.Now,
	}
	p.SetIntervals(cfg.Interval, cfg.IdleInterval)
	return p
}

// Observe adds fn to the observers called after every publish.
func (p *Producer) Observe(fn Observer) {
	p.mu.Lock()
	p.observers = append(p.observers, fn)
	p.mu.Unlock()
}

// SetIntervals changes the tick cadence. It takes effect after the current
// wait. Non-positive interval values are ignored; idle may be zero.
func (p *Producer) SetIntervals(interval, idle time.Duration) {
	if interval > 0 {
		p.interval.Store(int64(interval))
	}
	if idle >= 0 {
		p.idle.Store(int64(idle))
	}
}

// Intervals returns the current tick and idle intervals.
func (p *Producer) Intervals() (interval, idle time.Duration) {
	return time.Duration(p.interval.Load()), time.Duration(p.idle.Load())
}

// Run ticks until ctx is cancelled, then closes the publisher.
func (p *Producer) Run(ctx context.Context) {
	defer p.pub.Close()

	interval, idle := p.Intervals()
	slog.Info("producer: started", "interval", interval, "idle_interval", idle)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("producer: stopped")
			return
		case <-timer.C:
		}

		if err := p.Tick(ctx); err != nil {
			slog.Warn("producer: tick skipped", "err", err)
		}

		wait, idle := p.Intervals()
		if p.registry.IsEmpty() {
			wait += idle
		}
		timer.Reset(wait)
	}
}

// Tick samples the host and publishes one snapshot. A sampling error skips
// the tick without consuming a queued message.
func (p *Producer) Tick(ctx context.Context) error {
	ctx, span := p.tracer.Start(ctx, "producer.tick")
	defer span.End()

	sample, err := p.source.Sample(ctx)
	if err != nil {
		p.metrics.SampleFailed()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("producer: sample: %w", err)
	}

	count := p.registry.Count()
	snap := &types.Snapshot{
		Hostname:     p.host(),
		Datetime:     p.now().Format(types.DatetimeLayout),
		SessionCount: uint32(count),
		CPU:          sample.CPU,
		Memory:       sample.Memory,
	}
	if msg, ok := p.inbox.Pop(); ok {
		snap.Message = &msg
	}

	span.SetAttributes(
		attribute.Int("topchat.sessions", count),
		attribute.Int("topchat.cores", len(sample.CPU)),
		attribute.Bool("topchat.message", snap.Message != nil),
	)

	p.pub.Publish(snap)

	p.mu.RLock()
	observers := p.observers
	p.mu.RUnlock()
	for _, fn := range observers {
		fn(snap)
	}
	return nil
}

func (p *Producer) host() string {
	name, err := p.hostname()
	if err != nil {
		slog.Debug("producer: hostname unavailable", "err", err)
		return "unknown"
	}
	return name
}
