package alerts

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/topchat/topchat/pkg/types"
	"github.com/topchat/topchat/server/internal/config"
)

const (
	defaultCooldown   = 15 * time.Minute
	maxHistoryLen     = 200
	recentWindowHours = 1
)

// Alert states.
const (
	StateFiring   = "firing"
	StateResolved = "resolved"
)

// Alert represents a single alert event produced by the rule engine.
type Alert struct {
	ID         string     `json:"id"`
	RuleName   string     `json:"rule_name"`
	Hostname   string     `json:"hostname"`
	Condition  string     `json:"condition"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Value      float64    `json:"value"`
	FiredAt    time.Time  `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	State      string     `json:"state"`
}

// rule is a configured AlertRule with its condition parsed.
type rule struct {
	config.AlertRule
	cond condition
}

// Engine evaluates alert rules against every published Snapshot and delivers
// webhook notifications when rules fire or resolve.
//
// Engine is safe for concurrent use.
type Engine struct {
	client *http.Client
	now    func() time.Time

	mu       sync.Mutex
	rules    []rule
	webhooks []config.WebhookConfig
	active   map[string]*Alert    // key: rule name
	lastFire map[string]time.Time // last fire time per rule (for cooldown)
	history  []*Alert             // recently resolved alerts
}

// New creates an Engine from the alert configuration.
// An Engine with no rules is valid; Evaluate becomes a no-op.
func New(cfg config.AlertsConfig) *Engine {
	e := &Engine{
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
		active:   make(map[string]*Alert),
		lastFire: make(map[string]time.Time),
	}
	e.SetRules(cfg)
	return e
}

// SetRules replaces the rules and webhooks. Rules whose condition cannot be
// parsed are skipped with a warning. Alerts of rules that no longer exist are
// resolved without notification.
func (e *Engine) SetRules(cfg config.AlertsConfig) {
	rules := make([]rule, 0, len(cfg.Rules))
	names := make(map[string]bool, len(cfg.Rules))
	for _, r := range cfg.Rules {
		cond, err := parseCondition(r.Condition)
		if err != nil {
			slog.Warn("alerts: skipping rule", "rule", r.Name, "err", err)
			continue
		}
		rules = append(rules, rule{AlertRule: r, cond: cond})
		names[r.Name] = true
	}

	now := e.now()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = rules
	e.webhooks = cfg.Webhooks
	for name, a := range e.active {
		if names[name] {
			continue
		}
		e.resolveLocked(name, a, now)
		delete(e.lastFire, name)
	}
	slog.Info("alerts: rules loaded", "rules", len(rules), "webhooks", len(cfg.Webhooks))
}

// Evaluate tests all rules against snap.
// Alerts that fire are stored and webhook delivery is triggered asynchronously.
// Alerts that were firing but whose condition is now false are resolved.
func (e *Engine) Evaluate(snap *types.Snapshot) {
	e.mu.Lock()
	rules := e.rules
	e.mu.Unlock()
	if len(rules) == 0 {
		return
	}

	now := e.now()
	for _, r := range rules {
		fires, value := r.cond.eval(snap)
		if fires {
			e.fire(r, snap, value, now)
		} else {
			e.resolve(r.Name, now)
		}
	}
}

func (e *Engine) fire(r rule, snap *types.Snapshot, value float64, now time.Time) {
	cooldown := r.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}

	e.mu.Lock()
	if last, ok := e.lastFire[r.Name]; ok && now.Sub(last) <= cooldown {
		e.mu.Unlock()
		return
	}

	sev := r.Severity
	if sev == "" {
		sev = "warning"
	}
	a := &Alert{
		ID:        uuid.NewString(),
		RuleName:  r.Name,
		Hostname:  snap.Hostname,
		Condition: r.Condition,
		Severity:  sev,
		Value:     value,
		Message: fmt.Sprintf("[%s] %s fired on %s: %s (value %.2f)",
			sev, r.Name, snap.Hostname, r.Condition, value),
		FiredAt: now,
		State:   StateFiring,
	}
	e.active[r.Name] = a
	e.lastFire[r.Name] = now
	alertCopy := *a
	webhooks := e.webhooks
	e.mu.Unlock()

	slog.Warn("alerts: alert fired",
		"rule", r.Name,
		"host", snap.Hostname,
		"value", value,
		"severity", sev,
	)
	go e.deliver(webhooks, &alertCopy)
}

func (e *Engine) resolve(name string, now time.Time) {
	e.mu.Lock()
	a, ok := e.active[name]
	if !ok {
		e.mu.Unlock()
		return
	}
	e.resolveLocked(name, a, now)
	alertCopy := *a
	webhooks := e.webhooks
	e.mu.Unlock()

	slog.Info("alerts: alert resolved", "rule", name)
	go e.deliver(webhooks, &alertCopy)
}

// resolveLocked moves a from active to history. e.mu must be held.
func (e *Engine) resolveLocked(name string, a *Alert, now time.Time) {
	resolved := now
	a.State = StateResolved
	a.ResolvedAt = &resolved
	delete(e.active, name)

	e.history = append(e.history, a)
	if len(e.history) > maxHistoryLen {
		e.history = e.history[len(e.history)-maxHistoryLen:]
	}
}

// Active returns copies of all currently firing alerts plus any alerts
// resolved within the past hour, sorted newest first.
func (e *Engine) Active() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-recentWindowHours * time.Hour)
	out := make([]*Alert, 0, len(e.active))

	for _, a := range e.active {
		cp := *a
		out = append(out, &cp)
	}
	for _, a := range e.history {
		if a.ResolvedAt != nil && a.ResolvedAt.After(cutoff) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FiredAt.After(out[j].FiredAt) })
	return out
}

// Firing returns the number of currently firing alerts.
func (e *Engine) Firing() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active)
}
