package alerts

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/batchlens/batchlens/internal/config"
	"github.com/batchlens/batchlens/internal/stats"
)

const (
	defaultCooldown   = 15 * time.Minute
	maxHistoryLen     = 200
	recentWindowHours = 1
)

// Alert represents a single alert event produced by the rule engine.
type Alert struct {
	ID         string     `json:"id"`
	RuleName   string     `json:"rule_name"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Value      float64    `json:"value"`
	FiredAt    time.Time  `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	State      string     `json:"state"` // "firing" | "resolved"
}

// Engine evaluates alert rules against KPI rollups and delivers webhook
// notifications when rules fire or resolve. There is one corpus, so
// alerts are keyed by rule name alone.
//
// Engine is safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	rules    []config.AlertRule
	webhooks []config.WebhookConfig
	active   map[string]*Alert
	lastFire map[string]time.Time
	history  []*Alert // recently resolved alerts
	client   *http.Client
	now      func() time.Time
}

// New creates an Engine from the alert configuration. An Engine with
// no rules is valid; Evaluate becomes a no-op.
func New(cfg config.AlertsConfig) *Engine {
	return &Engine{
		rules:    cfg.Rules,
		webhooks: cfg.Webhooks,
		active:   make(map[string]*Alert),
		lastFire: make(map[string]time.Time),
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}
}

// UpdateConfig swaps the rule set and webhook targets. Active alerts
// for rules that no longer exist resolve on the next Evaluate pass.
// Configuration hot reload calls this.
func (e *Engine) UpdateConfig(cfg config.AlertsConfig) {
	e.mu.Lock()
	e.rules = cfg.Rules
	e.webhooks = cfg.Webhooks
	e.mu.Unlock()
	slog.Info("alerts: configuration updated", "rules", len(cfg.Rules), "webhooks", len(cfg.Webhooks))
}

// Evaluate tests all configured rules against k. Alerts that fire are
// stored and webhook delivery is triggered asynchronously. Alerts whose
// condition is no longer true are resolved. Rules removed by a config
// update resolve here as well.
func (e *Engine) Evaluate(k stats.Kpis) {
	e.mu.Lock()
	rules := e.rules
	e.mu.Unlock()

	now := e.now()
	seen := make(map[string]bool, len(rules))

	for _, rule := range rules {
		seen[rule.Name] = true
		fires, value := evalCondition(rule.Condition, k)
		if fires {
			e.fire(rule, value, now)
		} else {
			e.resolve(rule.Name, now)
		}
	}

	// Resolve leftovers from rules that were removed.
	e.mu.Lock()
	var stale []string
	for name := range e.active {
		if !seen[name] {
			stale = append(stale, name)
		}
	}
	e.mu.Unlock()
	for _, name := range stale {
		e.resolve(name, now)
	}
}

// fire records a firing alert for rule unless it is still in cooldown.
func (e *Engine) fire(rule config.AlertRule, value float64, now time.Time) {
	cooldown := rule.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	sev := rule.Severity
	if sev == "" {
		sev = "warning"
	}

	e.mu.Lock()
	if now.Sub(e.lastFire[rule.Name]) <= cooldown {
		e.mu.Unlock()
		return
	}
	a := &Alert{
		ID:       fmt.Sprintf("%s:%d", rule.Name, now.UnixNano()),
		RuleName: rule.Name,
		Severity: sev,
		Value:    value,
		Message:  fmt.Sprintf("[%s] %s fired: %s (value %.2f)", sev, rule.Name, rule.Condition, value),
		FiredAt:  now,
		State:    "firing",
	}
	e.active[rule.Name] = a
	e.lastFire[rule.Name] = now
	alertCopy := *a
	e.mu.Unlock()

	slog.Warn("alerts: rule fired", "rule", rule.Name, "value", value, "severity", sev)
	go e.deliver(&alertCopy)
}

// resolve closes the active alert for ruleName if one is firing.
func (e *Engine) resolve(ruleName string, now time.Time) {
	e.mu.Lock()
	a, ok := e.active[ruleName]
	if !ok || a.State != "firing" {
		e.mu.Unlock()
		return
	}
	resolved := now
	a.State = "resolved"
	a.ResolvedAt = &resolved
	delete(e.active, ruleName)

	e.history = append(e.history, a)
	if len(e.history) > maxHistoryLen {
		e.history = e.history[len(e.history)-maxHistoryLen:]
	}
	alertCopy := *a
	e.mu.Unlock()

	slog.Info("alerts: rule resolved", "rule", ruleName)
	go e.deliver(&alertCopy)
}

// Active returns copies of all currently firing alerts plus any alerts
// resolved within the past hour.
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
	return out
}
