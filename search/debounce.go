package search

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/deathrjj/age-github-search-tui/metrics"
)

// Trigger is the function a Gate invokes once its delay elapses.
type Trigger func(query string, args ...any)

// GateConfig holds the admission rules and delay of a Gate.
type GateConfig struct {
	Delay      time.Duration
	MinLength  int
	MaxLength  int
	AllowEmpty bool
}

// DefaultGateConfig returns the gate defaults.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		Delay:     500 * time.Millisecond,
		MinLength: 1,
		MaxLength: 100,
	}
}

// Drop reasons reported by Admit.
const (
	DropNone     = ""
	DropEmpty    = "empty"
	DropTooShort = "too_short"
	DropTooLong  = "too_long"
)

// Admit applies the admission rules in order and returns the reason the query
// would be dropped, or DropNone.
func (c GateConfig) Admit(query string) string {
	if !c.AllowEmpty && strings.TrimSpace(query) == "" {
		return DropEmpty
	}
	n := utf8.RuneCountInString(query)
	if n < c.MinLength {
		return DropTooShort
	}
	if c.MaxLength > 0 && n > c.MaxLength {
		return DropTooLong
	}
	return DropNone
}

// ShouldSearch reports whether query passes the admission rules of cfg.
func ShouldSearch(query string, cfg GateConfig) bool {
	return cfg.Admit(query) == DropNone
}

// Gate delays a trigger until input settles. Only the most recent admitted
// call within the delay window fires.
type Gate struct {
	trigger Trigger
	cfg     GateConfig
	logger  *zap.Logger

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// NewGate wraps trigger.
func NewGate(trigger Trigger, cfg GateConfig, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{trigger: trigger, cfg: cfg, logger: logger}
}

// Schedule arms the gate for query, replacing any armed timer. It returns false
// when the query was dropped by the admission rules.
func (g *Gate) Schedule(query string, args ...any) bool {
	if reason := g.cfg.Admit(query); reason != DropNone {
		metrics.DebounceDroppedTotal.WithLabelValues(reason).Inc()
		if reason == DropTooLong {
			g.logger.Warn("Search term exceeds max length",
				zap.Int("max_length", g.cfg.MaxLength),
				zap.Int("length", utf8.RuneCountInString(query)),
			)
		}
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopLocked()
	g.gen++
	gen := g.gen
	g.timer = time.AfterFunc(g.cfg.Delay, func() {
		g.mu.Lock()
		if g.gen != gen {
			// superseded or cancelled after the timer had already fired
			g.mu.Unlock()
			return
		}
		g.timer = nil
		g.mu.Unlock()

		g.trigger(query, args...)
	})
	return true
}

// Cancel clears any armed timer without invoking the trigger.
func (g *Gate) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopLocked()
	g.gen++
}

// Pending reports whether a call is armed.
func (g *Gate) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.timer != nil
}

func (g *Gate) stopLocked() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

// InputDebouncer routes keystrokes to one of two gates sharing a trigger: one
// tuned for typing and a slower one for deleting. Both gates are cancelled on
// every input so a short-delay gate can never fire after a newer keystroke on
// the other one.
type InputDebouncer struct {
	typing   *Gate
	deleting *Gate

	mu   sync.Mutex
	last int
}

// NewInputDebouncer builds the typing and deleting gates around trigger.
func NewInputDebouncer(trigger Trigger, typing, deleting GateConfig, logger *zap.Logger) *InputDebouncer {
	return &InputDebouncer{
		typing:   NewGate(trigger, typing, logger),
		deleting: NewGate(trigger, deleting, logger),
	}
}

// OnInput records the new input text and schedules it on the gate matching the
// edit direction.
func (d *InputDebouncer) OnInput(text string) bool {
	d.mu.Lock()
	n := utf8.RuneCountInString(text)
	deleting := n < d.last
	d.last = n
	d.mu.Unlock()

	d.Cancel()
	if deleting {
		return d.deleting.Schedule(text)
	}
	return d.typing.Schedule(text)
}

// Cancel cancels both gates.
func (d *InputDebouncer) Cancel() {
	d.typing.Cancel()
	d.deleting.Cancel()
}

// Pending reports whether either gate is armed.
func (d *InputDebouncer) Pending() bool {
	return d.typing.Pending() || d.deleting.Pending()
}
