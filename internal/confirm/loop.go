// Package confirm drives the human confirmation of a resolved tool with bounded retries.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/purelink/internal/resolver"
	"github.com/jonathan/purelink/internal/types"
)

// Attempt caps per mode
const (
	InteractiveMaxAttempts = 3
	AutomatedMaxAttempts   = 1
)

// ErrExhausted is reported when every attempt was rejected.
var ErrExhausted = errors.New("confirmation attempts exhausted")

// State is a confirmation loop state.
type State int

// Loop states
const (
	StateAwaitingInput State = iota
	StateResolved
	StateRejected
	StateConfirmed
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateAwaitingInput:
		return "awaiting-input"
	case StateResolved:
		return "resolved"
	case StateRejected:
		return "rejected"
	case StateConfirmed:
		return "confirmed"
	case StateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transitions happen from s.
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateExhausted
}

// Resolver is the resolution step the loop retries.
type Resolver interface {
	Resolve(ctx context.Context, text string) (*types.ToolResolution, error)
}

// Options configures a Loop.
type Options struct {
	// Interactive enables human prompts; otherwise the first resolution is auto-confirmed.
	Interactive bool
	// MaxAttempts overrides the per-mode cap when positive.
	MaxAttempts int
	Logger      *zap.Logger
}

// Loop confirms a resolution with a human or automatically.
type Loop struct {
	resolver    Resolver
	prompter    Prompter
	interactive bool
	maxAttempts int
	logger      *zap.Logger
}

// NewLoop creates a Loop. prompter may be nil when not interactive.
func NewLoop(r Resolver, prompter Prompter, opts Options) *Loop {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interactive := opts.Interactive && prompter != nil
	maxAttempts := AutomatedMaxAttempts
	if interactive {
		maxAttempts = InteractiveMaxAttempts
		if opts.MaxAttempts > 0 {
			maxAttempts = opts.MaxAttempts
		}
	}
	return &Loop{
		resolver:    r,
		prompter:    prompter,
		interactive: interactive,
		maxAttempts: maxAttempts,
		logger:      logger.Named("confirm"),
	}
}

// Outcome is the terminal result of a loop run.
type Outcome struct {
	State      State
	Attempts   int
	Input      string
	Resolution *types.ToolResolution
}

// Confirmed reports whether a resolution was accepted.
func (o *Outcome) Confirmed() bool {
	return o.State == StateConfirmed
}

// Err returns ErrExhausted for an unsuccessful outcome.
func (o *Outcome) Err() error {
	if o.Confirmed() {
		return nil
	}
	return ErrExhausted
}

// machine holds the mutable loop state between transitions.
type machine struct {
	state      State
	attempt    int
	input      string
	resolution *types.ToolResolution
}

// Run drives the loop from initialInput until it confirms or runs out of attempts.
// Errors are returned only for input failures, cancellation or context expiry.
func (l *Loop) Run(ctx context.Context, initialInput string) (*Outcome, error) {
	m := &machine{state: StateAwaitingInput, attempt: 1}
	for !m.state.Terminal() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		prev := m.state
		if err := l.step(ctx, m, initialInput); err != nil {
			return nil, err
		}
		l.logger.Debug("transition",
			zap.Stringer("from", prev),
			zap.Stringer("to", m.state),
			zap.Int("attempt", m.attempt))
	}

	out := &Outcome{State: m.state, Attempts: m.attempt, Input: m.input}
	if m.state == StateConfirmed {
		out.Resolution = m.resolution
	}
	return out, nil
}

func (l *Loop) step(ctx context.Context, m *machine, initialInput string) error {
	switch m.state {
	case StateAwaitingInput:
		text, err := l.acquire(ctx, m.attempt, initialInput)
		if err != nil {
			return err
		}
		m.input = text
		if text == "" {
			m.state = StateRejected
			return nil
		}
		res, err := l.resolver.Resolve(ctx, text)
		switch {
		case err == nil:
			m.resolution = res
			m.state = StateResolved
		case errors.Is(err, resolver.ErrUnresolved), errors.Is(err, resolver.ErrEmptyInput):
			l.logger.Info("attempt unresolved", zap.Int("attempt", m.attempt), zap.String("input", text))
			m.resolution = nil
			m.state = StateRejected
		default:
			return err
		}

	case StateResolved:
		ok, err := l.confirm(ctx, m.resolution)
		if err != nil {
			return err
		}
		if ok {
			m.state = StateConfirmed
		} else {
			m.state = StateRejected
		}

	case StateRejected:
		if m.attempt >= l.maxAttempts {
			m.state = StateExhausted
			return nil
		}
		m.attempt++
		m.state = StateAwaitingInput
	}
	return nil
}

// acquire returns the resolver input for an attempt: the primary input first,
// then a refinement built from supplementary fields.
func (l *Loop) acquire(ctx context.Context, attempt int, initialInput string) (string, error) {
	if attempt == 1 {
		if text := strings.TrimSpace(initialInput); text != "" {
			return text, nil
		}
		if !l.interactive {
			return "", nil
		}
		return l.prompter.PrimaryInput(ctx)
	}

	s, err := l.prompter.Supplementary(ctx, attempt, l.maxAttempts)
	if err != nil {
		return "", err
	}
	return s.Refinement(), nil
}

func (l *Loop) confirm(ctx context.Context, res *types.ToolResolution) (bool, error) {
	if !l.interactive {
		return true, nil
	}
	return l.prompter.Confirm(ctx, res)
}
