// Package fallback runs an ordered list of strategies until one succeeds.
//
// Go Pattern: Generics (added in Go 1.18) let one combinator serve every
// ladder in the client: extraction (file -> text), port discovery
// (source -> port) and generation (text -> Draft). Adding or removing a
// step is a one-line change to the slice passed in.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrExhausted is returned (wrapped) when every strategy failed.
var ErrExhausted = errors.New("all strategies failed")

// Strategy is one rung of a fallback ladder.
type Strategy[In, Out any] struct {
	Name string
	Run  func(ctx context.Context, in In) (Out, error)
}

// Attempt records the outcome of a failed strategy.
type Attempt struct {
	Name string
	Err  error
}

// ExhaustedError lists every failed attempt in the order they ran.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Name, a.Err))
	}
	return fmt.Sprintf("%s (%s)", ErrExhausted.Error(), strings.Join(parts, "; "))
}

// Is lets errors.Is(err, ErrExhausted) match.
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExhausted
}

// Names returns the names of the attempted strategies.
func (e *ExhaustedError) Names() []string {
	names := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		names = append(names, a.Name)
	}
	return names
}

// FirstSuccess runs strategies strictly in order and returns the first success,
// along with the failures that preceded it. Strategies never run concurrently.
// A cancelled context stops the ladder before the next strategy starts.
func FirstSuccess[In, Out any](ctx context.Context, in In, strategies ...Strategy[In, Out]) (Out, []Attempt, error) {
	var zero Out
	attempts := make([]Attempt, 0, len(strategies))

	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			attempts = append(attempts, Attempt{Name: s.Name, Err: err})
			return zero, attempts, &ExhaustedError{Attempts: attempts}
		}

		out, err := s.Run(ctx, in)
		if err == nil {
			return out, attempts, nil
		}
		attempts = append(attempts, Attempt{Name: s.Name, Err: err})
	}

	return zero, attempts, &ExhaustedError{Attempts: attempts}
}
