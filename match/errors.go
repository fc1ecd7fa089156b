// SPDX-License-Identifier: MIT

// Package match — sentinel errors, invariant failures and run status.
package match

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOptions indicates an out-of-range or unknown option value.
	ErrInvalidOptions = errors.New("match: invalid options")

	// ErrNilGraph indicates a nil query or model graph.
	ErrNilGraph = errors.New("match: nil graph")

	// ErrNilMeasurer indicates a Matcher constructed without a measurer.
	ErrNilMeasurer = errors.New("match: nil measurer")

	// ErrInvariant is matched by every *InvariantError.
	ErrInvariant = errors.New("match: invariant violation")
)

// InvariantError reports a broken contract: a similarity outside [0,1], a
// negative distance, a penalty outside [0,1] or a corrupted search state.
// These are programming errors of a measurer or of this package.
type InvariantError struct {
	Op  string
	Msg string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("match: invariant violation in %s: %s", e.Op, e.Msg)
}

// Is makes errors.Is(err, ErrInvariant) succeed.
func (e *InvariantError) Is(target error) bool { return target == ErrInvariant }

// invariant builds an *InvariantError; with strict set it panics instead.
func invariant(strict bool, op, format string, args ...any) error {
	err := &InvariantError{Op: op, Msg: fmt.Sprintf(format, args...)}
	if strict {
		panic(err)
	}
	return err
}

// Status tells how a run ended.
type Status int

const (
	// StatusComplete: the search finished within its budget.
	StatusComplete Status = iota
	// StatusBudgetExhausted: the solution-set cap stopped the search; the
	// result is the best complete solution found (possibly by greedy completion).
	StatusBudgetExhausted
	// StatusCancelled: the context was cancelled; the result holds the best
	// complete solution found before that, if any.
	StatusCancelled
	// StatusEmpty: no candidate pair had positive similarity.
	StatusEmpty
)

var statusNames = []string{"complete", "budget_exhausted", "cancelled", "empty"}

func (s Status) String() string { return enumName(statusNames, int(s)) }

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
