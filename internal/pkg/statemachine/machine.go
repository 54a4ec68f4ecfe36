// Package statemachine holds transition tables for the status fields of
// orders, purchase orders, stock-takes and returns.
package statemachine

import (
	"errors"
	"fmt"
	"slices"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// Machine is an immutable table of allowed source -> target moves.
type Machine[S ~string] struct {
	name  string
	table map[S][]S
}

func New[S ~string](name string, table map[S][]S) *Machine[S] {
	cp := make(map[S][]S, len(table))
	for from, targets := range table {
		cp[from] = slices.Clone(targets)
	}
	return &Machine[S]{name: name, table: cp}
}

func (m *Machine[S]) Can(from, to S) bool {
	return slices.Contains(m.table[from], to)
}

// Transition returns an error wrapping ErrInvalidTransition when from -> to is not in the table.
func (m *Machine[S]) Transition(from, to S) error {
	if !m.Can(from, to) {
		return fmt.Errorf("%s: %s -> %s: %w", m.name, from, to, ErrInvalidTransition)
	}
	return nil
}

// Targets lists the states reachable from `from` in declaration order.
func (m *Machine[S]) Targets(from S) []S {
	return slices.Clone(m.table[from])
}

// IsTerminal reports whether no transition leaves `state`.
func (m *Machine[S]) IsTerminal(state S) bool {
	return len(m.table[state]) == 0
}
