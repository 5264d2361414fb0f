// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"fmt"
	"slices"

	"github.com/pdiddy/docharvest/pkg/types"
)

// transitions lists the legal successors of each non-terminal state.
var transitions = map[types.DocumentState][]types.DocumentState{
	types.StateFetched:      {types.StateValidating},
	types.StateValidating:   {types.StateAnnotating, types.StateRepairing, types.StateFailed},
	types.StateRepairing:    {types.StateRevalidating, types.StateFailed},
	types.StateRevalidating: {types.StateAnnotating, types.StateFailed},
	types.StateAnnotating:   {types.StateDone, types.StateFailed},
}

// CanTransition reports whether from -> to is an edge of the pipeline.
func CanTransition(from, to types.DocumentState) bool {
	return slices.Contains(transitions[from], to)
}

// machine tracks one document through the pipeline. No state is entered
// twice, so a document is repaired at most once.
type machine struct {
	state types.DocumentState
	trace []types.DocumentState
}

func newMachine() *machine {
	return &machine{
		state: types.StateFetched,
		trace: []types.DocumentState{types.StateFetched},
	}
}

// to moves the machine to next. An illegal edge is a bug in the
// orchestrator, not a document failure, so it panics.
func (m *machine) to(next types.DocumentState) {
	if !CanTransition(m.state, next) {
		panic(fmt.Sprintf("harvest: illegal transition %s -> %s", m.state, next))
	}
	if slices.Contains(m.trace, next) {
		panic(fmt.Sprintf("harvest: state %s entered twice", next))
	}
	m.state = next
	m.trace = append(m.trace, next)
}

// Trace returns a copy of the states visited so far.
func (m *machine) Trace() []types.DocumentState {
	return slices.Clone(m.trace)
}
