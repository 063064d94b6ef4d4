package animator

import "github.com/milk9111/animachine/graph"

// StateEvent carries the context of a state lifecycle callback.
type StateEvent struct {
	Layer      string
	LayerIndex int
	State      *graph.State
	Time       float64
}

// MachineEvent carries the context of a state-machine enter/exit callback.
type MachineEvent struct {
	Layer      string
	LayerIndex int
	Machine    *graph.StateMachine
}

// Listeners receives lifecycle callbacks, fired synchronously during
// Update. Any field may be nil.
type Listeners struct {
	MachineEnter func(MachineEvent)
	MachineExit  func(MachineEvent)
	StateEnter   func(StateEvent)
	StateExit    func(StateEvent)
	StateUpdate  func(StateEvent)
}

func (l *Layer) fireStateEnter(s *graph.State, t float64) {
	if s != nil && l.ctrl.listeners.StateEnter != nil {
		l.ctrl.listeners.StateEnter(StateEvent{Layer: l.name(), LayerIndex: l.index, State: s, Time: t})
	}
}

func (l *Layer) fireStateExit(s *graph.State, t float64) {
	if s != nil && l.ctrl.listeners.StateExit != nil {
		l.ctrl.listeners.StateExit(StateEvent{Layer: l.name(), LayerIndex: l.index, State: s, Time: t})
	}
}

func (l *Layer) fireStateUpdate(s *graph.State, t float64) {
	if s != nil && l.ctrl.listeners.StateUpdate != nil {
		l.ctrl.listeners.StateUpdate(StateEvent{Layer: l.name(), LayerIndex: l.index, State: s, Time: t})
	}
}

// fireMachineEvents walks the machine ancestry of the state being left and
// the state being entered, firing exit callbacks deepest-first for
// machines no longer active and enter callbacks shallowest-first for newly
// active ones. Machines shared by both chains fire nothing.
func (l *Layer) fireMachineEvents(from, to *graph.StateMachine) {
	if from == to {
		return
	}
	if l.ctrl.listeners.MachineExit != nil {
		for m := from; m != nil && !m.Contains(to); m = m.Parent {
			l.ctrl.listeners.MachineExit(MachineEvent{Layer: l.name(), LayerIndex: l.index, Machine: m})
		}
	}
	if l.ctrl.listeners.MachineEnter != nil {
		// collect then reverse so parents enter before children
		l.machineScratch = l.machineScratch[:0]
		for m := to; m != nil && !m.Contains(from); m = m.Parent {
			l.machineScratch = append(l.machineScratch, m)
		}
		for i := len(l.machineScratch) - 1; i >= 0; i-- {
			l.ctrl.listeners.MachineEnter(MachineEvent{Layer: l.name(), LayerIndex: l.index, Machine: l.machineScratch[i]})
		}
	}
}
