// Package graph holds the linked, read-only animation state-machine asset
// graph. A graph is built once (normally by the def package) with every
// name reference resolved to a direct object reference; the evaluator never
// mutates it.
package graph

// ParamKind distinguishes parameter value types.
type ParamKind int

const (
	ParamNumber ParamKind = iota
	ParamBool
	ParamTrigger
)

// Parameter declares a named value read by conditions and blend trees.
// A trigger is a bool that the evaluator clears after a transition
// referencing it fires.
type Parameter struct {
	Name          string
	Kind          ParamKind
	DefaultNumber float64
	DefaultBool   bool
}

// Controller is the root asset: a parameter set plus one or more layers.
type Controller struct {
	Name   string
	Params []Parameter
	Layers []*Layer
}

// Layer names an independently evaluated root state machine.
type Layer struct {
	Name    string
	Machine *StateMachine
}

// StateMachine groups states and nested machines. Default is the state
// entered when the machine activates; AnyTransitions are candidates for
// every state owned by this machine or its descendants.
type StateMachine struct {
	Name     string
	FullPath string
	Parent   *StateMachine
	Machines []*StateMachine
	States   []*State
	Default  *State

	AnyTransitions []*Transition
}

// WalkStates visits every state in the machine and its descendants.
func (m *StateMachine) WalkStates(fn func(*State)) {
	if m == nil || fn == nil {
		return
	}
	for _, s := range m.States {
		fn(s)
	}
	for _, sub := range m.Machines {
		sub.WalkStates(fn)
	}
}

// Contains reports whether m is other or one of other's ancestors.
func (m *StateMachine) Contains(other *StateMachine) bool {
	for sm := other; sm != nil; sm = sm.Parent {
		if sm == m {
			return true
		}
	}
	return false
}

// State is a playable node: a motion (clip or blend tree), a playback speed
// optionally scaled by a number parameter, and outgoing transitions.
type State struct {
	Name     string
	FullPath string
	Machine  *StateMachine

	Motion     Motion
	Speed      float64
	SpeedParam string

	Transitions []*Transition
}

// InterruptionSource controls which state's outgoing transitions may
// preempt an in-flight transition.
type InterruptionSource int

const (
	InterruptNone InterruptionSource = iota
	InterruptSource
	InterruptDestination
	InterruptSourceThenDestination
	InterruptDestinationThenSource
)

// Transition connects a source state to a destination state or machine.
// Exactly one of Dest, DestMachine, or IsExit describes the target.
type Transition struct {
	Dest        *State
	DestMachine *StateMachine
	IsExit      bool

	Conditions   []Condition
	Interruption InterruptionSource

	HasExitTime bool
	ExitTime    float64

	// Duration is the blend length: seconds when HasFixedDuration,
	// otherwise a fraction of the source state's duration.
	HasFixedDuration bool
	Duration         float64

	// Offset is the destination's starting normalized time.
	Offset float64
}

// Target resolves the transition's destination given the source state.
// A transition into a machine lands on that machine's default state; an
// exit transition lands on the parent machine's default state. Returns nil
// when the transition has no reachable destination.
func (t *Transition) Target(from *State) *State {
	if t == nil {
		return nil
	}
	if t.Dest != nil {
		return t.Dest
	}
	if t.DestMachine != nil {
		return t.DestMachine.Default
	}
	if t.IsExit && from != nil && from.Machine != nil {
		m := from.Machine
		if m.Parent != nil {
			return m.Parent.Default
		}
		return m.Default
	}
	return nil
}

// ConditionMode selects the comparison a condition applies.
type ConditionMode int

const (
	CondIf ConditionMode = iota
	CondIfNot
	CondGreater
	CondLess
	CondEquals
	CondNotEqual
)

// Condition compares a named parameter against a threshold. CondIf and
// CondIfNot read the parameter as a bool and ignore Threshold.
type Condition struct {
	Param     string
	Mode      ConditionMode
	Threshold float64
}

// Motion is either a *Clip or a *BlendTree.
type Motion interface {
	isMotion()
}

// Clip references an animation clip by id. Duration lookup is external.
type Clip struct {
	Name string
}

func (*Clip) isMotion() {}

// BlendType selects the weight computation for a blend tree node.
type BlendType int

const (
	Blend1D BlendType = iota
	BlendDirect
	BlendSimpleDirectional2D
	BlendFreeformDirectional2D
	BlendFreeformCartesian2D
)

// BlendTree computes per-child weights from live parameters. ParamX drives
// 1D trees; ParamX/ParamY form the sample point for the 2D types. Direct
// trees ignore both and read each child's DirectParam.
type BlendTree struct {
	Type   BlendType
	ParamX string
	ParamY string

	Children []BlendChild
}

func (*BlendTree) isMotion() {}

// BlendChild is one branch of a blend tree. Threshold orders 1D children;
// X/Y is the 2D anchor point. A zero TimeScale is treated as 1 by the
// evaluator.
type BlendChild struct {
	Motion      Motion
	Threshold   float64
	X, Y        float64
	TimeScale   float64
	DirectParam string
}
