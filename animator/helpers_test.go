package animator

import (
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/milk9111/animachine/graph"
)

func testAsset(machine *graph.StateMachine, params ...graph.Parameter) *graph.Controller {
	return &graph.Controller{
		Name:   "test",
		Params: params,
		Layers: []*graph.Layer{{Name: "base", Machine: machine}},
	}
}

func testDurations(m map[string]float64) DurationSource {
	return func(clip string) (float64, bool) {
		v, ok := m[clip]
		return v, ok
	}
}

func newMachine(name string) *graph.StateMachine {
	return &graph.StateMachine{Name: name, FullPath: name}
}

func addState(m *graph.StateMachine, name string, motion graph.Motion) *graph.State {
	s := &graph.State{
		Name:     name,
		FullPath: m.FullPath + "." + name,
		Machine:  m,
		Speed:    1,
		Motion:   motion,
	}
	m.States = append(m.States, s)
	if m.Default == nil {
		m.Default = s
	}
	return s
}

func addSubMachine(parent *graph.StateMachine, name string) *graph.StateMachine {
	m := &graph.StateMachine{
		Name:     name,
		FullPath: parent.FullPath + "." + name,
		Parent:   parent,
	}
	parent.Machines = append(parent.Machines, m)
	return m
}

func clip(name string) *graph.Clip {
	return &graph.Clip{Name: name}
}

func condTransition(dest *graph.State, param string, duration float64) *graph.Transition {
	return &graph.Transition{
		Dest:             dest,
		Conditions:       []graph.Condition{{Param: param, Mode: graph.CondIf}},
		HasFixedDuration: true,
		Duration:         duration,
	}
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func weightsByClip(out []BlendInfo) map[string]float64 {
	m := make(map[string]float64, len(out))
	for _, bi := range out {
		m[bi.Clip] += bi.Weight
	}
	return m
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}
