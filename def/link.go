package def

import (
	"fmt"

	"github.com/milk9111/animachine/graph"
)

// Link resolves the document into an immutable graph. Full paths are
// assigned bottom-up as parent.fullPath + "." + name; every state,
// machine, and parameter reference is checked.
func (d *Document) Link() (*graph.Controller, error) {
	ctrl := &graph.Controller{Name: d.Name}

	seen := make(map[string]bool, len(d.Parameters))
	for _, p := range d.Parameters {
		if p.Name == "" {
			return nil, fmt.Errorf("def: link: parameter with empty name")
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("def: link: duplicate parameter %q", p.Name)
		}
		seen[p.Name] = true
		gp, err := linkParameter(p)
		if err != nil {
			return nil, err
		}
		ctrl.Params = append(ctrl.Params, gp)
	}

	for i := range d.Layers {
		ls := &d.Layers[i]
		lk := &linker{}
		root, err := lk.buildMachine(&ls.Machine, nil)
		if err != nil {
			return nil, err
		}
		if err := lk.resolveMachine(&ls.Machine, root, root); err != nil {
			return nil, err
		}
		ctrl.Layers = append(ctrl.Layers, &graph.Layer{Name: ls.Name, Machine: root})
	}
	return ctrl, nil
}

func linkParameter(p ParameterSpec) (graph.Parameter, error) {
	gp := graph.Parameter{Name: p.Name}
	switch p.Type {
	case "", "number":
		gp.Kind = graph.ParamNumber
	case "bool":
		gp.Kind = graph.ParamBool
	case "trigger":
		gp.Kind = graph.ParamTrigger
	default:
		return gp, fmt.Errorf("def: link: parameter %q: unknown type %q", p.Name, p.Type)
	}
	switch v := p.Default.(type) {
	case nil:
	case bool:
		gp.DefaultBool = v
	case int:
		gp.DefaultNumber = float64(v)
	case float64:
		gp.DefaultNumber = v
	default:
		return gp, fmt.Errorf("def: link: parameter %q: unsupported default %T", p.Name, p.Default)
	}
	return gp, nil
}

// linker carries the name-building pass state for one layer.
type linker struct{}

// buildMachine constructs machines and states with full paths; references
// are resolved by a second pass once every node exists.
func (lk *linker) buildMachine(spec *StateMachineSpec, parent *graph.StateMachine) (*graph.StateMachine, error) {
	m := &graph.StateMachine{Name: spec.Name, Parent: parent}
	if parent != nil {
		m.FullPath = parent.FullPath + "." + spec.Name
	} else {
		m.FullPath = spec.Name
	}

	names := make(map[string]bool, len(spec.States)+len(spec.Machines))
	for i := range spec.States {
		ss := &spec.States[i]
		if ss.Name == "" {
			return nil, fmt.Errorf("def: link %s: state with empty name", m.FullPath)
		}
		if names[ss.Name] {
			return nil, fmt.Errorf("def: link %s: duplicate name %q", m.FullPath, ss.Name)
		}
		names[ss.Name] = true

		s := &graph.State{
			Name:       ss.Name,
			FullPath:   m.FullPath + "." + ss.Name,
			Machine:    m,
			Speed:      ss.Speed,
			SpeedParam: ss.SpeedParam,
		}
		if s.Speed == 0 {
			s.Speed = 1
		}
		motion, err := buildMotion(ss.Clip, ss.BlendTree, s.FullPath)
		if err != nil {
			return nil, err
		}
		s.Motion = motion
		m.States = append(m.States, s)
	}

	for i := range spec.Machines {
		ms := &spec.Machines[i]
		if names[ms.Name] {
			return nil, fmt.Errorf("def: link %s: duplicate name %q", m.FullPath, ms.Name)
		}
		names[ms.Name] = true
		sub, err := lk.buildMachine(ms, m)
		if err != nil {
			return nil, err
		}
		m.Machines = append(m.Machines, sub)
	}
	return m, nil
}

func buildMotion(clip string, tree *BlendTreeSpec, path string) (graph.Motion, error) {
	switch {
	case clip != "" && tree != nil:
		return nil, fmt.Errorf("def: link %s: both clip and blend_tree set", path)
	case clip != "":
		return &graph.Clip{Name: clip}, nil
	case tree != nil:
		return buildTree(tree, path)
	}
	return nil, nil
}

func buildTree(spec *BlendTreeSpec, path string) (*graph.BlendTree, error) {
	t := &graph.BlendTree{ParamX: spec.Param, ParamY: spec.ParamY}
	switch spec.Type {
	case "", "simple_1d":
		t.Type = graph.Blend1D
	case "direct":
		t.Type = graph.BlendDirect
	case "simple_directional_2d":
		t.Type = graph.BlendSimpleDirectional2D
	case "freeform_directional_2d":
		t.Type = graph.BlendFreeformDirectional2D
	case "freeform_cartesian_2d":
		t.Type = graph.BlendFreeformCartesian2D
	default:
		return nil, fmt.Errorf("def: link %s: unknown blend type %q", path, spec.Type)
	}

	for i := range spec.Children {
		cs := &spec.Children[i]
		motion, err := buildMotion(cs.Clip, cs.BlendTree, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		if motion == nil {
			return nil, fmt.Errorf("def: link %s[%d]: child has no motion", path, i)
		}
		if t.Type == graph.BlendDirect && cs.DirectParam == "" {
			return nil, fmt.Errorf("def: link %s[%d]: direct blend child missing direct_param", path, i)
		}
		ts := cs.TimeScale
		if ts == 0 {
			ts = 1
		}
		t.Children = append(t.Children, graph.BlendChild{
			Motion:      motion,
			Threshold:   cs.Threshold,
			X:           cs.X,
			Y:           cs.Y,
			TimeScale:   ts,
			DirectParam: cs.DirectParam,
		})
	}

	// 1D children must be ordered for the bracketing interpolation
	if t.Type == graph.Blend1D {
		for i := 1; i < len(t.Children); i++ {
			if t.Children[i].Threshold < t.Children[i-1].Threshold {
				return nil, fmt.Errorf("def: link %s: 1D thresholds not ascending", path)
			}
		}
	}
	return t, nil
}

// resolveMachine wires defaults, any-state transitions, and state
// transitions once the whole layer exists.
func (lk *linker) resolveMachine(spec *StateMachineSpec, m, root *graph.StateMachine) error {
	if spec.Default != "" {
		def := findState(m, spec.Default)
		if def == nil {
			return fmt.Errorf("def: link %s: unknown default state %q", m.FullPath, spec.Default)
		}
		m.Default = def
	} else if len(m.States) > 0 {
		m.Default = m.States[0]
	}

	for i := range spec.AnyTransitions {
		t, err := lk.resolveTransition(&spec.AnyTransitions[i], m, root)
		if err != nil {
			return err
		}
		m.AnyTransitions = append(m.AnyTransitions, t)
	}

	for i := range spec.States {
		ss := &spec.States[i]
		s := m.States[i]
		for j := range ss.Transitions {
			t, err := lk.resolveTransition(&ss.Transitions[j], m, root)
			if err != nil {
				return fmt.Errorf("%w (state %s)", err, s.FullPath)
			}
			s.Transitions = append(s.Transitions, t)
		}
	}

	for i := range spec.Machines {
		if err := lk.resolveMachine(&spec.Machines[i], m.Machines[i], root); err != nil {
			return err
		}
	}
	return nil
}

func (lk *linker) resolveTransition(spec *TransitionSpec, owner, root *graph.StateMachine) (*graph.Transition, error) {
	t := &graph.Transition{
		IsExit:           spec.Exit,
		HasExitTime:      spec.HasExitTime,
		ExitTime:         spec.ExitTime,
		HasFixedDuration: spec.FixedDuration,
		Duration:         spec.Duration,
		Offset:           spec.Offset,
	}

	targets := 0
	if spec.To != "" {
		targets++
	}
	if spec.ToMachine != "" {
		targets++
	}
	if spec.Exit {
		targets++
	}
	if targets != 1 {
		return nil, fmt.Errorf("def: link %s: transition needs exactly one of to, to_machine, exit", owner.FullPath)
	}

	if spec.To != "" {
		dest := findState(owner, spec.To)
		if dest == nil {
			dest = findState(root, spec.To)
		}
		if dest == nil {
			return nil, fmt.Errorf("def: link %s: unknown transition target %q", owner.FullPath, spec.To)
		}
		t.Dest = dest
	}
	if spec.ToMachine != "" {
		dest := findMachine(root, spec.ToMachine)
		if dest == nil {
			return nil, fmt.Errorf("def: link %s: unknown target machine %q", owner.FullPath, spec.ToMachine)
		}
		t.DestMachine = dest
	}

	switch spec.Interruption {
	case "", "none":
		t.Interruption = graph.InterruptNone
	case "source":
		t.Interruption = graph.InterruptSource
	case "destination":
		t.Interruption = graph.InterruptDestination
	case "source_then_destination":
		t.Interruption = graph.InterruptSourceThenDestination
	case "destination_then_source":
		t.Interruption = graph.InterruptDestinationThenSource
	default:
		return nil, fmt.Errorf("def: link %s: unknown interruption %q", owner.FullPath, spec.Interruption)
	}

	for _, cs := range spec.Conditions {
		c := graph.Condition{Param: cs.Param, Threshold: cs.Threshold}
		switch cs.Mode {
		case "", "if":
			c.Mode = graph.CondIf
		case "if_not":
			c.Mode = graph.CondIfNot
		case "greater":
			c.Mode = graph.CondGreater
		case "less":
			c.Mode = graph.CondLess
		case "equals":
			c.Mode = graph.CondEquals
		case "not_equal":
			c.Mode = graph.CondNotEqual
		default:
			return nil, fmt.Errorf("def: link %s: unknown condition mode %q", owner.FullPath, cs.Mode)
		}
		t.Conditions = append(t.Conditions, c)
	}
	return t, nil
}

// findState searches m and its descendants for a state by name or full
// path suffix relative to m (e.g. "combat.slash").
func findState(m *graph.StateMachine, name string) *graph.State {
	if m == nil {
		return nil
	}
	for _, s := range m.States {
		if s.Name == name || s.FullPath == m.FullPath+"."+name {
			return s
		}
	}
	for _, sub := range m.Machines {
		if found := findState(sub, trimPrefix(name, sub.Name)); found != nil {
			return found
		}
	}
	return nil
}

func findMachine(m *graph.StateMachine, name string) *graph.StateMachine {
	if m == nil {
		return nil
	}
	if m.Name == name {
		return m
	}
	for _, sub := range m.Machines {
		if found := findMachine(sub, name); found != nil {
			return found
		}
	}
	return nil
}

// trimPrefix strips a leading "machine." qualifier when it matches sub,
// leaving plain names untouched.
func trimPrefix(name, sub string) string {
	p := sub + "."
	if len(name) > len(p) && name[:len(p)] == p {
		return name[len(p):]
	}
	return name
}
