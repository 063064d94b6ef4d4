package animator

import (
	"testing"

	"github.com/milk9111/animachine/graph"
)

func TestCrossfadeProgression(t *testing.T) {
	m := newMachine("root")
	a := addState(m, "a", clip("a"))
	addState(m, "b", clip("b"))
	a.Transitions = append(a.Transitions, condTransition(m.States[1], "go", 0.5))

	ctrl := New(testAsset(m, graph.Parameter{Name: "go", Kind: graph.ParamTrigger}),
		testDurations(map[string]float64{"a": 1, "b": 1}),
		WithLogger(quietLogger()))

	ctrl.Update(0.1)
	if st := ctrl.layers[0].Status(); st.State != "root.a" || !approx(st.Time, 0.1) {
		t.Fatalf("after first frame: %+v", st)
	}

	ctrl.SetTrigger("go")
	ctrl.Update(0.1)
	if ctrl.Bool("go") {
		t.Fatalf("trigger should be consumed when the transition fires")
	}
	st := ctrl.layers[0].Status()
	if st.Step != "trans" || st.State != "root.a" || st.NextState != "root.b" {
		t.Fatalf("transition should be in flight: %+v", st)
	}

	// destination weight climbs linearly over the 0.5s blend
	wantB := []float64{0.2, 0.4, 0.6, 0.8}
	for _, want := range wantB {
		ctrl.Update(0.1)
		got := weightsByClip(ctrl.BlendInfo())
		if !approx(got["b"], want) || !approx(got["a"], 1-want) {
			t.Fatalf("crossfade weights = %v, want b=%v", got, want)
		}
	}

	// final frame completes the blend and commits within the same update
	ctrl.Update(0.1)
	st = ctrl.layers[0].Status()
	if st.Step != "run" || st.State != "root.b" {
		t.Fatalf("transition should have committed: %+v", st)
	}
	got := weightsByClip(ctrl.BlendInfo())
	if !approx(got["b"], 1) {
		t.Fatalf("committed weights = %v", got)
	}
}

func TestExitTimeRemainderFlowsIntoDestination(t *testing.T) {
	m := newMachine("root")
	a := addState(m, "a", clip("a"))
	b := addState(m, "b", clip("b"))
	a.Transitions = append(a.Transitions, &graph.Transition{
		Dest:             b,
		HasExitTime:      true,
		ExitTime:         0.95,
		HasFixedDuration: true,
		Duration:         0,
	})

	ctrl := New(testAsset(m), testDurations(map[string]float64{"a": 1, "b": 1}),
		WithLogger(quietLogger()))

	ctrl.Update(1.0)
	st := ctrl.layers[0].Status()
	if st.State != "root.b" {
		t.Fatalf("state = %s, want root.b", st.State)
	}
	// 0.95s reaches the exit boundary; the remaining 0.05s plays b
	if !approx(st.Time, 0.05) {
		t.Fatalf("destination time = %v, want 0.05", st.Time)
	}
}

func TestTransitionOffset(t *testing.T) {
	m := newMachine("root")
	a := addState(m, "a", clip("a"))
	b := addState(m, "b", clip("b"))
	tr := condTransition(b, "go", 0)
	tr.Offset = 0.25
	a.Transitions = append(a.Transitions, tr)

	ctrl := New(testAsset(m, graph.Parameter{Name: "go", Kind: graph.ParamTrigger}),
		testDurations(map[string]float64{"a": 1, "b": 1}),
		WithLogger(quietLogger()))

	ctrl.Update(0.1)
	ctrl.SetTrigger("go")
	ctrl.Update(0.1)

	st := ctrl.layers[0].Status()
	if st.State != "root.b" || !approx(st.Time, 0.25) {
		t.Fatalf("destination should start at its offset: %+v", st)
	}
}

func TestInterruptionGating(t *testing.T) {
	build := func(interruption graph.InterruptionSource) (*Controller, *graph.State) {
		m := newMachine("root")
		a := addState(m, "a", clip("a"))
		b := addState(m, "b", clip("b"))
		c := addState(m, "c", clip("c"))
		h := addState(m, "h", clip("h"))

		ab := condTransition(b, "go", 1.0)
		ab.Interruption = interruption
		a.Transitions = append(a.Transitions, ab)
		a.Transitions = append(a.Transitions, condTransition(c, "src", 0.2))
		b.Transitions = append(b.Transitions, condTransition(c, "dst", 0.2))
		m.AnyTransitions = append(m.AnyTransitions, condTransition(h, "hurt", 0.2))

		ctrl := New(testAsset(m,
			graph.Parameter{Name: "go", Kind: graph.ParamTrigger},
			graph.Parameter{Name: "src", Kind: graph.ParamBool},
			graph.Parameter{Name: "dst", Kind: graph.ParamBool},
			graph.Parameter{Name: "hurt", Kind: graph.ParamTrigger},
		), testDurations(map[string]float64{"a": 1, "b": 1, "c": 1, "h": 1}),
			WithLogger(quietLogger()))

		ctrl.Update(0.1)
		ctrl.SetTrigger("go")
		ctrl.Update(0.1)
		return ctrl, c
	}

	t.Run("none_ignores_state_transitions", func(t *testing.T) {
		ctrl, _ := build(graph.InterruptNone)
		ctrl.SetBool("src", true)
		ctrl.SetBool("dst", true)
		ctrl.Update(0.1)
		if st := ctrl.layers[0].Status(); st.NextState != "root.b" {
			t.Fatalf("blend should continue toward b: %+v", st)
		}
	})

	t.Run("none_still_honors_any_state", func(t *testing.T) {
		ctrl, _ := build(graph.InterruptNone)
		ctrl.SetTrigger("hurt")
		ctrl.Update(0.1)
		if st := ctrl.layers[0].Status(); st.NextState != "root.h" {
			t.Fatalf("any-state transition should interrupt: %+v", st)
		}
	})

	t.Run("source_retests_outgoing", func(t *testing.T) {
		ctrl, _ := build(graph.InterruptSource)
		ctrl.SetBool("src", true)
		ctrl.Update(0.1)
		st := ctrl.layers[0].Status()
		if st.State != "root.a" || st.NextState != "root.c" {
			t.Fatalf("source interruption should retarget to c: %+v", st)
		}
	})

	t.Run("source_ignores_destination", func(t *testing.T) {
		ctrl, _ := build(graph.InterruptSource)
		ctrl.SetBool("dst", true)
		ctrl.Update(0.1)
		if st := ctrl.layers[0].Status(); st.NextState != "root.b" {
			t.Fatalf("destination transition must not interrupt: %+v", st)
		}
	})

	t.Run("destination_adopts_next", func(t *testing.T) {
		ctrl, _ := build(graph.InterruptDestination)
		ctrl.SetBool("dst", true)
		ctrl.Update(0.1)
		st := ctrl.layers[0].Status()
		if st.NextState != "root.c" {
			t.Fatalf("destination interruption should retarget to c: %+v", st)
		}
		// b becomes the state blending out
		if mid := ctrl.layers[0].mid; !mid.valid() || mid.state.Name != "b" || !mid.interrupted {
			t.Fatalf("mid should hold the interrupted destination b")
		}
	})
}

func TestMachineLifecycleEvents(t *testing.T) {
	m := newMachine("root")
	a := addState(m, "a", clip("a"))
	sub := addSubMachine(m, "sub")
	s := addState(sub, "s", clip("s"))
	a.Transitions = append(a.Transitions, condTransition(s, "go", 0))
	s.Transitions = append(s.Transitions, &graph.Transition{
		IsExit:           true,
		HasExitTime:      true,
		ExitTime:         0.9,
		HasFixedDuration: true,
		Duration:         0,
	})

	var events []string
	listeners := Listeners{
		StateEnter:   func(ev StateEvent) { events = append(events, "enter "+ev.State.FullPath) },
		StateExit:    func(ev StateEvent) { events = append(events, "exit "+ev.State.FullPath) },
		MachineEnter: func(ev MachineEvent) { events = append(events, "menter "+ev.Machine.FullPath) },
		MachineExit:  func(ev MachineEvent) { events = append(events, "mexit "+ev.Machine.FullPath) },
	}

	ctrl := New(testAsset(m, graph.Parameter{Name: "go", Kind: graph.ParamTrigger}),
		testDurations(map[string]float64{"a": 1, "s": 1}),
		WithLogger(quietLogger()), WithListeners(listeners))

	ctrl.Update(0.1) // init commits a
	ctrl.SetTrigger("go")
	ctrl.Update(0.1) // a -> sub.s, zero-duration blend commits in-frame
	ctrl.Update(1.0) // s crosses its exit time and returns to root's default

	want := []string{
		"menter root",
		"enter root.a",
		"exit root.a",
		"menter root.sub",
		"enter root.sub.s",
		"exit root.sub.s",
		"mexit root.sub",
		"enter root.a",
	}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events[%d] = %q, want %q (all: %v)", i, events[i], want[i], events)
		}
	}
}

func TestSpeedParamScalesPlayback(t *testing.T) {
	m := newMachine("root")
	s := addState(m, "a", clip("a"))
	s.SpeedParam = "rate"

	ctrl := New(testAsset(m, graph.Parameter{Name: "rate", Kind: graph.ParamNumber, DefaultNumber: 2}),
		testDurations(map[string]float64{"a": 1}),
		WithLogger(quietLogger()))

	ctrl.Update(0.25)
	if st := ctrl.layers[0].Status(); !approx(st.Time, 0.5) {
		t.Fatalf("time = %v, want 0.5", st.Time)
	}
}

func TestLayerWithoutDefaultIsDisabled(t *testing.T) {
	m := newMachine("root")

	ctrl := New(testAsset(m), nil, WithLogger(quietLogger()))
	ctrl.Update(0.1)
	ctrl.Update(0.1)

	st := ctrl.layers[0].Status()
	if st.Step != "disabled" || st.State != "" {
		t.Fatalf("layer should be disabled: %+v", st)
	}
	if len(ctrl.BlendInfo()) != 0 {
		t.Fatalf("disabled layer must produce no output")
	}
}

func TestZeroDurationPingPongIsBounded(t *testing.T) {
	m := newMachine("root")
	a := addState(m, "a", clip("a"))
	b := addState(m, "b", clip("b"))
	a.Transitions = append(a.Transitions, condTransition(b, "flip", 0))
	b.Transitions = append(b.Transitions, condTransition(a, "flip", 0))

	ctrl := New(testAsset(m, graph.Parameter{Name: "flip", Kind: graph.ParamBool}),
		testDurations(map[string]float64{"a": 1, "b": 1}),
		WithLogger(quietLogger()))

	ctrl.SetBool("flip", true)
	ctrl.Update(0.1) // must hit the step cap and return, not spin forever

	st := ctrl.layers[0].Status()
	if st.State != "root.a" && st.State != "root.b" {
		t.Fatalf("layer landed in unexpected state: %+v", st)
	}
}

func TestNegativeDtIsIgnored(t *testing.T) {
	m := newMachine("root")
	addState(m, "a", clip("a"))

	ctrl := New(testAsset(m), testDurations(map[string]float64{"a": 1}), WithLogger(quietLogger()))
	ctrl.Update(0.3)
	ctrl.Update(-5)

	if st := ctrl.layers[0].Status(); !approx(st.Time, 0.3) {
		t.Fatalf("time = %v, want 0.3", st.Time)
	}
}
