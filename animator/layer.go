package animator

import (
	"github.com/milk9111/animachine/common"
	"github.com/milk9111/animachine/graph"
)

type step int

const (
	stepInit step = iota
	stepRun
	stepTrans
	stepDisabled
)

func (s step) String() string {
	switch s {
	case stepInit:
		return "init"
	case stepRun:
		return "run"
	case stepTrans:
		return "trans"
	}
	return "disabled"
}

// maxStepsPerFrame bounds the pending-step loop. A frame should never
// cascade through more than this many zero-duration transitions; hitting
// the cap logs and truncates the frame instead of looping.
const maxStepsPerFrame = 10

// Layer evaluates one root state machine per frame. It owns three
// permanent playable slots: cur is the publicly visible state, next the
// transition destination, and mid the evaluation proxy for the state
// blending out (mirroring cur while no transition is in flight).
type Layer struct {
	ctrl  *Controller
	asset *graph.Layer
	index int

	step       step
	pending    step
	hasPending bool

	cur  *playable
	next *playable
	mid  *playable

	curTrans      runtimeTransition
	transElapsed  float64
	transDuration float64

	output         []BlendInfo
	machineScratch []*graph.StateMachine
}

func newLayer(c *Controller, asset *graph.Layer, index int) *Layer {
	l := &Layer{ctrl: c, asset: asset, index: index}
	l.cur = newPlayable(l)
	l.next = newPlayable(l)
	l.mid = newPlayable(l)
	return l
}

func (l *Layer) name() string {
	if l.asset != nil {
		return l.asset.Name
	}
	return ""
}

// Update drives the layer's step machine through one frame. Each loop
// iteration performs any pending step change (consuming no time), then
// runs the current step's update, subtracting however much of dt that step
// actually consumed. The remainder carries into the next step within the
// same call, so e.g. a transition finishing 3ms into a 10ms frame hands
// the other 7ms to the committed state.
func (l *Layer) Update(dt float64) {
	for i := 0; ; i++ {
		if i >= maxStepsPerFrame {
			l.ctrl.logger.Warn("layer step cap reached, truncating frame",
				"layer", l.name(), "cap", maxStepsPerFrame)
			return
		}
		if l.hasPending {
			l.enterStep(l.pending)
			l.hasPending = false
		}
		used := l.stepUpdate(dt)
		dt -= used
		if dt < 0 {
			dt = 0
		}
		if !l.hasPending {
			return
		}
	}
}

func (l *Layer) requestStep(s step) {
	l.pending = s
	l.hasPending = true
}

func (l *Layer) enterStep(s step) {
	switch s {
	case stepRun:
		l.commitNext()
	case stepTrans:
		l.beginTransition()
	}
	l.step = s
}

func (l *Layer) stepUpdate(dt float64) float64 {
	switch l.step {
	case stepInit:
		return l.updateInit(dt)
	case stepRun:
		return l.updateRun(dt)
	case stepTrans:
		return l.updateTrans(dt)
	}
	return dt
}

// updateInit resolves the layer's default state into the next slot. A
// layer with no default state is terminal: it never produces output.
func (l *Layer) updateInit(dt float64) float64 {
	var def *graph.State
	if l.asset != nil && l.asset.Machine != nil {
		def = l.asset.Machine.Default
	}
	if def == nil {
		l.step = stepDisabled
		return dt
	}
	l.next.setState(def, 0)
	l.requestStep(stepRun)
	return 0
}

// updateRun is steady-state playback: recompute the mid slot's weights,
// test outgoing transitions against dt, advance by the consumed portion,
// and mirror time/duration onto the public current state.
func (l *Layer) updateRun(dt float64) float64 {
	m := l.mid
	if !m.valid() {
		return dt
	}
	m.calcWeights(1)
	m.predict(dt)
	fired, used := l.findTransition(m.candidateList(), nil, dt)
	if fired == nil {
		used = dt
	}
	m.advance(used)
	l.emitRun()
	l.mirror()
	l.fireStateUpdate(l.cur.state, l.cur.time)
	if fired != nil {
		l.curTrans = *fired
		l.requestStep(stepTrans)
	}
	return used
}

// updateTrans blends the mid (source) and next (destination) slots against
// the in-flight transition, re-testing for interruptions while blending.
func (l *Layer) updateTrans(dt float64) float64 {
	t := l.curTrans.trans
	if t == nil || !l.next.valid() {
		l.requestStep(stepRun)
		return 0
	}

	remain := l.transDuration - l.transElapsed
	if remain < 0 {
		remain = 0
	}
	used := dt
	if used > remain {
		used = remain
	}

	l.mid.calcWeights(1)
	l.next.calcWeights(1)
	l.mid.predict(used)
	l.next.predict(used)

	if fired, fUsed := l.interruptTest(t.Interruption, used); fired != nil {
		cand := *fired // candidate slots are pooled; copy before any rebuild
		l.transElapsed += fUsed
		l.mid.advance(fUsed)
		l.next.advance(fUsed)
		l.emitCrossfade()
		l.mirror()
		l.fireStateUpdate(l.cur.state, l.cur.time)
		if cand.owner == l.next {
			// the destination's transition preempted: it becomes the
			// state blending out
			l.mid.adopt(l.next)
			cand.owner = l.mid
		}
		l.mid.interrupted = true
		l.curTrans = cand
		l.requestStep(stepTrans)
		return fUsed
	}

	l.transElapsed += used
	l.mid.advance(used)
	l.next.advance(used)
	l.emitCrossfade()
	l.mirror()
	l.fireStateUpdate(l.cur.state, l.cur.time)
	if l.transElapsed >= l.transDuration {
		l.requestStep(stepRun)
	}
	return used
}

// commitNext promotes the next slot to current, firing exit/enter
// lifecycle events and machine boundary events when the transition crossed
// into a different sub-machine.
func (l *Layer) commitNext() {
	if !l.next.valid() {
		return
	}
	var prevState *graph.State
	var prevMachine *graph.StateMachine
	if l.cur.valid() {
		prevState = l.cur.state
		prevMachine = l.cur.state.Machine
	}
	l.fireStateExit(prevState, l.cur.time)
	l.fireMachineEvents(prevMachine, l.next.state.Machine)
	l.cur.adopt(l.next)
	l.mid.adopt(l.next)
	l.next.reset()
	l.curTrans.set(nil, nil)
	l.transElapsed = 0
	l.transDuration = 0
	l.fireStateEnter(l.cur.state, l.cur.time)
}

// beginTransition resolves the fired transition's destination into the
// next slot and consumes any triggers its conditions referenced.
func (l *Layer) beginTransition() {
	t := l.curTrans.trans
	src := l.curTrans.owner
	if t == nil || src == nil {
		l.requestStep(stepRun)
		return
	}
	dest := t.Target(src.state)
	if t.HasFixedDuration {
		l.transDuration = t.Duration
	} else {
		l.transDuration = t.Duration * l.mid.duration
	}
	l.transElapsed = 0
	l.next.setState(dest, t.Offset)
	l.curTrans.hit = true
	l.consumeTriggers(t)
}

// findTransition tests candidates in order and returns the first that
// fires along with the time consumed before its fire point. The in-flight
// transition is never a candidate against itself.
func (l *Layer) findTransition(a, b []*runtimeTransition, dt float64) (*runtimeTransition, float64) {
	for _, c := range a {
		if c.trans == l.curTrans.trans {
			continue
		}
		if ok, used := c.check(dt, l.ctrl.params); ok {
			c.hit = true
			return c, used
		}
	}
	for _, c := range b {
		if c.trans == l.curTrans.trans {
			continue
		}
		if ok, used := c.check(dt, l.ctrl.params); ok {
			c.hit = true
			return c, used
		}
	}
	return nil, 0
}

// interruptTest gates which slots' outgoing transitions may preempt the
// in-flight blend. Any-state transitions always remain candidates; the
// interruption source only adds or orders the state-local sets.
func (l *Layer) interruptTest(src graph.InterruptionSource, dt float64) (*runtimeTransition, float64) {
	switch src {
	case graph.InterruptSource:
		return l.findTransition(l.mid.candidateList(), nil, dt)
	case graph.InterruptDestination:
		return l.findTransition(l.next.candidateList(), nil, dt)
	case graph.InterruptSourceThenDestination:
		return l.findTransition(l.mid.candidateList(), l.next.candidateList(), dt)
	case graph.InterruptDestinationThenSource:
		return l.findTransition(l.next.candidateList(), l.mid.candidateList(), dt)
	}
	list := l.mid.candidateList()
	return l.findTransition(list[:l.mid.anyCount], nil, dt)
}

func (l *Layer) consumeTriggers(t *graph.Transition) {
	for _, c := range t.Conditions {
		l.ctrl.params.consumeTrigger(c.Param)
	}
}

// mirror copies evaluation time and duration onto the public current slot
// while the mid slot still represents the same state.
func (l *Layer) mirror() {
	if l.cur.valid() && l.cur.state == l.mid.state {
		l.cur.time = l.mid.time
		l.cur.duration = l.mid.duration
	}
}

func (l *Layer) emitRun() {
	l.output = l.output[:0]
	for _, bi := range l.mid.blend {
		bi.Time = l.mid.time
		l.output = append(l.output, bi)
	}
}

// emitCrossfade produces the frame's exposed blend info as a linear
// cross-fade: source weights scaled by 1-progress, destination weights by
// progress.
func (l *Layer) emitCrossfade() {
	progress := 1.0
	if l.transDuration > 0 {
		progress = common.Clamp01(l.transElapsed / l.transDuration)
	}
	out := l.output[:0]
	for _, bi := range l.mid.blend {
		bi.Weight *= 1 - progress
		bi.Time = l.mid.time
		out = append(out, bi)
	}
	for _, bi := range l.next.blend {
		bi.Weight *= progress
		bi.Time = l.next.time
		out = append(out, bi)
	}
	l.output = out
}

// Output is the layer's blend info for the most recent update.
func (l *Layer) Output() []BlendInfo {
	return l.output
}

// LayerStatus is a read-only snapshot for HUDs and debugging.
type LayerStatus struct {
	Name      string
	Step      string
	State     string
	Time      float64
	NextState string
	Progress  float64
}

// Status reports the layer's current step, active state, and blend
// progress when a transition is in flight.
func (l *Layer) Status() LayerStatus {
	st := LayerStatus{Name: l.name(), Step: l.step.String()}
	if l.cur.valid() {
		st.State = l.cur.state.FullPath
		st.Time = l.cur.time
	}
	if l.step == stepTrans && l.next.valid() {
		st.NextState = l.next.state.FullPath
		if l.transDuration > 0 {
			st.Progress = common.Clamp01(l.transElapsed / l.transDuration)
		} else {
			st.Progress = 1
		}
	}
	return st
}
