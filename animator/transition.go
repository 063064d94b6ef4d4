package animator

import (
	"math"

	"github.com/milk9111/animachine/graph"
)

// runtimeTransition pairs a transition asset with the slot whose outgoing
// set contributed it. The same struct serves both as a candidate-list
// element (pooled, reused) and as a layer's in-flight transition slot.
type runtimeTransition struct {
	owner *playable
	trans *graph.Transition
	hit   bool
}

func (r *runtimeTransition) set(owner *playable, t *graph.Transition) {
	r.owner = owner
	r.trans = t
	r.hit = false
}

func conditionsMet(t *graph.Transition, params *Params) bool {
	for _, c := range t.Conditions {
		switch c.Mode {
		case graph.CondIf:
			if !params.Bool(c.Param) {
				return false
			}
		case graph.CondIfNot:
			if params.Bool(c.Param) {
				return false
			}
		case graph.CondGreater:
			if params.Number(c.Param) <= c.Threshold {
				return false
			}
		case graph.CondLess:
			if params.Number(c.Param) >= c.Threshold {
				return false
			}
		case graph.CondEquals:
			if params.Number(c.Param) != c.Threshold {
				return false
			}
		case graph.CondNotEqual:
			if params.Number(c.Param) == c.Threshold {
				return false
			}
		}
	}
	return true
}

// check reports whether the candidate fires within a step of dt wall
// seconds, and how much of dt elapses before the fire point.
//
// A transition with neither exit time nor conditions is inert. A
// condition-only transition fires as soon as its conditions hold,
// consuming the whole step. An exit-time transition fires exactly when the
// owner's normalized time crosses the exit boundary: strictly before it at
// the start of the step, at or past it on the predicted end, consuming
// only the portion of dt needed to reach the boundary.
func (r *runtimeTransition) check(dt float64, params *Params) (bool, float64) {
	t := r.trans
	if t == nil || r.owner == nil || !r.owner.valid() {
		return false, 0
	}
	if !t.HasExitTime && len(t.Conditions) == 0 {
		return false, 0
	}
	if t.Target(r.owner.state) == nil {
		return false, 0
	}
	if !conditionsMet(t, params) {
		return false, 0
	}
	if !t.HasExitTime {
		return true, dt
	}

	st := r.owner
	rate := st.timeRate()
	if rate <= 0 {
		return false, 0
	}
	eTime := t.ExitTime
	if t.ExitTime <= 1 {
		// normalized exit times repeat every loop
		eTime = math.Floor(st.time) + t.ExitTime
	}
	if st.time >= eTime {
		eTime++
	}
	if st.time < eTime && st.nextTime >= eTime {
		return true, (eTime - st.time) / rate
	}
	return false, 0
}
