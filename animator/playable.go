package animator

import "github.com/milk9111/animachine/graph"

// BlendInfo is one weighted clip in a frame's output: the only data that
// crosses the controller boundary. Time is normalized clip progress,
// Duration the clip length in seconds.
type BlendInfo struct {
	Clip      string
	Weight    float64
	Time      float64
	Duration  float64
	TimeScale float64
}

// playable is one of the three permanent evaluation slots a layer owns
// (current, next, mid). A nil state means the slot is invalid and takes
// part in no computation. The slot is reset in place on state changes;
// its buffers only ever grow.
type playable struct {
	layer *Layer

	state       *graph.State
	time        float64 // normalized
	duration    float64 // seconds, weighted over active clips
	nextTime    float64 // predicted post-step time for exit-time tests
	interrupted bool

	blend   []BlendInfo
	weights []float64

	candidates pool[*runtimeTransition]
	candDirty  bool
	anyCount   int // any-state prefix length of the candidate list
}

func newPlayable(l *Layer) *playable {
	return &playable{
		layer:      l,
		candidates: pool[*runtimeTransition]{fill: func() *runtimeTransition { return &runtimeTransition{} }},
		candDirty:  true,
	}
}

func (p *playable) valid() bool {
	return p != nil && p.state != nil
}

// setState reassigns the slot to a state starting at the given normalized
// time, invalidating cached weights and transition candidates.
func (p *playable) setState(s *graph.State, startTime float64) {
	p.state = s
	p.time = startTime
	p.nextTime = startTime
	p.duration = 0
	p.interrupted = false
	p.blend = p.blend[:0]
	p.candDirty = true
}

// adopt copies src's state and progress into p, preserving src's evaluated
// blend info so the takeover does not cost a recompute.
func (p *playable) adopt(src *playable) {
	p.state = src.state
	p.time = src.time
	p.nextTime = src.nextTime
	p.duration = src.duration
	p.interrupted = false
	p.blend = append(p.blend[:0], src.blend...)
	p.candDirty = true
}

func (p *playable) reset() {
	p.setState(nil, 0)
}

// speed is the state's playback speed, scaled by its speed parameter when
// one is bound.
func (p *playable) speed() float64 {
	if !p.valid() {
		return 0
	}
	s := p.state.Speed
	if p.state.SpeedParam != "" {
		s *= p.layer.ctrl.params.Number(p.state.SpeedParam)
	}
	return s
}

// timeRate converts wall seconds to normalized time for this state.
func (p *playable) timeRate() float64 {
	if !p.valid() || p.duration <= 0 {
		return 0
	}
	return p.speed() / p.duration
}

// predict records where the state would land after dt wall seconds without
// committing the move. Exit-time tests compare time against nextTime.
func (p *playable) predict(dt float64) {
	p.nextTime = p.time + dt*p.timeRate()
}

// advance commits dt wall seconds of playback.
func (p *playable) advance(dt float64) {
	p.time += dt * p.timeRate()
	p.nextTime = p.time
}

// candidateList returns the slot's outgoing transition candidates:
// any-state transitions from the owning machine chain first, then the
// state's own transitions. The list is rebuilt only after a state change.
func (p *playable) candidateList() []*runtimeTransition {
	if !p.candDirty {
		return p.candidates.items
	}
	p.candDirty = false
	p.anyCount = 0
	if !p.valid() {
		return p.candidates.resize(0)
	}
	total := len(p.state.Transitions)
	for m := p.state.Machine; m != nil; m = m.Parent {
		total += len(m.AnyTransitions)
	}
	list := p.candidates.resize(total)
	i := 0
	for m := p.state.Machine; m != nil; m = m.Parent {
		for _, t := range m.AnyTransitions {
			list[i].set(p, t)
			i++
		}
	}
	p.anyCount = i
	for _, t := range p.state.Transitions {
		list[i].set(p, t)
		i++
	}
	return list
}
