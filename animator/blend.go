package animator

import (
	"math"

	"github.com/milk9111/animachine/graph"
)

// calcWeights rebuilds the slot's blend info for the current parameter
// values, walking the motion tree depth-first with baseWeight propagated
// down, then recomputes the weighted duration. Weight-buffer offsets are
// stable across frames because the walk order never changes for a given
// state.
func (p *playable) calcWeights(baseWeight float64) {
	p.blend = p.blend[:0]
	if !p.valid() {
		p.duration = 0
		return
	}
	offset := 0
	p.evalMotion(p.state.Motion, baseWeight, 1, &offset)

	var d float64
	for i := range p.blend {
		d += p.blend[i].Weight * p.blend[i].Duration * p.blend[i].TimeScale
	}
	if baseWeight > 0 {
		d /= baseWeight
	}
	p.duration = d
}

func (p *playable) evalMotion(m graph.Motion, weight, timeScale float64, offset *int) {
	switch m := m.(type) {
	case *graph.Clip:
		d, ok := p.layer.ctrl.clipDuration(m.Name)
		if !ok {
			d = 1
		}
		p.blend = append(p.blend, BlendInfo{
			Clip:      m.Name,
			Weight:    weight,
			Time:      p.time,
			Duration:  d,
			TimeScale: timeScale,
		})
	case *graph.BlendTree:
		n := len(m.Children)
		if n == 0 {
			return
		}
		base := *offset
		*offset += n
		p.weights = growFloats(p.weights, base+n)
		ws := p.weights[base : base+n]

		if n == 1 {
			// single child always wins, regardless of blend type
			ws[0] = 1
		} else {
			params := p.layer.ctrl.params
			switch m.Type {
			case graph.Blend1D:
				blend1D(ws, m.Children, params.Number(m.ParamX))
			case graph.BlendDirect:
				blendDirect(ws, m.Children, params)
			default:
				p.layer.ctrl.sampler.Weights(m, params.Number(m.ParamX), params.Number(m.ParamY), ws)
			}
		}

		for i := range m.Children {
			c := &m.Children[i]
			ts := c.TimeScale
			if ts == 0 {
				ts = 1
			}
			p.evalMotion(c.Motion, weight*ws[i], timeScale*ts, offset)
		}
	}
}

// blend1D assigns all weight to the extreme child when the parameter is
// out of range, otherwise lerps between the bracketing pair. Children are
// ordered by threshold.
func blend1D(ws []float64, children []graph.BlendChild, param float64) {
	for i := range ws {
		ws[i] = 0
	}
	last := len(children) - 1
	if param <= children[0].Threshold {
		ws[0] = 1
		return
	}
	if param >= children[last].Threshold {
		ws[last] = 1
		return
	}
	for i := 0; i < last; i++ {
		lo, hi := children[i].Threshold, children[i+1].Threshold
		if param < lo || param >= hi {
			continue
		}
		if hi-lo <= 0 {
			ws[i] = 1
			return
		}
		ws[i] = (hi - param) / (hi - lo)
		ws[i+1] = 1 - ws[i]
		return
	}
	// thresholds are not strictly increasing; settle on the last child
	ws[last] = 1
}

// blendDirect reads each child's bound parameter, clamped at zero, and
// normalizes by the sum. A zero sum degrades to uniform weights instead of
// propagating NaN.
func blendDirect(ws []float64, children []graph.BlendChild, params *Params) {
	var sum float64
	for i := range children {
		v := params.Number(children[i].DirectParam)
		if v < 0 || math.IsNaN(v) {
			v = 0
		}
		ws[i] = v
		sum += v
	}
	if sum <= 0 {
		w := 1.0 / float64(len(ws))
		for i := range ws {
			ws[i] = w
		}
		return
	}
	for i := range ws {
		ws[i] /= sum
	}
}
