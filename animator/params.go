package animator

import "github.com/milk9111/animachine/graph"

// Params is the named-value table shared by every layer of a controller.
// It is written by game code between frames and read during evaluation;
// there is no concurrent writer during an Update, so no locking.
type Params struct {
	meta  map[string]graph.Parameter
	nums  map[string]float64
	bools map[string]bool
}

// NewParams builds a table and seeds the declared defaults exactly once.
// Undeclared names may still be set and read; they default to 0/false.
func NewParams(defs []graph.Parameter) *Params {
	p := &Params{
		meta:  make(map[string]graph.Parameter, len(defs)),
		nums:  make(map[string]float64),
		bools: make(map[string]bool),
	}
	for _, d := range defs {
		if d.Name == "" {
			continue
		}
		p.meta[d.Name] = d
		switch d.Kind {
		case graph.ParamNumber:
			p.nums[d.Name] = d.DefaultNumber
		default:
			p.bools[d.Name] = d.DefaultBool
		}
	}
	return p
}

func (p *Params) SetNumber(name string, v float64) {
	if p == nil {
		return
	}
	p.nums[name] = v
}

func (p *Params) SetBool(name string, v bool) {
	if p == nil {
		return
	}
	p.bools[name] = v
}

// SetTrigger raises a trigger; it stays raised until a transition whose
// conditions reference it fires.
func (p *Params) SetTrigger(name string) {
	p.SetBool(name, true)
}

func (p *Params) Number(name string) float64 {
	if p == nil {
		return 0
	}
	return p.nums[name]
}

func (p *Params) Bool(name string) bool {
	if p == nil {
		return false
	}
	return p.bools[name]
}

// Lookup returns the declared metadata for name, if any.
func (p *Params) Lookup(name string) (graph.Parameter, bool) {
	if p == nil {
		return graph.Parameter{}, false
	}
	d, ok := p.meta[name]
	return d, ok
}

// consumeTrigger clears name if it was declared as a trigger.
func (p *Params) consumeTrigger(name string) {
	if p == nil {
		return
	}
	if d, ok := p.meta[name]; ok && d.Kind == graph.ParamTrigger {
		p.bools[name] = false
	}
}
