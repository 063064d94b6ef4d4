// Package animator evaluates a linked animation state-machine graph
// against per-frame time steps. Each Update walks every layer's step
// machine, firing transitions and blending states, and the result is a
// flat weighted list of clips with normalized playback times — the data a
// skinned-animation sampler needs to pose a character.
//
// The evaluator is single-threaded and allocation-free after warm-up: all
// per-frame state lives in long-lived slots and growable buffers owned by
// the controller.
package animator

import (
	"github.com/charmbracelet/log"

	"github.com/milk9111/animachine/blend2d"
	"github.com/milk9111/animachine/graph"
)

// DurationSource resolves a clip id to its duration in seconds. Clips it
// cannot resolve play with duration 1.
type DurationSource func(clip string) (float64, bool)

// Sampler computes per-child weights for the 2D blend tree types. Returned
// weights must be non-negative and sum to 1. blend2d provides the default.
type Sampler interface {
	Weights(tree *graph.BlendTree, x, y float64, out []float64)
}

// Controller owns the layers and parameter table for one animation
// state-machine asset and is the single per-frame entry point.
type Controller struct {
	asset     *graph.Controller
	params    *Params
	layers    []*Layer
	durations DurationSource
	sampler   Sampler
	listeners Listeners
	logger    *log.Logger

	out      []BlendInfo
	outDirty bool
}

// Option configures a Controller at construction.
type Option func(*Controller)

// WithSampler replaces the default 2D blend weight sampler.
func WithSampler(s Sampler) Option {
	return func(c *Controller) {
		if s != nil {
			c.sampler = s
		}
	}
}

// WithListeners installs lifecycle callbacks.
func WithListeners(ls Listeners) Option {
	return func(c *Controller) { c.listeners = ls }
}

// WithLogger replaces the default logger used for runtime diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New builds a controller over a linked asset graph. durations supplies
// clip lengths; nil means every clip plays with duration 1. The graph must
// already be fully linked (see the def package) and is never mutated.
func New(asset *graph.Controller, durations DurationSource, opts ...Option) *Controller {
	c := &Controller{
		asset:     asset,
		durations: durations,
		sampler:   blend2d.New(),
		logger:    log.Default(),
	}
	var defs []graph.Parameter
	if asset != nil {
		defs = asset.Params
	}
	c.params = NewParams(defs)
	if asset != nil {
		for i, la := range asset.Layers {
			c.layers = append(c.layers, newLayer(c, la, i))
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Update advances every layer by dt seconds and invalidates the cached
// output. dt must be non-negative; negative values are treated as zero.
func (c *Controller) Update(dt float64) {
	if dt < 0 {
		dt = 0
	}
	for _, l := range c.layers {
		l.Update(dt)
	}
	c.outDirty = true
}

// BlendInfo returns the frame's flattened clip/weight/time list across all
// layers, rebuilt lazily and cached until the next Update. The returned
// slice is owned by the controller and valid until then.
func (c *Controller) BlendInfo() []BlendInfo {
	if c.outDirty {
		c.out = c.out[:0]
		for _, l := range c.layers {
			c.out = append(c.out, l.output...)
		}
		c.outDirty = false
	}
	return c.out
}

// Params exposes the controller's parameter table.
func (c *Controller) Params() *Params {
	return c.params
}

func (c *Controller) SetNumber(name string, v float64) { c.params.SetNumber(name, v) }
func (c *Controller) SetBool(name string, v bool)      { c.params.SetBool(name, v) }
func (c *Controller) SetTrigger(name string)           { c.params.SetTrigger(name) }
func (c *Controller) Number(name string) float64       { return c.params.Number(name) }
func (c *Controller) Bool(name string) bool            { return c.params.Bool(name) }

// Layers returns the controller's layers in evaluation order.
func (c *Controller) Layers() []*Layer {
	return c.layers
}

func (c *Controller) clipDuration(name string) (float64, bool) {
	if c.durations == nil {
		return 0, false
	}
	return c.durations(name)
}
