// Package def loads YAML animation-controller definitions and links them
// into the read-only graph the animator evaluates. Linking resolves every
// name reference to a direct object reference, assigns full paths
// bottom-up, and validates the result, so the runtime never has to handle
// a dangling reference.
package def

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Document struct {
	Name       string          `yaml:"name"`
	Parameters []ParameterSpec `yaml:"parameters"`
	Clips      []ClipSpec      `yaml:"clips"`
	Layers     []LayerSpec     `yaml:"layers"`
}

type ParameterSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"` // number, bool, trigger
	// Default accepts a number for number parameters or a bool for
	// bool/trigger parameters.
	Default any `yaml:"default"`
}

type ClipSpec struct {
	Name     string  `yaml:"name"`
	Duration float64 `yaml:"duration"`
}

type LayerSpec struct {
	Name    string           `yaml:"name"`
	Machine StateMachineSpec `yaml:"state_machine"`
}

type StateMachineSpec struct {
	Name           string             `yaml:"name"`
	Default        string             `yaml:"default"`
	States         []StateSpec        `yaml:"states"`
	Machines       []StateMachineSpec `yaml:"machines"`
	AnyTransitions []TransitionSpec   `yaml:"any_transitions"`
}

type StateSpec struct {
	Name        string           `yaml:"name"`
	Clip        string           `yaml:"clip"`
	BlendTree   *BlendTreeSpec   `yaml:"blend_tree"`
	Speed       float64          `yaml:"speed"`
	SpeedParam  string           `yaml:"speed_param"`
	Transitions []TransitionSpec `yaml:"transitions"`
}

type BlendTreeSpec struct {
	Type     string           `yaml:"type"` // simple_1d, direct, simple_directional_2d, freeform_directional_2d, freeform_cartesian_2d
	Param    string           `yaml:"param"`
	ParamY   string           `yaml:"param_y"`
	Children []BlendChildSpec `yaml:"children"`
}

type BlendChildSpec struct {
	Clip        string         `yaml:"clip"`
	BlendTree   *BlendTreeSpec `yaml:"blend_tree"`
	Threshold   float64        `yaml:"threshold"`
	X           float64        `yaml:"x"`
	Y           float64        `yaml:"y"`
	TimeScale   float64        `yaml:"time_scale"`
	DirectParam string         `yaml:"direct_param"`
}

type TransitionSpec struct {
	To            string          `yaml:"to"`
	ToMachine     string          `yaml:"to_machine"`
	Exit          bool            `yaml:"exit"`
	Conditions    []ConditionSpec `yaml:"conditions"`
	Interruption  string          `yaml:"interruption"` // none, source, destination, source_then_destination, destination_then_source
	HasExitTime   bool            `yaml:"has_exit_time"`
	ExitTime      float64         `yaml:"exit_time"`
	FixedDuration bool            `yaml:"fixed_duration"`
	Duration      float64         `yaml:"duration"`
	Offset        float64         `yaml:"offset"`
}

type ConditionSpec struct {
	Param     string  `yaml:"param"`
	Mode      string  `yaml:"mode"` // if, if_not, greater, less, equals, not_equal
	Threshold float64 `yaml:"threshold"`
}

// Parse unmarshals a controller definition.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("def: unmarshal: %w", err)
	}
	return &doc, nil
}

// Load reads and unmarshals a controller definition file.
func Load(filename string) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("def: load %s: %w", filename, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("def: parse %s: %w", filename, err)
	}
	return doc, nil
}

// Durations returns a clip-duration lookup over the document's clip table,
// usable as the animator's duration source.
func (d *Document) Durations() func(clip string) (float64, bool) {
	m := make(map[string]float64, len(d.Clips))
	for _, c := range d.Clips {
		m[c.Name] = c.Duration
	}
	return func(clip string) (float64, bool) {
		dur, ok := m[clip]
		return dur, ok
	}
}
