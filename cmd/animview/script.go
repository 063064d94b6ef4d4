package main

import (
	"fmt"
	"os"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/milk9111/animachine/animator"
	"github.com/milk9111/animachine/graph"
)

// driveDispatchScript is appended to user scripts so the compiled program
// calls drive(t) and exposes the returned map each run.
const driveDispatchScript = `
__out := drive(__t)
`

// scriptDriver runs a tengo script every frame to feed parameters. The
// script defines drive(t) returning a map of parameter name to value;
// numbers set number parameters, bools set bool or trigger parameters.
type scriptDriver struct {
	path     string
	compiled *tengo.Compiled
	elapsed  float64
}

func newScriptDriver(path string) (*scriptDriver, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("animview: read script %s: %w", path, err)
	}

	script := tengo.NewScript(append(src, []byte("\n"+driveDispatchScript)...))
	_ = script.Add("__t", 0.0)
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("animview: compile script %s: %w", path, err)
	}
	return &scriptDriver{path: path, compiled: compiled}, nil
}

func (d *scriptDriver) step(dt float64, ctrl *animator.Controller) error {
	if d == nil || d.compiled == nil || ctrl == nil {
		return nil
	}
	d.elapsed += dt
	if err := d.compiled.Set("__t", d.elapsed); err != nil {
		return err
	}
	if err := d.compiled.Run(); err != nil {
		return err
	}

	out := d.compiled.Get("__out").Map()
	params := ctrl.Params()
	for name, val := range out {
		meta, ok := params.Lookup(name)
		if !ok {
			continue
		}
		switch v := val.(type) {
		case float64:
			ctrl.SetNumber(name, v)
		case int64:
			ctrl.SetNumber(name, float64(v))
		case bool:
			if meta.Kind == graph.ParamTrigger {
				if v {
					ctrl.SetTrigger(name)
				}
			} else {
				ctrl.SetBool(name, v)
			}
		}
	}
	return nil
}
