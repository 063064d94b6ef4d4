package animator

import (
	"testing"

	"github.com/milk9111/animachine/graph"
)

func TestParamsDefaults(t *testing.T) {
	p := NewParams([]graph.Parameter{
		{Name: "speed", Kind: graph.ParamNumber, DefaultNumber: 1.5},
		{Name: "crouch", Kind: graph.ParamBool, DefaultBool: true},
		{Name: "jump", Kind: graph.ParamTrigger},
	})

	if got := p.Number("speed"); got != 1.5 {
		t.Fatalf("speed default: got %v, want 1.5", got)
	}
	if !p.Bool("crouch") {
		t.Fatalf("crouch default should be true")
	}
	if p.Bool("jump") {
		t.Fatalf("trigger should start lowered")
	}
	if got := p.Number("undeclared"); got != 0 {
		t.Fatalf("undeclared number: got %v, want 0", got)
	}
}

func TestConsumeTriggerKinds(t *testing.T) {
	p := NewParams([]graph.Parameter{
		{Name: "jump", Kind: graph.ParamTrigger},
		{Name: "crouch", Kind: graph.ParamBool},
	})

	p.SetTrigger("jump")
	p.SetBool("crouch", true)

	p.consumeTrigger("jump")
	p.consumeTrigger("crouch")
	p.consumeTrigger("missing")

	if p.Bool("jump") {
		t.Fatalf("trigger should be lowered after consume")
	}
	if !p.Bool("crouch") {
		t.Fatalf("consume must not clear a plain bool")
	}
}

func TestLookup(t *testing.T) {
	p := NewParams([]graph.Parameter{{Name: "speed", Kind: graph.ParamNumber}})

	if d, ok := p.Lookup("speed"); !ok || d.Kind != graph.ParamNumber {
		t.Fatalf("Lookup(speed) = %+v, %v", d, ok)
	}
	if _, ok := p.Lookup("missing"); ok {
		t.Fatalf("Lookup(missing) should report absence")
	}
}
