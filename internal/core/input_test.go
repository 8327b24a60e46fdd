package core

import "testing"

func TestInputFrame(t *testing.T) {
	var f InputFrame
	if f.Has(ActionUp) {
		t.Error("Zero frame should have no actions")
	}

	f.Set(ActionUp)
	f.Set(ActionServe)
	if !f.Has(ActionUp) || !f.Has(ActionServe) {
		t.Error("Set actions should be reported")
	}

	f.Clear()
	if f.Has(ActionUp) {
		t.Error("Clear should drop all actions")
	}
}

func TestInputFrameDirection(t *testing.T) {
	tests := []struct {
		name    string
		actions []Action
		want    float64
	}{
		{"none", nil, 0},
		{"up", []Action{ActionUp}, -1},
		{"down", []Action{ActionDown}, 1},
		{"both cancel", []Action{ActionUp, ActionDown}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewInputFrame()
			for _, a := range tt.actions {
				f.Set(a)
			}
			if got := f.Direction(); got != tt.want {
				t.Errorf("Direction() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestActionString(t *testing.T) {
	if ActionServe.String() != "Serve" || Action(99).String() != "Unknown" {
		t.Errorf("unexpected names: %s %s", ActionServe, Action(99))
	}
}
