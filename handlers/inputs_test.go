package handlers

import (
	"testing"

	"github.com/4cecoder/shipsync/models"
)

func newTracker() (*InputTracker, *[]models.PlayerInputs) {
	var sent []models.PlayerInputs
	inputs := &models.PlayerInputs{}
	return NewInputTracker(inputs, func(in models.PlayerInputs) { sent = append(sent, in) }), &sent
}

func TestTrackerRepeatedWritesEmitOnce(t *testing.T) {
	tr, sent := newTracker()
	for i := 0; i < 5; i++ {
		tr.SetAccel(1)
	}
	if len(*sent) != 1 {
		t.Fatalf("expected 1 emission, got %d", len(*sent))
	}
	tr.SetAccel(0)
	tr.SetAccel(0)
	if len(*sent) != 2 {
		t.Fatalf("expected 2 emissions, got %d", len(*sent))
	}
}

func TestTrackerRotateLeftEdges(t *testing.T) {
	tr, sent := newTracker()
	tr.Press(ControlLeft)
	if len(*sent) != 1 || (*sent)[0].Rot != -1 {
		t.Fatalf("press left: %+v", *sent)
	}
	tr.Release(ControlLeft)
	if len(*sent) != 2 || (*sent)[1].Rot != 0 {
		t.Fatalf("release left: %+v", *sent)
	}

	tr.Press(ControlLeft)
	tr.Press(ControlLeft)
	if len(*sent) != 3 {
		t.Fatalf("double press should emit once, got %d emissions", len(*sent))
	}
}

func TestTrackerControlMapping(t *testing.T) {
	cases := []struct {
		c    Control
		want models.PlayerInputs
	}{
		{ControlForward, models.PlayerInputs{Accel: 1}},
		{ControlBackward, models.PlayerInputs{Accel: -1}},
		{ControlRight, models.PlayerInputs{Rot: 1}},
		{ControlLeft, models.PlayerInputs{Rot: -1}},
		{ControlFire, models.PlayerInputs{Gun: 1}},
	}
	for _, c := range cases {
		tr, sent := newTracker()
		tr.Press(c.c)
		if len(*sent) != 1 || (*sent)[0] != c.want {
			t.Fatalf("press %v: got %+v, want %+v", c.c, *sent, c.want)
		}
		tr.Release(c.c)
		if tr.Inputs() != (models.PlayerInputs{}) {
			t.Fatalf("release %v left %+v", c.c, tr.Inputs())
		}
	}
}

func TestTrackerEmitsFullInputSet(t *testing.T) {
	tr, sent := newTracker()
	tr.Press(ControlForward)
	tr.Press(ControlRight)
	tr.Press(ControlFire)
	last := (*sent)[len(*sent)-1]
	if last != (models.PlayerInputs{Accel: 1, Rot: 1, Gun: 1}) {
		t.Fatalf("unexpected last emission %+v", last)
	}
}

func TestParseControl(t *testing.T) {
	for _, name := range []string{"forward", "Backward", " left ", "RIGHT", "fire"} {
		if _, err := ParseControl(name); err != nil {
			t.Fatalf("parse %q: %v", name, err)
		}
	}
	if _, err := ParseControl("jump"); err == nil {
		t.Fatalf("expected error for unknown control")
	}
	if ControlFire.String() != "fire" {
		t.Fatalf("unexpected name %q", ControlFire.String())
	}
}
