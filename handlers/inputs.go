package handlers

import (
	"fmt"
	"strings"

	"github.com/4cecoder/shipsync/models"
)

type Control int

const (
	ControlForward Control = iota
	ControlBackward
	ControlLeft
	ControlRight
	ControlFire
)

var controlNames = [...]string{
	ControlForward:  "forward",
	ControlBackward: "backward",
	ControlLeft:     "left",
	ControlRight:    "right",
	ControlFire:     "fire",
}

func ParseControl(name string) (Control, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for c, n := range controlNames {
		if n == name {
			return Control(c), nil
		}
	}
	return 0, fmt.Errorf("unknown control %q", name)
}

func (c Control) String() string {
	if c >= 0 && int(c) < len(controlNames) {
		return controlNames[c]
	}
	return fmt.Sprintf("control(%d)", int(c))
}

// InputTracker turns control edges into intent writes on the local
// player's inputs. Only writes that change a value reach emit.
type InputTracker struct {
	inputs *models.PlayerInputs
	emit   func(models.PlayerInputs)
}

func NewInputTracker(inputs *models.PlayerInputs, emit func(models.PlayerInputs)) *InputTracker {
	return &InputTracker{inputs: inputs, emit: emit}
}

func (t *InputTracker) Press(c Control) {
	switch c {
	case ControlForward:
		t.SetAccel(1)
	case ControlBackward:
		t.SetAccel(-1)
	case ControlRight:
		t.SetRot(1)
	case ControlLeft:
		t.SetRot(-1)
	case ControlFire:
		t.SetGun(1)
	}
}

func (t *InputTracker) Release(c Control) {
	switch c {
	case ControlForward, ControlBackward:
		t.SetAccel(0)
	case ControlLeft, ControlRight:
		t.SetRot(0)
	case ControlFire:
		t.SetGun(0)
	}
}

func (t *InputTracker) SetAccel(v int) {
	if v == t.inputs.Accel {
		return
	}
	t.inputs.Accel = v
	t.changed()
}

func (t *InputTracker) SetRot(v int) {
	if v == t.inputs.Rot {
		return
	}
	t.inputs.Rot = v
	t.changed()
}

func (t *InputTracker) SetGun(v int) {
	if v == t.inputs.Gun {
		return
	}
	t.inputs.Gun = v
	t.changed()
}

func (t *InputTracker) Inputs() models.PlayerInputs {
	return *t.inputs
}

func (t *InputTracker) changed() {
	if t.emit != nil {
		t.emit(*t.inputs)
	}
}
