package handlers

import (
	"encoding/json"
	"errors"
	"strconv"
	"testing"
)

type counter struct {
	id    int
	value int
}

func TestReconcileAppliesPresentKeysOnly(t *testing.T) {
	reg := NewRegistry[int, *counter, struct{}](func(c *counter) int { return c.id })
	for i := 1; i <= 3; i++ {
		_ = reg.Add(&counter{id: i}, struct{}{})
	}
	snap := map[string]json.RawMessage{
		"1":  json.RawMessage(`10`),
		"3":  json.RawMessage(`30`),
		"99": json.RawMessage(`990`),
	}
	touched, err := Reconcile(reg, snap, strconv.Itoa, func(c *counter, raw json.RawMessage) error {
		return json.Unmarshal(raw, &c.value)
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if touched != 2 {
		t.Fatalf("expected 2 touched, got %d", touched)
	}
	want := map[int]int{1: 10, 2: 0, 3: 30}
	reg.ForEach(func(c *counter, _ struct{}) {
		if c.value != want[c.id] {
			t.Fatalf("entity %d = %d, want %d", c.id, c.value, want[c.id])
		}
	})
	if reg.Len() != 3 {
		t.Fatalf("reconcile changed membership: %d", reg.Len())
	}
}

func TestReconcileCollectsErrors(t *testing.T) {
	reg := NewRegistry[int, *counter, struct{}](func(c *counter) int { return c.id })
	_ = reg.Add(&counter{id: 1}, struct{}{})
	_ = reg.Add(&counter{id: 2}, struct{}{})
	boom := errors.New("boom")

	touched, err := Reconcile(reg, map[string]json.RawMessage{"1": nil, "2": nil}, strconv.Itoa, func(c *counter, _ json.RawMessage) error {
		if c.id == 1 {
			return boom
		}
		c.value = 5
		return nil
	})
	if touched != 1 || !errors.Is(err, boom) {
		t.Fatalf("touched=%d err=%v", touched, err)
	}
	if c, _ := reg.Find(2); c.value != 5 {
		t.Fatalf("entity 2 should still be applied after entity 1 failed")
	}
}
