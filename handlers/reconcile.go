package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Reconcile applies a snapshot to every registered entity whose key is
// present in it. Entities missing from the snapshot are left alone and
// membership is never changed here; joins and leaves arrive as their own
// events. It returns how many entities were updated and any per-entity
// decode failures.
func Reconcile[K comparable, E any, H any](
	reg *Registry[K, E, H],
	snapshot map[string]json.RawMessage,
	keyString func(K) string,
	apply func(E, json.RawMessage) error,
) (int, error) {
	var (
		touched int
		errs    []error
	)
	for _, e := range reg.entries {
		raw, ok := snapshot[keyString(e.key)]
		if !ok {
			continue
		}
		if err := apply(e.entity, raw); err != nil {
			errs = append(errs, fmt.Errorf("%v: %w", e.key, err))
			continue
		}
		touched++
	}
	return touched, errors.Join(errs...)
}
