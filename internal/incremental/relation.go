// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package incremental implements the IncrementalEngine (spec §4.6): a
// single worker goroutine owning all derived-relation state, fed in strict
// arrival order by a separate reader goroutine, processing an
// {init,delta,snapshot} command protocol. The original (src/bin/vhdl_policyd.rs)
// gets its monotone-join and signed-weight retraction semantics from
// differential_dataflow/timely; Go has no wired equivalent, so Relation
// below reimplements the same weighted-multiset model directly: a fact
// present with positive weight exists, retracting it (weight -1) removes
// it once the net weight returns to zero, and the same fact asserted twice
// concurrently (weight 2) survives a single retraction — exactly the
// semantics differential dataflow gives for free.
package incremental

import "sort"

// Relation is a weighted multiset of T, keyed by a caller-supplied
// identity function. Net weight <= 0 means the fact is not currently
// present; Relation never stores a zero-weight entry (it deletes the key
// instead), keeping Items' cost proportional to the live set, not the
// history of deltas ever applied.
type Relation[T any] struct {
	keyFn   func(T) string
	weights map[string]int
	values  map[string]T
}

// NewRelation constructs a Relation using keyFn to derive each item's
// identity (typically a composite of its natural-key fields, case-folded
// per the global case-insensitivity invariant).
func NewRelation[T any](keyFn func(T) string) *Relation[T] {
	return &Relation[T]{keyFn: keyFn, weights: map[string]int{}, values: map[string]T{}}
}

// Apply adds weight to item's net weight (weight > 0 asserts, weight < 0
// retracts). Returns the item's new net weight.
func (r *Relation[T]) Apply(item T, weight int) int {
	k := r.keyFn(item)
	next := r.weights[k] + weight
	if next <= 0 {
		delete(r.weights, k)
		delete(r.values, k)
		return 0
	}
	r.weights[k] = next
	r.values[k] = item
	return next
}

// Items returns every currently-present (net weight > 0) value, in a
// stable order (sorted by key) so two epochs with the same live set
// produce byte-identical iteration order regardless of delta arrival
// order within the epoch.
func (r *Relation[T]) Items() []T {
	keys := make([]string, 0, len(r.values))
	for k := range r.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.values[k])
	}
	return out
}

// Len returns the number of currently-present items.
func (r *Relation[T]) Len() int { return len(r.values) }

// Clear removes every item, used when an `init` command replaces the
// entire fact set rather than deltaing it.
func (r *Relation[T]) Clear() {
	r.weights = map[string]int{}
	r.values = map[string]T{}
}
