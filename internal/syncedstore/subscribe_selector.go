// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package syncedstore

import (
	"reflect"

	"github.com/jmoyers/harness/internal/reduce"
)

// SubscribeSelector subscribes to store, invoking onChange with the result
// of select(state) each time that result differs from the previous one
// under equals. It fires once immediately with the current state so
// callers don't need a separate initial read. The returned func
// unsubscribes.
func SubscribeSelector[T any](
	store *Store,
	selectFn func(reduce.State) T,
	onChange func(T),
	equals func(a, b T) bool,
) (unsubscribe func()) {
	if equals == nil {
		equals = func(a, b T) bool { return identityEqual(a, b) }
	}

	last := selectFn(store.GetState())
	onChange(last)

	return store.Subscribe(func(state reduce.State) {
		next := selectFn(state)
		if equals(last, next) {
			return
		}
		last = next
		onChange(next)
	})
}

// identityEqual reports whether a and b are the same value by Go's
// closest equivalent to JS reference identity: slices and maps compare by
// backing-array/header pointer, pointers compare by address, and anything
// else falls back to reflect.DeepEqual since generic T gives no
// compile-time comparable constraint here.
func identityEqual[T any](a, b T) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() != vb.Kind() {
		return reflect.DeepEqual(a, b)
	}
	switch va.Kind() {
	case reflect.Slice, reflect.Map:
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() == vb.IsNil()
		}
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	case reflect.Ptr:
		return va.Pointer() == vb.Pointer()
	default:
		return reflect.DeepEqual(a, b)
	}
}
