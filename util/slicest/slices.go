// Copyright (c) 2026 Recordkit Team
// Recordkit - generic record services on top of Bun
// This source code is licensed under the MIT license found in the LICENSE file.

// Package slicest holds small generic slice helpers shared across the
// module. Functions with an X suffix propagate errors and stop on the
// first failure; I-suffixed variants pass the element index through.
package slicest

// Conversion

// ToMap converts slice S into a map using fn to derive each key/value pair.
func ToMap[T any, K comparable, V any, S ~[]T](s S, fn func(T) (K, V)) map[K]V {
	result := make(map[K]V, len(s))
	for _, t := range s {
		k, v := fn(t)
		result[k] = v
	}
	return result
}

// Map

func MapXI[T, U any, S ~[]T](s S, fn func(int, T) (U, error)) ([]U, error) {
	result := make([]U, len(s))
	for i, v := range s {
		out, err := fn(i, v)
		if err != nil {
			return nil, err
		}
		result[i] = out
	}
	return result, nil
}

func MapX[T, U any, S ~[]T](s S, fn func(T) (U, error)) ([]U, error) {
	return MapXI(s, func(_ int, t T) (U, error) {
		return fn(t)
	})
}

func Map[T, U any, S ~[]T](s S, fn func(T) U) []U {
	result, _ := MapXI(s, func(_ int, t T) (U, error) {
		return fn(t), nil
	})
	return result
}

// Filter returns the elements of s for which keep returns true.
func Filter[T any, S ~[]T](s S, keep func(T) bool) S {
	out := make(S, 0, len(s))
	for _, t := range s {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
