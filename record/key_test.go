// Copyright (c) 2026 Recordkit Team
// Recordkit - generic record services on top of Bun
// This source code is licensed under the MIT license found in the LICENSE file.

package record

import (
	"errors"
	"testing"
)

func TestFormatKey(t *testing.T) {
	cases := []struct {
		name string
		key  any
		want string
	}{
		{"int", 42, "42"},
		{"int64", int64(7), "7"},
		{"string", "abc", "abc"},
		{"tuple", Tuple(1, "a"), "1|a"},
		{"named", Named(KeyField{"user_id", 1}, KeyField{"group_id", 9}), "user_id:1|group_id:9"},
		{"empty tuple", Tuple(), ""},
	}
	for _, tc := range cases {
		got, err := FormatKey(tc.key)
		if err != nil {
			t.Errorf("%s: FormatKey failed: %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestFormatKeyRejectsUnknownShapes(t *testing.T) {
	for _, key := range []any{3.14, struct{ A int }{1}, []int{1, 2}, nil} {
		if _, err := FormatKey(key); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("FormatKey(%v) must be ErrInvalidArgument, got: %v", key, err)
		}
	}
}

func TestCanonicalKeyPassesKeysThrough(t *testing.T) {
	in := Tuple(1, 2)
	out, err := canonicalKey(in)
	if err != nil {
		t.Fatalf("canonicalKey failed: %v", err)
	}
	if out.kind != keyTuple || len(out.tuple) != 2 {
		t.Errorf("Key value must pass through unchanged, got %+v", out)
	}
}
