// Copyright (c) 2026 Recordkit Team
// Recordkit - generic record services on top of Bun
// This source code is licensed under the MIT license found in the LICENSE file.

package record

import (
	"fmt"
	"strings"
)

type keyKind int

const (
	keyAtomic keyKind = iota
	keyTuple
	keyNamed
)

// KeyField is one component of a named composite key.
type KeyField struct {
	Name  string
	Value any
}

// Key is the canonical primary-key representation: an atomic value
// (integer or string), an ordered tuple of atomic values, or an ordered
// list of named atomic values. Plain int and string values are accepted
// anywhere a key is expected; Tuple and Named build the composite shapes.
type Key struct {
	kind  keyKind
	atom  any
	tuple []any
	named []KeyField
}

// Tuple builds a composite key whose values map positionally onto the
// model's primary-key columns.
func Tuple(values ...any) Key {
	return Key{kind: keyTuple, tuple: values}
}

// Named builds a composite key whose values map onto primary-key columns
// by column name. Field order is preserved for formatting.
func Named(fields ...KeyField) Key {
	return Key{kind: keyNamed, named: fields}
}

// canonicalKey normalizes a caller-supplied key into a Key. Integers and
// strings become atomic keys; Key values pass through. Anything else is
// an unrecognized key shape.
func canonicalKey(v any) (Key, error) {
	switch k := v.(type) {
	case Key:
		return k, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, string:
		return Key{kind: keyAtomic, atom: k}, nil
	}
	return Key{}, fmt.Errorf("%w: unrecognized primary key type %T", ErrInvalidArgument, v)
}

// FormatKey renders a primary key for diagnostics and error messages.
// Atomic keys render verbatim, tuple keys as "|"-joined values, named
// keys as "|"-joined name:value pairs.
func FormatKey(key any) (string, error) {
	k, err := canonicalKey(key)
	if err != nil {
		return "", err
	}
	switch k.kind {
	case keyAtomic:
		return fmt.Sprint(k.atom), nil
	case keyTuple:
		parts := make([]string, len(k.tuple))
		for i, v := range k.tuple {
			parts[i] = fmt.Sprint(v)
		}
		return strings.Join(parts, "|"), nil
	case keyNamed:
		parts := make([]string, len(k.named))
		for i, f := range k.named {
			parts[i] = fmt.Sprintf("%s:%v", f.Name, f.Value)
		}
		return strings.Join(parts, "|"), nil
	}
	return "", fmt.Errorf("%w: unrecognized primary key type", ErrInvalidArgument)
}

// formatKeyOrFallback is used in error paths where a formatting failure
// must not mask the original error.
func formatKeyOrFallback(key any) string {
	s, err := FormatKey(key)
	if err != nil {
		return fmt.Sprintf("%v", key)
	}
	return s
}
