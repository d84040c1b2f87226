// Copyright (c) 2026 Recordkit Team
// Recordkit - generic record services on top of Bun
// This source code is licensed under the MIT license found in the LICENSE file.

package record

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// Optional is a present-vs-absent wrapper for update-input fields. It
// distinguishes "field omitted" from "field set to its zero value", which
// is what makes partial updates possible: only fields that were explicitly
// Set participate in an update.
type Optional[T any] struct {
	val   T
	isSet bool
}

// Set returns an Optional holding v.
func Set[T any](v T) Optional[T] {
	return Optional[T]{val: v, isSet: true}
}

// Get returns the held value and whether it was set.
func (o Optional[T]) Get() (T, bool) {
	return o.val, o.isSet
}

// IsSet reports whether the value was explicitly set.
func (o Optional[T]) IsSet() bool {
	return o.isSet
}

// optionalValue lets reflection-based code detect Optional fields without
// knowing their type parameter.
type optionalValue interface {
	IsSet() bool
	anyValue() any
}

func (o Optional[T]) anyValue() any {
	return o.val
}

// Change is one column assignment extracted from an update input.
type Change struct {
	Column string
	Value  any
}

// changesOf extracts the explicitly set fields of an update input as
// column/value pairs. Only exported fields of type Optional[...] are
// considered; the column name comes from the field's `bun` tag when
// present, otherwise from Bun's underscore naming convention.
func changesOf(data any) ([]Change, error) {
	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, fmt.Errorf("%w: nil update input", ErrInvalidArgument)
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: update input must be a struct, got %T", ErrInvalidArgument, data)
	}

	t := v.Type()
	var changes []Change
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		ov, ok := v.Field(i).Interface().(optionalValue)
		if !ok {
			continue
		}
		if !ov.IsSet() {
			continue
		}
		changes = append(changes, Change{Column: columnName(sf), Value: ov.anyValue()})
	}
	return changes, nil
}

// columnName resolves the column a struct field maps to: the first
// component of the `bun` tag if set, else the underscored field name.
func columnName(sf reflect.StructField) string {
	if tag, ok := sf.Tag.Lookup("bun"); ok {
		name := strings.Split(tag, ",")[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return underscore(sf.Name)
}

// underscore converts CamelCase to snake_case the way Bun names columns.
// Runs of upper-case letters stay together, so "UserID" becomes "user_id"
// and "ID" stays "id".
func underscore(s string) string {
	r := []rune(s)
	var b strings.Builder
	for i, c := range r {
		if !unicode.IsUpper(c) {
			b.WriteRune(c)
			continue
		}
		prevLower := i > 0 && !unicode.IsUpper(r[i-1])
		nextLower := unicode.IsUpper(c) && i > 0 && unicode.IsUpper(r[i-1]) && i+1 < len(r) && unicode.IsLower(r[i+1])
		if prevLower || nextLower {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(c))
	}
	return b.String()
}
