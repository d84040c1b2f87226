// Copyright (c) 2026 Recordkit Team
// Recordkit - generic record services on top of Bun
// This source code is licensed under the MIT license found in the LICENSE file.

package record

import (
	"fmt"
	"reflect"

	"github.com/uptrace/bun"
)

// Hooks are the customization points of a Service. Both have reflective
// defaults; supply your own through WithPrepareForCreate and
// WithPrepareForUpdate when an input needs derived fields, defaults, or
// other side-effect-free transforms.
type Hooks[M, C, U any] struct {
	// PrepareForCreate converts a creation input into a model instance.
	PrepareForCreate func(C) (*M, error)
	// PrepareForUpdate extracts the explicitly set fields of an update
	// input as column/value changes. Omitted fields must not appear:
	// omission means "leave untouched".
	PrepareForUpdate func(U) ([]Change, error)
}

// ServiceOption customizes a Service at construction.
type ServiceOption[M, C, U any] func(*Hooks[M, C, U])

// WithPrepareForCreate overrides the creation hook.
func WithPrepareForCreate[M, C, U any](fn func(C) (*M, error)) ServiceOption[M, C, U] {
	return func(h *Hooks[M, C, U]) {
		h.PrepareForCreate = fn
	}
}

// WithPrepareForUpdate overrides the update-extraction hook.
func WithPrepareForUpdate[M, C, U any](fn func(U) ([]Change, error)) ServiceOption[M, C, U] {
	return func(h *Hooks[M, C, U]) {
		h.PrepareForUpdate = fn
	}
}

// defaultPrepareForCreate hydrates a model from a creation input by
// matching exported field names. Every set field of the input must have
// an assignable counterpart on the model; inputs that do not fit the
// model's shape are rejected.
func defaultPrepareForCreate[M, C any](data C) (*M, error) {
	item := new(M)

	// Creation input may simply be the model type itself.
	if m, ok := any(data).(M); ok {
		*item = m
		return item, nil
	}

	src := reflect.ValueOf(data)
	for src.Kind() == reflect.Pointer {
		if src.IsNil() {
			return nil, fmt.Errorf("%w: nil creation input", ErrInvalidArgument)
		}
		src = src.Elem()
	}
	if src.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: creation input must be a struct, got %T", ErrInvalidArgument, data)
	}

	dst := reflect.ValueOf(item).Elem()
	baseModel := reflect.TypeOf(bun.BaseModel{})
	for i := 0; i < src.NumField(); i++ {
		sf := src.Type().Field(i)
		if !sf.IsExported() || sf.Type == baseModel {
			continue
		}

		value := src.Field(i)
		// Optional fields contribute only when explicitly set.
		if ov, ok := value.Interface().(optionalValue); ok {
			if !ov.IsSet() {
				continue
			}
			value = reflect.ValueOf(ov.anyValue())
		}

		target := dst.FieldByName(sf.Name)
		if !target.IsValid() || !target.CanSet() {
			return nil, fmt.Errorf("%w: creation field %q has no counterpart on %s", ErrInvalidArgument, sf.Name, dst.Type())
		}
		if err := assignValue(target, value); err != nil {
			return nil, fmt.Errorf("%w: creation field %q: %v", ErrInvalidArgument, sf.Name, err)
		}
	}
	return item, nil
}

// assignValue sets target to value, converting when the types differ but
// are convertible.
func assignValue(target reflect.Value, value reflect.Value) error {
	if !value.IsValid() {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}
	if value.Type().AssignableTo(target.Type()) {
		target.Set(value)
		return nil
	}
	if numericKind(value.Kind()) && numericKind(target.Kind()) && value.Type().ConvertibleTo(target.Type()) {
		target.Set(value.Convert(target.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %s to %s", value.Type(), target.Type())
}

// numericKind gates reflect conversions to number-to-number ones, so an
// int never silently converts to a string of one rune.
func numericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
