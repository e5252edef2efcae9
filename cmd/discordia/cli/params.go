// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// FlagsFromParams returns a flag set bound to the tagged fields of
// params, a pointer to a struct. It panics if params cannot be bound;
// that is a programming error in the command definition.
func FlagsFromParams(name string, params any) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	if err := BindFlags(params, flagSet); err != nil {
		panic(fmt.Sprintf("cli: binding flags for %q: %v", name, err))
	}
	return flagSet
}

// BindFlags registers one flag per tagged field of params.
//
// Tags:
//
//   - flag:"name" or flag:"name,n" gives the long name and an optional
//     shorthand. Untagged fields are skipped.
//   - desc:"..." is the help text.
//   - default:"..." is parsed according to the field type.
//
// Supported field types are string, bool, int, int64, time.Duration,
// and []string. Exported embedded structs are bound recursively.
func BindFlags(params any, flagSet *pflag.FlagSet) error {
	value := reflect.ValueOf(params)
	if value.Kind() != reflect.Pointer || value.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("params must be a pointer to a struct, got %T", params)
	}
	return bindStruct(value.Elem(), flagSet)
}

func bindStruct(structValue reflect.Value, flagSet *pflag.FlagSet) error {
	structType := structValue.Type()
	for i := range structType.NumField() {
		field := structType.Field(i)
		fieldValue := structValue.Field(i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			if !field.IsExported() {
				return fmt.Errorf("embedded %s must be exported to bind its flags", field.Name)
			}
			if err := bindStruct(fieldValue, flagSet); err != nil {
				return fmt.Errorf("embedded %s: %w", field.Name, err)
			}
			continue
		}

		tag := field.Tag.Get("flag")
		if tag == "" {
			continue
		}
		if !field.IsExported() {
			return fmt.Errorf("field %s: flag fields must be exported", field.Name)
		}
		name, shorthand, _ := strings.Cut(tag, ",")
		if err := bindField(fieldValue.Addr().Interface(), flagSet, name, shorthand,
			field.Tag.Get("desc"), field.Tag.Get("default")); err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
	}
	return nil
}

func bindField(target any, flagSet *pflag.FlagSet, name, shorthand, usage, fallback string) error {
	switch target := target.(type) {
	case *string:
		flagSet.StringVarP(target, name, shorthand, fallback, usage)
	case *bool:
		value, err := parseDefault(fallback, strconv.ParseBool)
		if err != nil {
			return fmt.Errorf("default for --%s: %w", name, err)
		}
		flagSet.BoolVarP(target, name, shorthand, value, usage)
	case *int:
		value, err := parseDefault(fallback, strconv.Atoi)
		if err != nil {
			return fmt.Errorf("default for --%s: %w", name, err)
		}
		flagSet.IntVarP(target, name, shorthand, value, usage)
	case *int64:
		value, err := parseDefault(fallback, func(s string) (int64, error) {
			return strconv.ParseInt(s, 10, 64)
		})
		if err != nil {
			return fmt.Errorf("default for --%s: %w", name, err)
		}
		flagSet.Int64VarP(target, name, shorthand, value, usage)
	case *time.Duration:
		value, err := parseDefault(fallback, time.ParseDuration)
		if err != nil {
			return fmt.Errorf("default for --%s: %w", name, err)
		}
		flagSet.DurationVarP(target, name, shorthand, value, usage)
	case *[]string:
		var value []string
		if fallback != "" {
			value = strings.Split(fallback, ",")
		}
		flagSet.StringSliceVarP(target, name, shorthand, value, usage)
	default:
		return fmt.Errorf("unsupported type %T for flag --%s", target, name)
	}
	return nil
}

// parseDefault parses a default tag, treating the empty string as the
// zero value.
func parseDefault[T any](raw string, parse func(string) (T, error)) (T, error) {
	if raw == "" {
		var zero T
		return zero, nil
	}
	return parse(raw)
}
