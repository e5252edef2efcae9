// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snowflake

import (
	"fmt"
	"strconv"
	"time"
)

// Epoch is the platform epoch that snowflake timestamps count from.
var Epoch = time.UnixMilli(1420070400000).UTC()

// ID is a validated remote identifier. See the package documentation
// for the encoding rules.
type ID int64

// Parse validates and converts a decimal snowflake string.
func Parse(raw string) (ID, error) {
	if raw == "" {
		return 0, fmt.Errorf("empty snowflake")
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid snowflake %q: %w", raw, err)
	}
	return New(value)
}

// MustParse is like Parse but panics on error. Use in tests and
// static initialization where the input is known-valid.
func MustParse(raw string) ID {
	id, err := Parse(raw)
	if err != nil {
		panic(fmt.Sprintf("snowflake.MustParse(%q): %v", raw, err))
	}
	return id
}

// New validates an integer identifier. Values must be in 1..2^63-1.
func New(value int64) (ID, error) {
	if value <= 0 {
		return 0, fmt.Errorf("snowflake must be positive, got %d", value)
	}
	return ID(value), nil
}

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool { return id == 0 }

// Int64 returns the raw integer value.
func (id ID) Int64() int64 { return int64(id) }

// String returns the decimal form, or "" for the zero value.
func (id ID) String() string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(int64(id), 10)
}

// Time returns the creation time encoded in the identifier.
func (id ID) Time() time.Time {
	return Epoch.Add(time.Duration(int64(id)>>22) * time.Millisecond)
}

// FromTime returns the smallest identifier that could have been
// assigned at t. Useful as an "after" cursor when listing messages
// newer than a wall-clock instant.
func FromTime(t time.Time) ID {
	milliseconds := t.Sub(Epoch).Milliseconds()
	if milliseconds <= 0 {
		return 0
	}
	return ID(milliseconds << 22)
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Accepts the
// decimal string form; an empty input produces the zero value.
func (id *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*id = 0
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
