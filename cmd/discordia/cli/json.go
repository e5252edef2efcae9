// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"io"
	"os"
	"reflect"
)

// Stdout is where command results are written. Tests swap it.
var Stdout io.Writer = os.Stdout

// JSONOutput adds a --json flag to a params struct when embedded.
//
//	type listParams struct {
//	    cli.JSONOutput
//	    Limit int `flag:"limit" desc:"maximum entries"`
//	}
//
//	if done, err := params.EmitJSON(entries); done {
//	    return err
//	}
type JSONOutput struct {
	OutputJSON bool `flag:"json" desc:"print the result as JSON"`
}

// EmitJSON writes result to Stdout when --json was given and reports
// whether it did. A nil slice is written as [].
func (j *JSONOutput) EmitJSON(result any) (bool, error) {
	if !j.OutputJSON {
		return false, nil
	}
	return true, WriteJSON(result)
}

// WriteJSON writes value to Stdout as indented JSON.
func WriteJSON(value any) error {
	encoder := json.NewEncoder(Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(emptyIfNilSlice(value))
}

func emptyIfNilSlice(value any) any {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Slice && v.IsNil() {
		return reflect.MakeSlice(v.Type(), 0, 0).Interface()
	}
	return value
}
