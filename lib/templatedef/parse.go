// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package templatedef

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Format selects the template file syntax.
type Format int

const (
	FormatYAML Format = iota
	// FormatJSONC is JSON extended with // and /* */ comments and
	// trailing commas.
	FormatJSONC
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatJSONC:
		return "jsonc"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatFromPath picks the format by file extension: .yaml and .yml
// are YAML, .json and .jsonc are JSONC.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json", ".jsonc":
		return FormatJSONC, nil
	default:
		return 0, fmt.Errorf("templatedef: %s: unrecognized extension (want .yaml, .yml, .json, or .jsonc)", path)
	}
}

// ParseSpec decodes data into a ServerSpec without validating values.
// Unknown keys are rejected in both formats.
func ParseSpec(data []byte, format Format) (ServerSpec, error) {
	var spec ServerSpec
	switch format {
	case FormatYAML:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
			return ServerSpec{}, &ValidationError{Message: fmt.Sprintf("parsing yaml: %v", err)}
		}
	case FormatJSONC:
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
			return ServerSpec{}, &ValidationError{Message: fmt.Sprintf("parsing jsonc: %v", err)}
		}
	default:
		return ServerSpec{}, fmt.Errorf("templatedef: unsupported format %v", format)
	}
	return spec, nil
}

// Parse decodes and validates a server template. An empty document is
// an empty template.
func Parse(data []byte, format Format) (ServerTemplate, error) {
	spec, err := ParseSpec(data, format)
	if err != nil {
		return ServerTemplate{}, err
	}
	return NewServerFromSpec(spec)
}

// ReadFile reads a template file, choosing the format by extension.
func ReadFile(path string) (ServerTemplate, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return ServerTemplate{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ServerTemplate{}, fmt.Errorf("templatedef: reading %s: %w", path, err)
	}
	template, err := Parse(data, format)
	if err != nil {
		return ServerTemplate{}, fmt.Errorf("%s: %w", path, err)
	}
	return template, nil
}

// Marshal renders a template in the given format. JSONC output is
// plain indented JSON.
func Marshal(template ServerTemplate, format Format) ([]byte, error) {
	spec := template.Spec()
	switch format {
	case FormatYAML:
		var buffer bytes.Buffer
		encoder := yaml.NewEncoder(&buffer)
		encoder.SetIndent(2)
		if err := encoder.Encode(spec); err != nil {
			return nil, fmt.Errorf("templatedef: encoding yaml: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return nil, fmt.Errorf("templatedef: encoding yaml: %w", err)
		}
		return buffer.Bytes(), nil
	case FormatJSONC:
		data, err := json.MarshalIndent(spec, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("templatedef: encoding json: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("templatedef: unsupported format %v", format)
	}
}
