// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package templatedef

import (
	"fmt"
	"slices"
	"time"
)

// ServerSpec is the authored form of a server template and the root
// of a template file.
type ServerSpec struct {
	Categories            []CategorySpec `yaml:"categories,omitempty" json:"categories,omitempty"`
	UncategorizedChannels []ChannelSpec  `yaml:"uncategorized_channels,omitempty" json:"uncategorized_channels,omitempty"`
	Patterns              []PatternSpec  `yaml:"patterns,omitempty" json:"patterns,omitempty"`
}

// ServerTemplate is the complete desired structure of one server.
type ServerTemplate struct {
	categories    []CategoryTemplate
	uncategorized []ChannelTemplate
	patterns      []Pattern
}

// NewServer assembles a template from already-validated parts. The
// slices are copied. A nil pattern is an error.
func NewServer(categories []CategoryTemplate, uncategorized []ChannelTemplate, patterns []Pattern) (ServerTemplate, error) {
	for i, channel := range uncategorized {
		if channel == nil {
			return ServerTemplate{}, invalid(index("uncategorized_channels", i), "channel template is nil")
		}
	}
	for i, pattern := range patterns {
		if pattern == nil {
			return ServerTemplate{}, invalid(index("patterns", i), "pattern is nil")
		}
	}
	return ServerTemplate{
		categories:    slices.Clone(categories),
		uncategorized: slices.Clone(uncategorized),
		patterns:      slices.Clone(patterns),
	}, nil
}

// NewServerFromSpec validates spec and builds the template. The first
// invalid field is reported with its full path.
func NewServerFromSpec(spec ServerSpec) (ServerTemplate, error) {
	var template ServerTemplate
	for i, categorySpec := range spec.Categories {
		category, err := buildCategory(categorySpec, index("categories", i))
		if err != nil {
			return ServerTemplate{}, err
		}
		template.categories = append(template.categories, category)
	}
	for i, channelSpec := range spec.UncategorizedChannels {
		channel, err := buildChannel(channelSpec, index("uncategorized_channels", i))
		if err != nil {
			return ServerTemplate{}, err
		}
		template.uncategorized = append(template.uncategorized, channel)
	}
	for i, patternSpec := range spec.Patterns {
		pattern, err := buildPattern(patternSpec, index("patterns", i))
		if err != nil {
			return ServerTemplate{}, err
		}
		template.patterns = append(template.patterns, pattern)
	}
	return template, nil
}

// MustServer is like NewServerFromSpec but panics on error.
func MustServer(spec ServerSpec) ServerTemplate {
	template, err := NewServerFromSpec(spec)
	if err != nil {
		panic(fmt.Sprintf("templatedef: %v", err))
	}
	return template
}

// Categories returns a copy of the category templates.
func (s ServerTemplate) Categories() []CategoryTemplate { return slices.Clone(s.categories) }

// UncategorizedChannels returns a copy of the top-level channel
// templates. Pattern output is not included until Resolve.
func (s ServerTemplate) UncategorizedChannels() []ChannelTemplate { return slices.Clone(s.uncategorized) }

// Patterns returns a copy of the unexpanded patterns.
func (s ServerTemplate) Patterns() []Pattern { return slices.Clone(s.patterns) }

// Resolve returns a new template whose uncategorized channels are the
// static ones followed by each pattern's output in pattern order, and
// which has no patterns. Resolving a resolved template returns an
// equal template.
func (s ServerTemplate) Resolve(now time.Time) ServerTemplate {
	expanded := slices.Clone(s.uncategorized)
	for _, pattern := range s.patterns {
		expanded = append(expanded, pattern.Generate(now)...)
	}
	return ServerTemplate{
		categories:    slices.Clone(s.categories),
		uncategorized: expanded,
	}
}

// IsResolved reports whether the template has no patterns left.
func (s ServerTemplate) IsResolved() bool { return len(s.patterns) == 0 }

// ChannelCount returns the number of channel templates across
// categories and the top level, not counting pattern output.
func (s ServerTemplate) ChannelCount() int {
	count := len(s.uncategorized)
	for _, category := range s.categories {
		count += len(category.channels)
	}
	return count
}

func (s ServerTemplate) Spec() ServerSpec {
	var spec ServerSpec
	for _, category := range s.categories {
		spec.Categories = append(spec.Categories, category.Spec())
	}
	for _, channel := range s.uncategorized {
		spec.UncategorizedChannels = append(spec.UncategorizedChannels, channel.Spec())
	}
	for _, pattern := range s.patterns {
		spec.Patterns = append(spec.Patterns, pattern.Spec())
	}
	return spec
}
