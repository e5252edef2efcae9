// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package templatedef

import (
	"slices"
	"unicode/utf8"

	"github.com/discordia-project/discordia/lib/state"
)

// CategorySpec is the authored form of a category template.
type CategorySpec struct {
	Name     string        `yaml:"name" json:"name"`
	Position *int          `yaml:"position,omitempty" json:"position,omitempty"`
	Channels []ChannelSpec `yaml:"channels,omitempty" json:"channels,omitempty"`
}

// CategoryTemplate is a desired category and the channels inside it.
type CategoryTemplate struct {
	name        string
	position    int
	hasPosition bool
	channels    []ChannelTemplate
}

// NewCategory validates spec, including every nested channel.
func NewCategory(spec CategorySpec) (CategoryTemplate, error) {
	return buildCategory(spec, "")
}

func buildCategory(spec CategorySpec, path string) (CategoryTemplate, error) {
	length := utf8.RuneCountInString(spec.Name)
	if length < 1 || length > state.MaxNameLength {
		return CategoryTemplate{}, invalid(join(path, "name"), "must be 1-%d characters, got %d", state.MaxNameLength, length)
	}
	category := CategoryTemplate{name: spec.Name}
	if spec.Position != nil {
		if *spec.Position < 0 {
			return CategoryTemplate{}, invalid(join(path, "position"), "must be non-negative, got %d", *spec.Position)
		}
		category.position = *spec.Position
		category.hasPosition = true
	}
	for i, channelSpec := range spec.Channels {
		channel, err := buildChannel(channelSpec, index(join(path, "channels"), i))
		if err != nil {
			return CategoryTemplate{}, err
		}
		category.channels = append(category.channels, channel)
	}
	return category, nil
}

func (c CategoryTemplate) Name() string { return c.name }

// Position returns the requested position and whether one was set.
func (c CategoryTemplate) Position() (int, bool) { return c.position, c.hasPosition }

// Channels returns a copy of the category's channel templates.
func (c CategoryTemplate) Channels() []ChannelTemplate { return slices.Clone(c.channels) }

func (c CategoryTemplate) Spec() CategorySpec {
	spec := CategorySpec{Name: c.name}
	if c.hasPosition {
		position := c.position
		spec.Position = &position
	}
	for _, channel := range c.channels {
		spec.Channels = append(spec.Channels, channel.Spec())
	}
	return spec
}
