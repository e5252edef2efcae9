// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"

	"github.com/discordia-project/discordia/lib/state"
	"github.com/discordia-project/discordia/lib/templatedef"
)

// PlannedCreation is one entity a reconcile run would create.
type PlannedCreation struct {
	Kind state.Kind
	Name string

	// Category is the name of the parent category, or "" for a
	// category or an uncategorized channel.
	Category string

	// ChannelKind is set for channels.
	ChannelKind templatedef.ChannelKind

	Position    int
	HasPosition bool
	Topic       string
}

// Plan walks template exactly as Run would, without remote writes,
// and returns the creations a run would perform, in order. A name
// planned earlier in the walk counts as existing for later templates,
// matching what a run would find in the cache by then.
func (r *Reconciler) Plan(ctx context.Context, template templatedef.ServerTemplate) ([]PlannedCreation, error) {
	resolved := template.Resolve(r.clock.Now().In(r.location))

	planned := []PlannedCreation{}
	plannedCategories := make(map[string]bool)
	plannedChannels := make(map[string]bool)

	planChannel := func(channel templatedef.ChannelTemplate, category string) {
		name := templatedef.RemoteName(channel)
		if plannedChannels[name] || r.channelExists(name) {
			return
		}
		plannedChannels[name] = true
		position, hasPosition := channel.Position()
		planned = append(planned, PlannedCreation{
			Kind:        state.KindChannel,
			Name:        name,
			Category:    category,
			ChannelKind: channel.Kind(),
			Position:    position,
			HasPosition: hasPosition,
			Topic:       channel.Topic(),
		})
	}

	for _, category := range resolved.Categories() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !plannedCategories[category.Name()] && !r.categoryExists(category.Name()) {
			plannedCategories[category.Name()] = true
			position, hasPosition := category.Position()
			planned = append(planned, PlannedCreation{
				Kind:        state.KindCategory,
				Name:        category.Name(),
				Position:    position,
				HasPosition: hasPosition,
			})
		}
		for _, channel := range category.Channels() {
			planChannel(channel, category.Name())
		}
	}
	for _, channel := range resolved.UncategorizedChannels() {
		planChannel(channel, "")
	}
	return planned, nil
}

func (r *Reconciler) categoryExists(name string) bool {
	_, err := r.registry.CategoryByName(name, r.serverID)
	return err == nil
}

func (r *Reconciler) channelExists(name string) bool {
	_, err := r.registry.ChannelByName(name, r.serverID)
	return err == nil
}
