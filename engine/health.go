// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"

	"github.com/discordia-project/discordia/lib/entitystore"
)

// HealthReport is the result of Bot.Health. Each field is true when
// that component is working.
type HealthReport struct {
	Cache      bool `json:"cache"`
	Store      bool `json:"store"`
	Remote     bool `json:"remote"`
	Reconciler bool `json:"reconciler"`
}

// Healthy reports whether every component is working.
func (h HealthReport) Healthy() bool {
	return h.Cache && h.Store && h.Remote && h.Reconciler
}

// Health checks each component. Failures are logged, never returned.
//
// Store is true when no sink is configured or the sink has no Ping
// method. Reconciler is false only when the most recent run failed.
func (b *Bot) Health(ctx context.Context) HealthReport {
	report := HealthReport{Cache: b.cache != nil, Store: true, Remote: true, Reconciler: true}

	if pinger, ok := b.recorder.Sink().(entitystore.Pinger); ok {
		if err := pinger.Ping(ctx); err != nil {
			b.logger.Warn("health check failed", "component", "store", "error", err)
			report.Store = false
		}
	}
	if _, err := b.remote.CurrentUser(ctx); err != nil {
		b.logger.Warn("health check failed", "component", "remote", "error", err)
		report.Remote = false
	}
	if last, ok := b.reconciler.Last(); ok && last.Err != nil {
		b.logger.Warn("health check failed", "component", "reconciler", "error", last.Err)
		report.Reconciler = false
	}
	return report
}
