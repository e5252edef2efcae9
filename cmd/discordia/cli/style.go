// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "github.com/charmbracelet/lipgloss"

// Theme is the palette for styled command output, in ANSI 256-color
// codes. lipgloss drops the colors when stdout is not a terminal.
type Theme struct {
	Header  lipgloss.Color
	Faint   lipgloss.Color
	Good    lipgloss.Color
	Bad     lipgloss.Color
	Pending lipgloss.Color
}

// DefaultTheme suits dark terminals.
var DefaultTheme = Theme{
	Header:  lipgloss.Color("75"),
	Faint:   lipgloss.Color("243"),
	Good:    lipgloss.Color("114"),
	Bad:     lipgloss.Color("203"),
	Pending: lipgloss.Color("221"),
}

// HeaderStyle renders section headings.
func (theme Theme) HeaderStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(theme.Header)
}

// FaintStyle renders secondary detail.
func (theme Theme) FaintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.Faint)
}

// StatusStyle renders a pass/fail marker.
func (theme Theme) StatusStyle(ok bool) lipgloss.Style {
	if ok {
		return lipgloss.NewStyle().Foreground(theme.Good)
	}
	return lipgloss.NewStyle().Bold(true).Foreground(theme.Bad)
}

// PendingStyle renders work that has not happened yet.
func (theme Theme) PendingStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(theme.Pending)
}
