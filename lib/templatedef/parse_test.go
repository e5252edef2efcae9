// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package templatedef

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

const yamlTemplate = `
categories:
  - name: Log
    position: 0
    channels:
      - name: daily
        topic: Daily notes
      - name: archive
        type: forum
        default_thread_slowmode: 60
uncategorized_channels:
  - name: welcome
  - name: lounge
    type: voice
    user_limit: 10
patterns:
  - kind: week_day
    weeks_behind: 0
  - kind: prefixed
    prefix: team
    suffixes: [alpha, beta]
    topic_format: "Team {suffix}"
`

const jsoncTemplate = `{
  // Categories first.
  "categories": [
    {
      "name": "Log",
      "position": 0,
      "channels": [
        {"name": "daily", "topic": "Daily notes"},
        {"name": "archive", "type": "forum", "default_thread_slowmode": 60},
      ],
    },
  ],
  /* Top-level channels. */
  "uncategorized_channels": [
    {"name": "welcome"},
    {"name": "lounge", "type": "voice", "user_limit": 10},
  ],
  "patterns": [
    {"kind": "week_day", "weeks_behind": 0},
    {"kind": "prefixed", "prefix": "team", "suffixes": ["alpha", "beta"], "topic_format": "Team {suffix}"},
  ],
}`

func TestParseFormatsAgree(t *testing.T) {
	t.Parallel()

	fromYAML, err := Parse([]byte(yamlTemplate), FormatYAML)
	if err != nil {
		t.Fatalf("Parse yaml: %v", err)
	}
	fromJSONC, err := Parse([]byte(jsoncTemplate), FormatJSONC)
	if err != nil {
		t.Fatalf("Parse jsonc: %v", err)
	}

	yamlFingerprint, _ := fromYAML.Fingerprint()
	jsoncFingerprint, _ := fromJSONC.Fingerprint()
	if yamlFingerprint != jsoncFingerprint {
		t.Errorf("yaml and jsonc templates differ: %s vs %s", yamlFingerprint, jsoncFingerprint)
	}

	archive := fromYAML.Categories()[0].Channels()[1]
	if forum, ok := archive.(ForumChannel); !ok || forum.DefaultThreadSlowmode() != 60 {
		t.Errorf("archive = %#v, want forum with slowmode 60", archive)
	}

	resolved := fromJSONC.Resolve(time.Date(2026, time.January, 7, 0, 0, 0, 0, time.UTC))
	names := channelNames(resolved.UncategorizedChannels())
	if len(names) != 2+7+2 {
		t.Fatalf("resolved %d channels, want 11: %v", len(names), names)
	}
	if !slices.Equal(names[9:], []string{"team-alpha", "team-beta"}) {
		t.Errorf("prefixed output = %v", names[9:])
	}
	if topic := resolved.UncategorizedChannels()[9].Topic(); topic != "Team alpha" {
		t.Errorf("topic = %q, want Team alpha", topic)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"yaml root", "categorys: []\n", FormatYAML},
		{"yaml channel", "uncategorized_channels:\n  - name: x\n    colour: red\n", FormatYAML},
		{"jsonc root", `{"categorys": []}`, FormatJSONC},
		{"jsonc pattern", `{"patterns": [{"kind": "date_window", "days": 3}]}`, FormatJSONC},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse([]byte(test.data), test.format)
			if !IsValidationError(err) {
				t.Errorf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestParseEmptyDocument(t *testing.T) {
	t.Parallel()

	template, err := Parse(nil, FormatYAML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if template.ChannelCount() != 0 || !template.IsResolved() {
		t.Errorf("empty document produced %d channels", template.ChannelCount())
	}
}

func TestReadFileAndMarshal(t *testing.T) {
	t.Parallel()

	directory := t.TempDir()
	path := filepath.Join(directory, "server.yaml")
	if err := os.WriteFile(path, []byte(yamlTemplate), 0o644); err != nil {
		t.Fatal(err)
	}
	template, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	for _, format := range []Format{FormatYAML, FormatJSONC} {
		data, err := Marshal(template, format)
		if err != nil {
			t.Fatalf("Marshal %v: %v", format, err)
		}
		reparsed, err := Parse(data, format)
		if err != nil {
			t.Fatalf("Parse %v output: %v\n%s", format, err, data)
		}
		want, _ := template.Fingerprint()
		got, _ := reparsed.Fingerprint()
		if got != want {
			t.Errorf("%v round trip changed the template", format)
		}
	}

	if _, err := ReadFile(filepath.Join(directory, "server.toml")); err == nil || !strings.Contains(err.Error(), "unrecognized extension") {
		t.Errorf("ReadFile(.toml) err = %v", err)
	}
}
