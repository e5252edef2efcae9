// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package templatedef

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/discordia-project/discordia/lib/state"
)

// Pattern expands into channel templates. Generate is deterministic
// for a given now: calling it twice with the same instant returns the
// same names in the same order.
type Pattern interface {
	Generate(now time.Time) []ChannelTemplate
	Spec() PatternSpec
}

// PatternKind discriminates the built-in patterns in template files.
type PatternKind string

const (
	PatternDateWindow PatternKind = "date_window"
	PatternWeekDay    PatternKind = "week_day"
	PatternPrefixed   PatternKind = "prefixed"
)

// Pattern bounds and defaults.
const (
	MaxDaysAhead       = 30
	MaxDaysBehind      = 90
	MaxWeeksAhead      = 4
	MaxWeeksBehind     = 8
	DefaultDaysAhead   = 1
	DefaultDaysBehind  = 7
	DefaultWeeksAhead  = 0
	DefaultWeeksBehind = 1

	DefaultDateWindowTopic = "Daily conversation log"
	DefaultWeekDayTopic    = "Weekly log channel"
	DefaultSeparator       = "-"

	// SuffixPlaceholder is replaced by the suffix in a prefixed
	// pattern's topic_format.
	SuffixPlaceholder = "{suffix}"
)

// PatternSpec is the authored form of a pattern. Which fields apply
// depends on Kind; the rest must be absent.
type PatternSpec struct {
	Kind PatternKind `yaml:"kind" json:"kind"`

	// date_window
	DaysAhead  *int `yaml:"days_ahead,omitempty" json:"days_ahead,omitempty"`
	DaysBehind *int `yaml:"days_behind,omitempty" json:"days_behind,omitempty"`

	// week_day
	WeeksAhead  *int `yaml:"weeks_ahead,omitempty" json:"weeks_ahead,omitempty"`
	WeeksBehind *int `yaml:"weeks_behind,omitempty" json:"weeks_behind,omitempty"`

	// date_window and week_day
	Topic *string `yaml:"topic,omitempty" json:"topic,omitempty"`

	// prefixed
	Prefix      string   `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Suffixes    []string `yaml:"suffixes,omitempty" json:"suffixes,omitempty"`
	Separator   *string  `yaml:"separator,omitempty" json:"separator,omitempty"`
	TopicFormat *string  `yaml:"topic_format,omitempty" json:"topic_format,omitempty"`
}

// NewPattern validates spec and returns the matching built-in pattern.
func NewPattern(spec PatternSpec) (Pattern, error) {
	return buildPattern(spec, "")
}

func buildPattern(spec PatternSpec, path string) (Pattern, error) {
	type field struct {
		name string
		set  bool
	}
	dateFields := []field{{"days_ahead", spec.DaysAhead != nil}, {"days_behind", spec.DaysBehind != nil}}
	weekFields := []field{{"weeks_ahead", spec.WeeksAhead != nil}, {"weeks_behind", spec.WeeksBehind != nil}}
	prefixFields := []field{
		{"prefix", spec.Prefix != ""},
		{"suffixes", spec.Suffixes != nil},
		{"separator", spec.Separator != nil},
		{"topic_format", spec.TopicFormat != nil},
	}

	var foreign []field
	switch spec.Kind {
	case PatternDateWindow:
		foreign = slices.Concat(weekFields, prefixFields)
	case PatternWeekDay:
		foreign = slices.Concat(dateFields, prefixFields)
	case PatternPrefixed:
		foreign = slices.Concat(dateFields, weekFields, []field{{"topic", spec.Topic != nil}})
	case "":
		return nil, invalid(join(path, "kind"), "is required (date_window, week_day, or prefixed)")
	default:
		return nil, invalid(join(path, "kind"), "unknown pattern kind %q (want date_window, week_day, or prefixed)", spec.Kind)
	}
	for _, f := range foreign {
		if f.set {
			return nil, invalid(join(path, f.name), "not allowed for %s patterns", spec.Kind)
		}
	}

	switch spec.Kind {
	case PatternDateWindow:
		ahead, behind := intOr(spec.DaysAhead, DefaultDaysAhead), intOr(spec.DaysBehind, DefaultDaysBehind)
		if err := checkRange(join(path, "days_ahead"), ahead, 0, MaxDaysAhead); err != nil {
			return nil, err
		}
		if err := checkRange(join(path, "days_behind"), behind, 0, MaxDaysBehind); err != nil {
			return nil, err
		}
		return &DateWindowPattern{daysAhead: ahead, daysBehind: behind, topic: stringOr(spec.Topic, DefaultDateWindowTopic)}, nil

	case PatternWeekDay:
		ahead, behind := intOr(spec.WeeksAhead, DefaultWeeksAhead), intOr(spec.WeeksBehind, DefaultWeeksBehind)
		if err := checkRange(join(path, "weeks_ahead"), ahead, 0, MaxWeeksAhead); err != nil {
			return nil, err
		}
		if err := checkRange(join(path, "weeks_behind"), behind, 0, MaxWeeksBehind); err != nil {
			return nil, err
		}
		return &WeekDayPattern{weeksAhead: ahead, weeksBehind: behind, topic: stringOr(spec.Topic, DefaultWeekDayTopic)}, nil

	default:
		config := PrefixedConfig{
			Prefix:    spec.Prefix,
			Suffixes:  spec.Suffixes,
			Separator: stringOr(spec.Separator, DefaultSeparator),
		}
		if spec.TopicFormat != nil {
			config.TopicFormat = *spec.TopicFormat
		}
		pattern, err := newPrefixed(config, path)
		if err != nil {
			return nil, err
		}
		return pattern, nil
	}
}

func intOr(value *int, fallback int) int {
	if value == nil {
		return fallback
	}
	return *value
}

func stringOr(value *string, fallback string) string {
	if value == nil {
		return fallback
	}
	return *value
}

// calendarDay returns noon on now's calendar date in now's location.
// Day arithmetic from noon never crosses a date boundary on a DST
// transition.
func calendarDay(now time.Time) time.Time {
	year, month, day := now.Date()
	return time.Date(year, month, day, 12, 0, 0, 0, now.Location())
}

// isoWeekday returns 1 for Monday through 7 for Sunday.
func isoWeekday(day time.Time) int {
	return (int(day.Weekday())+6)%7 + 1
}

// DateWindowPattern produces one text channel per calendar day from
// today-DaysBehind to today+DaysAhead inclusive, named by ISO date.
type DateWindowPattern struct {
	daysAhead  int
	daysBehind int
	topic      string
}

// NewDateWindowPattern returns a date window with the default topic.
func NewDateWindowPattern(daysAhead, daysBehind int) (*DateWindowPattern, error) {
	pattern, err := NewPattern(PatternSpec{Kind: PatternDateWindow, DaysAhead: &daysAhead, DaysBehind: &daysBehind})
	if err != nil {
		return nil, err
	}
	return pattern.(*DateWindowPattern), nil
}

func (p *DateWindowPattern) DaysAhead() int  { return p.daysAhead }
func (p *DateWindowPattern) DaysBehind() int { return p.daysBehind }

func (p *DateWindowPattern) Generate(now time.Time) []ChannelTemplate {
	today := calendarDay(now)
	channels := make([]ChannelTemplate, 0, p.daysBehind+p.daysAhead+1)
	for offset := -p.daysBehind; offset <= p.daysAhead; offset++ {
		day := today.AddDate(0, 0, offset)
		channels = append(channels, generatedText(day.Format(time.DateOnly), p.topic, 0, false))
	}
	return channels
}

func (p *DateWindowPattern) Spec() PatternSpec {
	ahead, behind, topic := p.daysAhead, p.daysBehind, p.topic
	return PatternSpec{Kind: PatternDateWindow, DaysAhead: &ahead, DaysBehind: &behind, Topic: &topic}
}

// WeekDayPattern produces one text channel per day of whole ISO
// weeks around the current one. Names are "WW-DD": the ISO week
// number and the ISO weekday, both zero-padded.
type WeekDayPattern struct {
	weeksAhead  int
	weeksBehind int
	topic       string
}

// NewWeekDayPattern returns a week-day window with the default topic.
func NewWeekDayPattern(weeksAhead, weeksBehind int) (*WeekDayPattern, error) {
	pattern, err := NewPattern(PatternSpec{Kind: PatternWeekDay, WeeksAhead: &weeksAhead, WeeksBehind: &weeksBehind})
	if err != nil {
		return nil, err
	}
	return pattern.(*WeekDayPattern), nil
}

func (p *WeekDayPattern) WeeksAhead() int  { return p.weeksAhead }
func (p *WeekDayPattern) WeeksBehind() int { return p.weeksBehind }

// Generate extends the window back to the Monday of the earliest
// included week and forward to the Sunday of the latest.
func (p *WeekDayPattern) Generate(now time.Time) []ChannelTemplate {
	today := calendarDay(now)
	weekday := isoWeekday(today) - 1
	daysBehind := 7*p.weeksBehind + weekday
	daysAhead := 7*p.weeksAhead + (6 - weekday)

	channels := make([]ChannelTemplate, 0, daysBehind+daysAhead+1)
	for offset := -daysBehind; offset <= daysAhead; offset++ {
		day := today.AddDate(0, 0, offset)
		_, week := day.ISOWeek()
		name := fmt.Sprintf("%02d-%02d", week, isoWeekday(day))
		channels = append(channels, generatedText(name, p.topic, 0, false))
	}
	return channels
}

func (p *WeekDayPattern) Spec() PatternSpec {
	ahead, behind, topic := p.weeksAhead, p.weeksBehind, p.topic
	return PatternSpec{Kind: PatternWeekDay, WeeksAhead: &ahead, WeeksBehind: &behind, Topic: &topic}
}

// PrefixedConfig configures a PrefixedPattern.
type PrefixedConfig struct {
	Prefix   string
	Suffixes []string

	// Separator joins prefix and suffix. Empty means DefaultSeparator.
	Separator string

	// Topic computes the topic for a suffix. When nil, TopicFormat is
	// used instead, with SuffixPlaceholder replaced by the suffix.
	// When both are empty, generated channels have no topic.
	Topic       func(suffix string) string
	TopicFormat string
}

// PrefixedPattern produces one text channel per suffix, named
// prefix+separator+suffix, positioned by list index.
type PrefixedPattern struct {
	prefix      string
	separator   string
	suffixes    []string
	topic       func(string) string
	topicFormat string
}

// NewPrefixedPattern checks that every name the pattern will produce
// is a valid channel name.
func NewPrefixedPattern(config PrefixedConfig) (*PrefixedPattern, error) {
	if config.Separator == "" {
		config.Separator = DefaultSeparator
	}
	return newPrefixed(config, "")
}

func newPrefixed(config PrefixedConfig, path string) (*PrefixedPattern, error) {
	if config.Prefix == "" {
		return nil, invalid(join(path, "prefix"), "is required")
	}
	for i, suffix := range config.Suffixes {
		name := config.Prefix + config.Separator + suffix
		if err := state.ValidateChannelName(name); err != nil {
			return nil, invalid(index(join(path, "suffixes"), i), "%v", err)
		}
	}
	pattern := &PrefixedPattern{
		prefix:      config.Prefix,
		separator:   config.Separator,
		suffixes:    slices.Clone(config.Suffixes),
		topic:       config.Topic,
		topicFormat: config.TopicFormat,
	}
	if pattern.topic == nil && pattern.topicFormat != "" {
		format := pattern.topicFormat
		pattern.topic = func(suffix string) string {
			return strings.ReplaceAll(format, SuffixPlaceholder, suffix)
		}
	}
	return pattern, nil
}

func (p *PrefixedPattern) Prefix() string     { return p.prefix }
func (p *PrefixedPattern) Separator() string  { return p.separator }
func (p *PrefixedPattern) Suffixes() []string { return slices.Clone(p.suffixes) }

func (p *PrefixedPattern) Generate(time.Time) []ChannelTemplate {
	channels := make([]ChannelTemplate, 0, len(p.suffixes))
	for position, suffix := range p.suffixes {
		var topic string
		if p.topic != nil {
			topic = p.topic(suffix)
		}
		channels = append(channels, generatedText(p.prefix+p.separator+suffix, topic, position, true))
	}
	return channels
}

// Spec returns the authored form. A topic function set in code has no
// authored form and is omitted.
func (p *PrefixedPattern) Spec() PatternSpec {
	separator := p.separator
	spec := PatternSpec{
		Kind:      PatternPrefixed,
		Prefix:    p.prefix,
		Suffixes:  slices.Clone(p.suffixes),
		Separator: &separator,
	}
	if spec.Suffixes == nil {
		spec.Suffixes = []string{}
	}
	if p.topicFormat != "" {
		format := p.topicFormat
		spec.TopicFormat = &format
	}
	return spec
}
