// Package theme resolves semantic color references from the theme
// document into concrete hex colors. Resolution never fails hard:
// unknown palettes, shades or levels yield an empty color and the
// renderer degrades to default styling.
package theme

import (
	"strings"

	"regcal/internal/model"
)

// FallbackHolidayColor is used for holidays when no theme is loaded at all.
const FallbackHolidayColor = "#ffc0cb"

// Resolver answers color lookups against a theme document. A Resolver
// over a nil theme is valid and resolves everything to "no color"
// (except the holiday fallback).
type Resolver struct {
	theme *model.Theme
}

// NewResolver wraps a theme document. t may be nil.
func NewResolver(t *model.Theme) *Resolver {
	return &Resolver{theme: t}
}

// Resolve maps a color-or-palette reference to a concrete color.
//
//   - "" yields "".
//   - "#xxxxxx" is returned verbatim.
//   - "palette-shade" is looked up as theme.Palette[palette][shade];
//     missing entries yield "".
//   - anything else yields "" (no direct named-color support).
func (r *Resolver) Resolve(value string) string {
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "#") {
		return value
	}
	name, shade, ok := strings.Cut(value, "-")
	if !ok {
		return ""
	}
	if r.theme == nil {
		return ""
	}
	return r.theme.Palette[name][shade]
}

// ColorForLevel resolves an importance level ("High"/"Medium") via the
// theme's level-to-color mapping.
func (r *Resolver) ColorForLevel(level string) string {
	if r.theme == nil || level == "" {
		return ""
	}
	return r.Resolve(r.theme.Levels[level])
}

// ColorForEvent resolves the color for an event type (lecture/lab/...).
func (r *Resolver) ColorForEvent(eventType string) string {
	if r.theme == nil {
		return ""
	}
	return r.Resolve(r.theme.Events[eventType])
}

// LevelForMilestone returns the importance level the theme assigns to a
// milestone key ("" when unassigned).
func (r *Resolver) LevelForMilestone(key model.MilestoneKey) string {
	if r.theme == nil {
		return ""
	}
	return r.theme.Milestones[string(key)]
}

// ColorForHoliday returns the background color for a holiday by exact
// name. Named holidays resolve through their importance level; unlisted
// ones fall back to the theme's "default" entry, treated as a color
// reference and used literally if it does not resolve. With no theme
// loaded the hardcoded fallback applies.
func (r *Resolver) ColorForHoliday(name string) string {
	if r.theme == nil {
		return FallbackHolidayColor
	}
	if level, ok := r.theme.Holidays[name]; ok {
		if c := r.ColorForLevel(level); c != "" {
			return c
		}
	}
	def := r.theme.Holidays["default"]
	if def == "" {
		return ""
	}
	if c := r.Resolve(def); c != "" {
		return c
	}
	return def
}

// ColorsForDate applies a date's milestone labels in enumeration order:
// High-importance labels paint the background, Medium-importance labels
// paint the text color. Unassigned labels contribute nothing.
func (r *Resolver) ColorsForDate(labels []model.MilestoneKey) (background, foreground string) {
	for _, key := range labels {
		level := r.LevelForMilestone(key)
		c := r.ColorForLevel(level)
		if c == "" {
			continue
		}
		switch level {
		case model.LevelHigh:
			background = c
		case model.LevelMedium:
			foreground = c
		}
	}
	return background, foreground
}
