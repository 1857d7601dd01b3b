package pref

import (
	"strings"

	"github.com/vango-dev/metalens/pkg/dom"
)

// ThemeKey is the preference key of the color theme.
const ThemeKey = "theme"

// ThemeAttr is the attribute the theme is applied through.
const ThemeAttr = "data-bs-theme"

// Theme is a color theme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme returns the theme named s, or light for anything else.
func ParseTheme(s string) Theme {
	if Theme(strings.ToLower(strings.TrimSpace(s))) == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}

// Toggle returns the opposite theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// NewTheme creates the theme preference, defaulting to light.
func NewTheme(opts ...PrefOption) *Pref[Theme] {
	return New(ThemeKey, ThemeLight, opts...)
}

// ApplyTheme sets the theme attribute on the document body.
func ApplyTheme(s dom.Surface, t Theme) error {
	return s.SetAttr(dom.BodyID, ThemeAttr, string(t))
}
