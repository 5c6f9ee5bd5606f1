package editor

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownTheme is returned when activating a theme that was never defined.
var ErrUnknownTheme = errors.New("editor: unknown theme")

// ThemeRule styles one token class.
type ThemeRule struct {
	Token      string `json:"token" yaml:"token"`
	Foreground string `json:"foreground,omitempty" yaml:"foreground"`
	FontStyle  string `json:"fontStyle,omitempty" yaml:"font_style"`
}

// Theme maps UI element identifiers to colors on top of a base theme.
type Theme struct {
	Base    string            `json:"base" yaml:"base"`
	Inherit bool              `json:"inherit" yaml:"inherit"`
	Rules   []ThemeRule       `json:"rules" yaml:"rules"`
	Colors  map[string]string `json:"colors" yaml:"colors"`
}

type themeRegistry struct {
	defined map[string]Theme
	active  string
}

// DefineTheme registers or replaces a named theme.
func (m *Model) DefineTheme(name string, theme Theme) error {
	if name == "" {
		return fmt.Errorf("editor: theme name is empty")
	}
	if m.themes.defined == nil {
		m.themes.defined = make(map[string]Theme)
	}
	colors := make(map[string]string, len(theme.Colors))
	for k, v := range theme.Colors {
		colors[k] = v
	}
	theme.Colors = colors
	theme.Rules = append([]ThemeRule(nil), theme.Rules...)
	m.themes.defined[name] = theme
	return nil
}

// SetTheme activates a defined theme.
func (m *Model) SetTheme(name string) error {
	if _, ok := m.themes.defined[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTheme, name)
	}
	m.themes.active = name
	return nil
}

// Theme returns the active theme name and definition.
func (m *Model) Theme() (string, Theme, bool) {
	t, ok := m.themes.defined[m.themes.active]
	return m.themes.active, t, ok
}

// ThemeNames lists the defined themes in name order.
func (m *Model) ThemeNames() []string {
	names := make([]string, 0, len(m.themes.defined))
	for n := range m.themes.defined {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
