package appearance

import (
	"fmt"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/starford/quire/internal/editor"
)

// Theme names.
const (
	LightTheme = "quire-light"
	DarkTheme  = "quire-dark"
)

// Mode selects the light or dark variant.
type Mode string

const (
	ModeLight Mode = "light"
	ModeDark  Mode = "dark"
)

// Validate accepts the two known modes; empty means light.
func (m Mode) Validate() error {
	return validation.Validate(string(m), validation.In(string(ModeLight), string(ModeDark)))
}

// ThemeName returns the theme activated for the mode.
func (m Mode) ThemeName() string {
	if m == ModeDark {
		return DarkTheme
	}
	return LightTheme
}

// Themes returns fresh copies of the built-in themes keyed by name.
func Themes() map[string]editor.Theme {
	return map[string]editor.Theme{
		LightTheme: {
			Base:    "vs",
			Inherit: true,
			Colors: map[string]string{
				"editor.background":                 "#ffffff",
				"editor.foreground":                 "#000000",
				"editorCursor.foreground":           "#000000",
				"editor.lineHighlightBackground":    "#f5f5f5",
				"editorLineNumber.foreground":       "#999999",
				"editor.selectionBackground":        "#b3d4fc",
				"editor.inactiveSelectionBackground": "#d1e4fd",
			},
		},
		DarkTheme: {
			Base:    "vs-dark",
			Inherit: true,
			Colors: map[string]string{
				"editor.background":                 "#1e1e1e",
				"editor.foreground":                 "#d4d4d4",
				"editorCursor.foreground":           "#ffffff",
				"editor.lineHighlightBackground":    "#2a2a2a",
				"editorLineNumber.foreground":       "#858585",
				"editor.selectionBackground":        "#264f78",
				"editor.inactiveSelectionBackground": "#3a3d41",
			},
		},
	}
}

// ValidateTheme checks the base and parses every color as hex.
func ValidateTheme(t editor.Theme) error {
	if err := validation.Validate(t.Base, validation.Required, validation.In("vs", "vs-dark", "hc-black", "hc-light")); err != nil {
		return fmt.Errorf("appearance: base: %w", err)
	}
	keys := make([]string, 0, len(t.Colors))
	for k := range t.Colors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := colorful.Hex(t.Colors[k]); err != nil {
			return fmt.Errorf("appearance: color %s: %w", k, err)
		}
	}
	for _, r := range t.Rules {
		if r.Foreground == "" {
			continue
		}
		if _, err := colorful.Hex("#" + r.Foreground); err != nil {
			return fmt.Errorf("appearance: rule %s: %w", r.Token, err)
		}
	}
	return nil
}

// Install defines both built-in themes on host and activates the one for
// mode. It returns the active theme name.
func Install(host editor.Themer, mode Mode) (string, error) {
	if err := mode.Validate(); err != nil {
		return "", fmt.Errorf("appearance: mode: %w", err)
	}
	themes := Themes()
	for _, name := range []string{LightTheme, DarkTheme} {
		t := themes[name]
		if err := ValidateTheme(t); err != nil {
			return "", err
		}
		if err := host.DefineTheme(name, t); err != nil {
			return "", fmt.Errorf("appearance: define %s: %w", name, err)
		}
	}
	name := mode.ThemeName()
	if err := host.SetTheme(name); err != nil {
		return "", fmt.Errorf("appearance: set %s: %w", name, err)
	}
	return name, nil
}

// IsDark reports whether a theme's background is dark, judged by CIE L*.
func IsDark(t editor.Theme) bool {
	c, err := colorful.Hex(t.Colors["editor.background"])
	if err != nil {
		return t.Base == "vs-dark" || t.Base == "hc-black"
	}
	l, _, _ := c.Lab()
	return l < 0.5
}
