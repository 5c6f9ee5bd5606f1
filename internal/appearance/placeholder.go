// Package appearance holds the presentation state of an editing surface: the
// empty-buffer placeholder and the light and dark color themes.
package appearance

import (
	"math/rand/v2"
	"strings"
)

// Quotes are the writing prompts shown while the buffer is empty.
var Quotes = []string{
	"The scariest moment is always just before you start.",
	"Fill your paper with the breathings of your heart.",
	"The pen is mightier than the sword.",
	"The best way to predict the future is to invent it.",
	"The only way to do great work is to love what you do.",
	"A word after a word after a word is power.",
	"Get things done.",
	"Later equals never.",
	"Divide and conquer.",
}

// Placeholder is a quote shown over an empty buffer.
type Placeholder struct {
	text  string
	shown bool
}

// PlaceholderOption configures a Placeholder.
type PlaceholderOption func(*placeholderConfig)

type placeholderConfig struct {
	intn func(n int) int
}

// WithRand picks the quote from r instead of the global source.
func WithRand(r *rand.Rand) PlaceholderOption {
	return func(c *placeholderConfig) {
		c.intn = r.IntN
	}
}

// NewPlaceholder picks a random quote. The placeholder starts shown.
func NewPlaceholder(opts ...PlaceholderOption) *Placeholder {
	cfg := placeholderConfig{intn: rand.IntN}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Placeholder{
		text:  Quotes[cfg.intn(len(Quotes))],
		shown: true,
	}
}

func (p *Placeholder) Text() string { return p.text }

func (p *Placeholder) Shown() bool { return p.shown }

// Update recomputes visibility for the buffer text and reports whether it
// changed.
func (p *Placeholder) Update(text string) bool {
	v := Visible(text)
	changed := v != p.shown
	p.shown = v
	return changed
}

// Visible reports whether the placeholder belongs over text: true iff text is
// empty or whitespace only.
func Visible(text string) bool {
	return strings.TrimSpace(text) == ""
}
