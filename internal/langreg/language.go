package langreg

import (
	"context"
	_ "embed"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

//go:embed markdown.yaml
var markdownYAML []byte

// Pair is an opening and closing character sequence.
type Pair struct {
	Open  string   `yaml:"open" json:"open"`
	Close string   `yaml:"close" json:"close"`
	NotIn []string `yaml:"not_in,omitempty" json:"notIn,omitempty"`
}

// Comments describes comment delimiters.
type Comments struct {
	LineComment  string   `yaml:"line_comment,omitempty" json:"lineComment,omitempty"`
	BlockComment []string `yaml:"block_comment,omitempty" json:"blockComment,omitempty"`
}

// Folding holds region marker patterns.
type Folding struct {
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`

	start, end *regexp.Regexp
}

// IsStart reports whether line opens a folding region.
func (f *Folding) IsStart(line string) bool { return f.start != nil && f.start.MatchString(line) }

// IsEnd reports whether line closes a folding region.
func (f *Folding) IsEnd(line string) bool { return f.end != nil && f.end.MatchString(line) }

// Language is the editing configuration of one language.
type Language struct {
	ID               string     `yaml:"id" json:"id"`
	Comments         Comments   `yaml:"comments" json:"comments"`
	Brackets         [][]string `yaml:"brackets" json:"brackets"`
	AutoClosingPairs []Pair     `yaml:"auto_closing_pairs" json:"autoClosingPairs"`
	SurroundingPairs []Pair     `yaml:"surrounding_pairs" json:"surroundingPairs"`
	Folding          Folding    `yaml:"folding" json:"folding"`
}

// ParseLanguage decodes a YAML language document and compiles its folding
// markers.
func ParseLanguage(data []byte) (*Language, error) {
	var l Language
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("langreg: parse: %w", err)
	}
	if l.ID == "" {
		return nil, fmt.Errorf("langreg: parse: missing id")
	}
	if len(l.Comments.BlockComment) != 0 && len(l.Comments.BlockComment) != 2 {
		return nil, fmt.Errorf("langreg: parse %s: block comment needs open and close", l.ID)
	}
	var err error
	if l.Folding.Start != "" {
		if l.Folding.start, err = regexp.Compile(l.Folding.Start); err != nil {
			return nil, fmt.Errorf("langreg: parse %s: folding start: %w", l.ID, err)
		}
	}
	if l.Folding.End != "" {
		if l.Folding.end, err = regexp.Compile(l.Folding.End); err != nil {
			return nil, fmt.Errorf("langreg: parse %s: folding end: %w", l.ID, err)
		}
	}
	return &l, nil
}

// Markdown is the built-in Markdown definition.
func Markdown() Definition {
	return Definition{
		ID:         "markdown",
		Extensions: []string{".md", ".markdown", ".mdown", ".mkd", ".mkdn", ".mdwn", ".mdtxt", ".mdtext"},
		Aliases:    []string{"Markdown", "markdown"},
		Loader: func(context.Context) (*Language, error) {
			return ParseLanguage(markdownYAML)
		},
	}
}
