package docmerge

import (
	"regexp"

	"golang.org/x/text/cases"
)

// Token is one {{name}} occurrence in a piece of text
type Token struct {
	// Name is the text between the braces, as written
	Name   string
	Start  int
	Length int
}

// End returns the offset one past the closing braces
func (t Token) End() int {
	return t.Start + t.Length
}

var (
	tokenPattern = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)
	namePattern  = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// ValidName reports whether name can appear in a placeholder token
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// foldName returns the case-insensitive lookup key of a placeholder name.
// A Caser is stateful, so each call gets its own.
func foldName(name string) string {
	return cases.Fold().String(name)
}

// Scan finds every placeholder token in text, left to right and
// non-overlapping. Anything between the braces that is not a letter, digit or
// underscore makes the braces literal text.
func Scan(text string) []Token {
	matches := tokenPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		tokens = append(tokens, Token{
			Name:   text[m[2]:m[3]],
			Start:  m[0],
			Length: m[1] - m[0],
		})
	}
	return tokens
}

// PlaceholderNames returns the distinct placeholder names in text in the
// order they first appear. Names differing only in case count once; the first
// spelling is kept.
func PlaceholderNames(text string) []string {
	return appendNames(nil, map[string]bool{}, text)
}

func appendNames(names []string, seen map[string]bool, text string) []string {
	for _, tok := range Scan(text) {
		key := foldName(tok.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, tok.Name)
	}
	return names
}
