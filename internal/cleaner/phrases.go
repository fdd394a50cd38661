// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package cleaner

import (
	"regexp"
	"strings"
)

// DefaultPhrases is the fixed institutional boilerplate list. Scanned
// documents carry these in headers, footers and textboxes; none of them
// ever appear in substantive audit content.
var DefaultPhrases = []string{
	"ÓRGANO DE FISCALIZACIÓN SUPERIOR",
	"DIRECCIÓN DE AUDITORÍA A ENTES ESTATALES",
}

// DefaultTrigger marks the start of the trailing signature section.
var DefaultTrigger = "Elaboró"

// accentPairs maps Spanish accented vowels to their bare forms. Scanned
// headers show up with either spelling ("FISCALIZACIÓN" vs
// "FISCALIZACION"), so matching has to accept both.
var accentPairs = map[rune]rune{
	'á': 'a', 'é': 'e', 'í': 'i', 'ó': 'o', 'ú': 'u', 'ü': 'u',
	'Á': 'A', 'É': 'E', 'Í': 'I', 'Ó': 'O', 'Ú': 'U', 'Ü': 'U',
}

// compilePhrase turns a configured phrase into a case-insensitive regexp
// that tolerates accent variants and arbitrary run-internal whitespace.
func compilePhrase(phrase string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?i)")
	for _, r := range phrase {
		switch {
		case r == ' ' || r == '\t' || r == '\n':
			b.WriteString(`\s+`)
		default:
			if bare, ok := accentPairs[r]; ok {
				b.WriteString("[" + regexp.QuoteMeta(string(r)) + regexp.QuoteMeta(string(bare)) + "]")
			} else {
				b.WriteString(regexp.QuoteMeta(string(r)))
			}
		}
	}
	return regexp.Compile(b.String())
}

// compileTrigger builds the signature-trigger matcher. It is applied to
// text with spaces stripped, so the token itself must not rely on
// whitespace.
func compileTrigger(token string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?i)")
	for _, r := range token {
		if bare, ok := accentPairs[r]; ok {
			b.WriteString("[" + regexp.QuoteMeta(string(r)) + regexp.QuoteMeta(string(bare)) + "]")
		} else {
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return regexp.Compile(b.String())
}

var whitespacePattern = regexp.MustCompile(`\s+`)

// normalizeWhitespace collapses runs of whitespace to single spaces.
func normalizeWhitespace(text string) string {
	return whitespacePattern.ReplaceAllString(text, " ")
}
