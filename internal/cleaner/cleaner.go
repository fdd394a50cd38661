// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package cleaner strips institutional boilerplate out of DOCX audit
// documents: header/footer phrases and logos, repeated textbox text and
// the trailing signature section. Substantive audit content is never
// touched.
package cleaner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cleandoc/internal/docx"
	"github.com/cleandoc/internal/logger"
)

// Cleaner applies the fixed cleaning rule set to documents. The phrase
// list and trigger token come in as configuration, not module state, so
// tenants with different boilerplate can run their own instance.
type Cleaner struct {
	phrases []*regexp.Regexp
	trigger *regexp.Regexp
}

// New builds a Cleaner for the given institutional phrases and signature
// trigger token.
func New(phrases []string, trigger string) (*Cleaner, error) {
	if len(phrases) == 0 {
		return nil, fmt.Errorf("at least one institutional phrase is required")
	}
	if strings.TrimSpace(trigger) == "" {
		return nil, fmt.Errorf("signature trigger token is required")
	}

	c := &Cleaner{}
	for _, phrase := range phrases {
		pattern, err := compilePhrase(phrase)
		if err != nil {
			return nil, fmt.Errorf("compile phrase %q: %w", phrase, err)
		}
		c.phrases = append(c.phrases, pattern)
	}

	triggerPattern, err := compileTrigger(trigger)
	if err != nil {
		return nil, fmt.Errorf("compile trigger %q: %w", trigger, err)
	}
	c.trigger = triggerPattern
	return c, nil
}

// Default returns a Cleaner configured with the standard institutional
// phrase list and trigger token.
func Default() *Cleaner {
	c, err := New(DefaultPhrases, DefaultTrigger)
	if err != nil {
		// The defaults are constants; they always compile.
		panic(err)
	}
	return c
}

// Clean runs the full pipeline on one uploaded document:
// load -> scrub headers/footers -> scrub textboxes -> truncate signature
// -> serialize. The input buffer is never modified; the cleaned document
// comes back as a new byte stream together with its statistics.
func (c *Cleaner) Clean(data []byte, filename string) ([]byte, *Stats, error) {
	stats := &Stats{}

	pkg, err := docx.Open(data)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", filename, err)
	}

	c.scrubHeadersFooters(pkg, stats)
	c.scrubBodyParagraphs(pkg, stats)
	c.scrubTextboxes(pkg, stats)
	c.truncateSignature(pkg, stats)

	out, err := pkg.Save()
	if err != nil {
		return nil, nil, fmt.Errorf("serialize %s: %w", filename, err)
	}

	logger.Printf("[CLEAN] %s: images=%d paragraphs=%d textboxes=%d signature=%t removed=%d",
		filename, stats.ImagesRemoved, stats.ParagraphsCleaned,
		stats.TextboxesCleaned, stats.SignatureRemoved, stats.ParagraphsRemoved)

	return out, stats, nil
}

// scrubHeadersFooters removes boilerplate paragraphs and standalone
// images from every header and footer part. Images inside tables are
// preserved, and VML picts that carry a textbox are left for the textbox
// stage.
func (c *Cleaner) scrubHeadersFooters(pkg *docx.Package, stats *Stats) {
	parts := append(append([]*docx.Part{}, pkg.Headers()...), pkg.Footers()...)
	for _, part := range parts {
		c.removePartImages(part, stats)
		c.removePartParagraphs(part, stats)
	}
}

func (c *Cleaner) removePartImages(part *docx.Part, stats *Stats) {
	// Modern DrawingML images.
	for _, drawing := range part.Root.Descendants("drawing") {
		if drawing.HasAncestor("tbl") {
			continue
		}
		if drawing.Remove() {
			stats.ImagesRemoved++
		}
	}

	// Legacy VML images. A pict that contains a textbox is not a logo;
	// its text is handled by the textbox scrubber.
	for _, pict := range part.Root.Descendants("pict") {
		if pict.HasAncestor("tbl") {
			continue
		}
		if len(pict.Descendants("txbxContent")) > 0 {
			continue
		}
		if pict.Remove() {
			stats.ImagesRemoved++
		}
	}
}

func (c *Cleaner) removePartParagraphs(part *docx.Part, stats *Stats) {
	for _, p := range part.Root.Descendants("p") {
		if p.HasAncestor("txbxContent") {
			continue
		}
		if !c.matchesAny(paragraphText(p)) {
			continue
		}
		if p.Remove() {
			stats.ParagraphsCleaned++
		}
	}
}

// scrubBodyParagraphs excises institutional phrases from body paragraphs.
// Unlike headers, body paragraphs can mix boilerplate with real content,
// so the phrase is cut out of the text and anything left over survives in
// the first run; only paragraphs that were pure boilerplate are removed.
func (c *Cleaner) scrubBodyParagraphs(pkg *docx.Package, stats *Stats) {
	body := pkg.Body()
	for _, p := range body.Descendants("p") {
		if p.HasAncestor("txbxContent") {
			continue
		}
		text := paragraphText(p)
		if !c.matchesAny(text) {
			continue
		}
		cleaned := strings.TrimSpace(c.excise(text))
		if cleaned != "" {
			setParagraphText(p, cleaned)
			stats.ParagraphsCleaned++
		} else if p.Remove() {
			stats.ParagraphsCleaned++
			stats.ParagraphsRemoved++
		}
	}
}

// scrubTextboxes walks every textbox across body, headers and footers,
// nested shapes included, and excises boilerplate from their paragraphs.
// The counter increments once per shape that had at least one match.
func (c *Cleaner) scrubTextboxes(pkg *docx.Package, stats *Stats) {
	parts := []*docx.Part{pkg.Document()}
	parts = append(parts, pkg.Headers()...)
	parts = append(parts, pkg.Footers()...)

	for _, part := range parts {
		for _, shape := range part.Root.Descendants("txbxContent") {
			cleaned := false
			for _, p := range shape.Descendants("p") {
				// Paragraphs of a nested shape belong to that shape.
				if p.NearestAncestor("txbxContent") != shape {
					continue
				}
				text := paragraphText(p)
				if !c.matchesAny(text) {
					continue
				}
				remainder := strings.TrimSpace(c.excise(text))
				setParagraphText(p, remainder)
				if remainder == "" {
					p.Remove()
				}
				cleaned = true
			}
			if cleaned {
				stats.TextboxesCleaned++
			}
		}
	}
}

// truncateSignature finds the first body paragraph carrying the trigger
// token and deletes it and every following paragraph and table. Matching
// strips spaces first so "E l a b o r ó" from bad OCR layers still hits.
// Non-block elements such as sectPr survive so the part stays valid.
func (c *Cleaner) truncateSignature(pkg *docx.Package, stats *Stats) {
	body := pkg.Body()

	start := -1
	for i, child := range body.Children {
		if child.Local() != "p" {
			continue
		}
		compact := strings.ReplaceAll(paragraphText(child), " ", "")
		if c.trigger.MatchString(compact) {
			start = i
			break
		}
	}
	if start < 0 {
		return
	}

	kept := body.Children[:start:start]
	removed := 0
	for _, child := range body.Children[start:] {
		if child.Local() == "p" || child.Local() == "tbl" {
			child.Parent = nil
			removed++
			continue
		}
		kept = append(kept, child)
	}
	body.Children = kept

	stats.SignatureRemoved = true
	stats.ParagraphsRemoved += removed
}

// matchesAny reports whether the text contains any institutional phrase.
func (c *Cleaner) matchesAny(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	for _, pattern := range c.phrases {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// excise removes every institutional phrase occurrence from the text.
func (c *Cleaner) excise(text string) string {
	for _, pattern := range c.phrases {
		text = pattern.ReplaceAllString(text, "")
	}
	return normalizeWhitespace(text)
}

// paragraphText assembles the paragraph's text from its own runs. Runs
// belonging to a textbox nested inside the paragraph are excluded; those
// paragraphs are handled by the textbox stage.
func paragraphText(p *docx.Node) string {
	var b strings.Builder
	for _, t := range ownTextNodes(p) {
		b.WriteString(t.Text)
	}
	return b.String()
}

// setParagraphText puts text into the paragraph's first own run and
// empties the rest, preserving the run structure (and with it the
// formatting). Nested textbox runs are untouched.
func setParagraphText(p *docx.Node, text string) {
	runs := ownTextNodes(p)
	if len(runs) == 0 {
		return
	}
	runs[0].Text = text
	for _, t := range runs[1:] {
		t.Text = ""
	}
}

// ownTextNodes returns the text nodes whose closest paragraph is p.
func ownTextNodes(p *docx.Node) []*docx.Node {
	var own []*docx.Node
	for _, t := range p.Descendants("t") {
		if t.NearestAncestor("p") != p {
			continue
		}
		own = append(own, t)
	}
	return own
}
