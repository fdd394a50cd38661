// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package cleaner

// Stats carries the per-document cleaning counters.
type Stats struct {
	ImagesRemoved     int      `json:"images_removed"`
	ParagraphsCleaned int      `json:"institutional_paragraphs_cleaned"`
	TextboxesCleaned  int      `json:"textboxes_cleaned"`
	SignatureRemoved  bool     `json:"signature_section_removed"`
	ParagraphsRemoved int      `json:"paragraphs_removed"`
	Errors            []string `json:"-"`
}

// HasErrors reports whether any non-fatal errors were recorded while
// cleaning the document.
func (s *Stats) HasErrors() bool {
	return len(s.Errors) > 0
}

// IsZero reports whether the document came through untouched. A second
// pass over an already-cleaned document must produce zero stats.
func (s *Stats) IsZero() bool {
	return s.ImagesRemoved == 0 &&
		s.ParagraphsCleaned == 0 &&
		s.TextboxesCleaned == 0 &&
		!s.SignatureRemoved &&
		s.ParagraphsRemoved == 0 &&
		len(s.Errors) == 0
}
