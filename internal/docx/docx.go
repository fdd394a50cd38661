// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package docx opens a DOCX package and exposes its document body, header
// parts and footer parts as editable XML trees. Only the parts the cleaner
// edits are parsed; every other ZIP entry (media, styles, relationships)
// is carried through byte-for-byte when the package is saved.
package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
)

var (
	// ErrNotDocx means the upload could not be opened as a DOCX (OPC ZIP)
	// package at all.
	ErrNotDocx = errors.New("not a valid DOCX package")

	// ErrMissingPart means the package opened but a part the cleaner
	// relies on (the main document, its body) is absent or malformed.
	ErrMissingPart = errors.New("unexpected document structure")
)

const documentPartName = "word/document.xml"

var headerFooterPattern = regexp.MustCompile(`^word/(header|footer)\d*\.xml$`)

// Part is one parsed XML part of the package.
type Part struct {
	Name     string
	Root     *Node
	prefixes map[string]string
}

type rawEntry struct {
	name string
	data []byte
}

// Package is an in-memory DOCX package. It is constructed fresh per
// upload, mutated in place by the cleaning stages, serialized once and
// discarded.
type Package struct {
	entries  []rawEntry
	document *Part
	headers  []*Part
	footers  []*Part
	parts    map[string]*Part
}

// Open parses a DOCX package from a byte buffer.
func Open(data []byte) (*Package, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotDocx, err)
	}

	pkg := &Package{parts: make(map[string]*Part)}

	for _, f := range reader.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open entry %s: %v", ErrNotDocx, f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: read entry %s: %v", ErrNotDocx, f.Name, err)
		}
		pkg.entries = append(pkg.entries, rawEntry{name: f.Name, data: content})
	}

	for _, entry := range pkg.entries {
		if entry.name != documentPartName && !headerFooterPattern.MatchString(entry.name) {
			continue
		}
		root, prefixes, err := parseXML(entry.data)
		if err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", ErrMissingPart, entry.name, err)
		}
		part := &Part{Name: entry.name, Root: root, prefixes: prefixes}
		pkg.parts[entry.name] = part

		switch {
		case entry.name == documentPartName:
			pkg.document = part
		case headerFooterPattern.FindStringSubmatch(entry.name)[1] == "header":
			pkg.headers = append(pkg.headers, part)
		default:
			pkg.footers = append(pkg.footers, part)
		}
	}

	if pkg.document == nil {
		return nil, fmt.Errorf("%w: %s not found", ErrMissingPart, documentPartName)
	}
	if pkg.document.Root.FirstChild("body") == nil {
		return nil, fmt.Errorf("%w: document has no body", ErrMissingPart)
	}

	return pkg, nil
}

// Document returns the main document part.
func (p *Package) Document() *Part { return p.document }

// Headers returns the header parts in package order.
func (p *Package) Headers() []*Part { return p.headers }

// Footers returns the footer parts in package order.
func (p *Package) Footers() []*Part { return p.footers }

// Body returns the <w:body> element of the main document.
func (p *Package) Body() *Node {
	return p.document.Root.FirstChild("body")
}

// Save serializes the package back to a DOCX byte stream. Edited parts
// are re-marshalled from their trees; all other entries keep their
// original bytes and order.
func (p *Package) Save() ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	for _, entry := range p.entries {
		content := entry.data
		if part, ok := p.parts[entry.name]; ok {
			content = serialize(part.Root, part.prefixes)
		}
		fw, err := w.Create(entry.name)
		if err != nil {
			return nil, fmt.Errorf("create zip entry %s: %w", entry.name, err)
		}
		if _, err := fw.Write(content); err != nil {
			return nil, fmt.Errorf("write zip entry %s: %w", entry.name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize package: %w", err)
	}
	return buf.Bytes(), nil
}

// HasZipSignature reports whether data starts with a ZIP file signature.
// DOCX files are ZIP containers, so this is a cheap pre-parse sanity
// check for uploads.
func HasZipSignature(data []byte) bool {
	signatures := [][]byte{
		{'P', 'K', 0x03, 0x04},
		{'P', 'K', 0x05, 0x06},
		{'P', 'K', 0x07, 0x08},
	}
	for _, sig := range signatures {
		if bytes.HasPrefix(data, sig) {
			return true
		}
	}
	return false
}
