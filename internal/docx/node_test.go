// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package docx

import (
	"strings"
	"testing"
)

const sampleXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>hello</w:t></w:r></w:p>
<w:tbl><w:tr><w:tc><w:p><w:r><w:t>cell</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
<w:p><w:r><w:t>world</w:t></w:r></w:p>
<w:sectPr/>
</w:body>
</w:document>`

func TestParseXML_Tree(t *testing.T) {
	root, prefixes, err := parseXML([]byte(sampleXML))
	if err != nil {
		t.Fatalf("parseXML failed: %v", err)
	}

	if root.Local() != "document" {
		t.Errorf("Expected root 'document', got %q", root.Local())
	}

	body := root.FirstChild("body")
	if body == nil {
		t.Fatal("body element not found")
	}
	if len(body.Children) != 4 {
		t.Errorf("Expected 4 body children, got %d", len(body.Children))
	}

	prefix, ok := prefixes["http://schemas.openxmlformats.org/wordprocessingml/2006/main"]
	if !ok || prefix != "w" {
		t.Errorf("Expected prefix 'w' for main namespace, got %q (found=%t)", prefix, ok)
	}
}

func TestDescendants_DocumentOrder(t *testing.T) {
	root, _, err := parseXML([]byte(sampleXML))
	if err != nil {
		t.Fatalf("parseXML failed: %v", err)
	}

	texts := root.Descendants("t")
	if len(texts) != 3 {
		t.Fatalf("Expected 3 text nodes, got %d", len(texts))
	}

	want := []string{"hello", "cell", "world"}
	for i, tn := range texts {
		if tn.Text != want[i] {
			t.Errorf("Text node %d: expected %q, got %q", i, want[i], tn.Text)
		}
	}
}

func TestHasAncestor_TableContainment(t *testing.T) {
	root, _, err := parseXML([]byte(sampleXML))
	if err != nil {
		t.Fatalf("parseXML failed: %v", err)
	}

	var inTable, outside int
	for _, tn := range root.Descendants("t") {
		if tn.HasAncestor("tbl") {
			inTable++
		} else {
			outside++
		}
	}

	if inTable != 1 {
		t.Errorf("Expected 1 text node inside a table, got %d", inTable)
	}
	if outside != 2 {
		t.Errorf("Expected 2 text nodes outside tables, got %d", outside)
	}
}

func TestRemove_DetachesNode(t *testing.T) {
	root, _, err := parseXML([]byte(sampleXML))
	if err != nil {
		t.Fatalf("parseXML failed: %v", err)
	}

	body := root.FirstChild("body")
	paragraphs := body.Descendants("p")
	first := paragraphs[0]

	if !first.Remove() {
		t.Fatal("Remove returned false for attached node")
	}
	if first.Parent != nil {
		t.Error("Removed node still has a parent")
	}
	if first.Remove() {
		t.Error("Remove returned true for already detached node")
	}

	remaining := 0
	for _, tn := range body.Descendants("t") {
		if tn.Text == "hello" {
			remaining++
		}
	}
	if remaining != 0 {
		t.Error("Removed paragraph text still reachable from body")
	}
}

func TestSerialize_RoundTrip(t *testing.T) {
	root, prefixes, err := parseXML([]byte(sampleXML))
	if err != nil {
		t.Fatalf("parseXML failed: %v", err)
	}

	out := string(serialize(root, prefixes))

	if !strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`) {
		t.Error("Serialized output missing XML declaration")
	}
	for _, want := range []string{
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`,
		"<w:t>hello</w:t>",
		"<w:t>cell</w:t>",
		"<w:sectPr/>",
		"</w:document>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Serialized output missing %q:\n%s", want, out)
		}
	}

	// A second parse of the serialized form must yield the same content.
	root2, prefixes2, err := parseXML([]byte(out))
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if string(serialize(root2, prefixes2)) != out {
		t.Error("Serialization is not stable across a round trip")
	}
}

func TestSerialize_EscapesText(t *testing.T) {
	xmlIn := `<w:document xmlns:w="http://example.com/w"><w:body><w:p><w:r><w:t>a &lt; b &amp; c</w:t></w:r></w:p></w:body></w:document>`
	root, prefixes, err := parseXML([]byte(xmlIn))
	if err != nil {
		t.Fatalf("parseXML failed: %v", err)
	}

	out := string(serialize(root, prefixes))
	if !strings.Contains(out, "a &lt; b &amp; c") {
		t.Errorf("Special characters not re-escaped:\n%s", out)
	}
}
