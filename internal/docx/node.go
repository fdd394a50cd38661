// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Node is a single element of a parsed XML part. The tree keeps parent
// links so containment rules (e.g. "is this image inside a table cell")
// can be evaluated by walking up the ownership chain.
type Node struct {
	Name     xml.Name
	Attrs    []xml.Attr
	Parent   *Node
	Children []*Node
	Text     string
}

// parseXML builds a node tree from raw part XML and collects the
// namespace prefixes declared in the document (URI -> prefix), which are
// needed to serialize the tree back with the original qualified names.
func parseXML(data []byte) (*Node, map[string]string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	prefixes := map[string]string{
		"http://www.w3.org/XML/1998/namespace": "xml",
	}

	var root *Node
	var current *Node

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("malformed XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			attrs := make([]xml.Attr, len(t.Attr))
			copy(attrs, t.Attr)

			// Record namespace declarations so qualified names
			// survive the round trip.
			for _, attr := range attrs {
				if attr.Name.Space == "xmlns" {
					prefixes[attr.Value] = attr.Name.Local
				} else if attr.Name.Space == "" && attr.Name.Local == "xmlns" {
					prefixes[attr.Value] = ""
				}
			}

			node := &Node{
				Name:   t.Name,
				Attrs:  attrs,
				Parent: current,
			}
			if current != nil {
				current.Children = append(current.Children, node)
			} else if root == nil {
				root = node
			}
			current = node

		case xml.CharData:
			if current != nil {
				current.Text += string(t)
			}

		case xml.EndElement:
			if current != nil {
				// OOXML has no mixed content; whitespace that
				// accumulated between child elements is layout
				// noise, not data.
				if len(current.Children) > 0 && strings.TrimSpace(current.Text) == "" {
					current.Text = ""
				}
				current = current.Parent
			}
		}
	}

	if root == nil {
		return nil, nil, fmt.Errorf("no root element found")
	}
	return root, prefixes, nil
}

// Local returns the element's local (unprefixed) name.
func (n *Node) Local() string {
	return n.Name.Local
}

// HasAncestor reports whether any element on the ownership chain above n
// has the given local name.
func (n *Node) HasAncestor(local string) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Name.Local == local {
			return true
		}
	}
	return false
}

// NearestAncestor returns the closest ancestor with the given local name,
// or nil if there is none.
func (n *Node) NearestAncestor(local string) *Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Name.Local == local {
			return p
		}
	}
	return nil
}

// Descendants returns every descendant element with the given local name
// in document order. The walk is stack-driven rather than recursive so
// deeply nested shapes cannot blow the stack and the visit order stays
// deterministic.
func (n *Node) Descendants(local string) []*Node {
	var found []*Node
	stack := make([]*Node, 0, len(n.Children))
	for i := len(n.Children) - 1; i >= 0; i-- {
		stack = append(stack, n.Children[i])
	}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node.Name.Local == local {
			found = append(found, node)
		}
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, node.Children[i])
		}
	}
	return found
}

// FirstChild returns the first direct child with the given local name.
func (n *Node) FirstChild(local string) *Node {
	for _, c := range n.Children {
		if c.Name.Local == local {
			return c
		}
	}
	return nil
}

// Remove detaches n from its parent. Returns false if n has no parent or
// is not among its parent's children.
func (n *Node) Remove() bool {
	if n.Parent == nil {
		return false
	}
	siblings := n.Parent.Children
	for i, c := range siblings {
		if c == n {
			n.Parent.Children = append(siblings[:i], siblings[i+1:]...)
			n.Parent = nil
			return true
		}
	}
	return false
}

// serialize writes the tree back to XML using the part's recorded
// namespace prefixes, prepending the standard declaration Word emits.
func serialize(root *Node, prefixes map[string]string) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\r\n")
	writeNode(&buf, root, prefixes)
	return buf.Bytes()
}

func writeNode(buf *bytes.Buffer, n *Node, prefixes map[string]string) {
	tag := qualifiedName(n.Name, prefixes)
	buf.WriteByte('<')
	buf.WriteString(tag)
	for _, attr := range n.Attrs {
		buf.WriteByte(' ')
		buf.WriteString(attrName(attr.Name, prefixes))
		buf.WriteString(`="`)
		escapeXML(buf, attr.Value)
		buf.WriteByte('"')
	}

	if len(n.Children) == 0 && n.Text == "" {
		buf.WriteString("/>")
		return
	}

	buf.WriteByte('>')
	if n.Text != "" {
		escapeXML(buf, n.Text)
	}
	for _, c := range n.Children {
		writeNode(buf, c, prefixes)
	}
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteByte('>')
}

func qualifiedName(name xml.Name, prefixes map[string]string) string {
	if name.Space == "" {
		return name.Local
	}
	if prefix, ok := prefixes[name.Space]; ok && prefix != "" {
		return prefix + ":" + name.Local
	}
	return name.Local
}

func attrName(name xml.Name, prefixes map[string]string) string {
	switch {
	case name.Space == "xmlns":
		return "xmlns:" + name.Local
	case name.Space == "":
		return name.Local
	case name.Space == "xml":
		return "xml:" + name.Local
	default:
		return qualifiedName(name, prefixes)
	}
}

func escapeXML(buf *bytes.Buffer, s string) {
	// xml.EscapeText never fails on a bytes.Buffer
	xml.EscapeText(buf, []byte(s)) //nolint:errcheck
}
