// Package tei reads the TEI header documents returned by GROBID and turns
// them into a title, an author list, and a scored publication year.
package tei

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrEmptyDocument is returned when the response contains no root element.
var ErrEmptyDocument = errors.New("empty TEI document")

// node is a namespace-agnostic XML element. Names are local names, so
// "tei:date" and a default-namespace "date" are the same thing.
type node struct {
	name     string
	attrs    map[string]string
	children []*node
	// parts holds character data and child elements in document order so
	// that text() can reproduce the element's full text.
	parts []any
}

func parseTree(r io.Reader) (*node, error) {
	dec := xml.NewDecoder(r)
	var root *node
	var stack []*node

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding TEI: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name.Local, attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				n.attrs[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("decoding TEI: multiple root elements")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
				parent.parts = append(parent.parts, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				top.parts = append(top.parts, string(t))
			}
		}
	}

	if root == nil {
		return nil, ErrEmptyDocument
	}
	return root, nil
}

// rawText concatenates all character data below n without separators.
func (n *node) rawText(b *strings.Builder) {
	for _, p := range n.parts {
		switch v := p.(type) {
		case string:
			b.WriteString(v)
		case *node:
			v.rawText(b)
		}
	}
}

// text returns the element's text with whitespace runs collapsed.
func (n *node) text() string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	n.rawText(&b)
	return strings.Join(strings.Fields(b.String()), " ")
}

func (n *node) attr(name string) string {
	if n == nil {
		return ""
	}
	return n.attrs[name]
}

// descendants returns every element below n named name, in document order.
func (n *node) descendants(name string) []*node {
	var out []*node
	var walk func(*node)
	walk = func(cur *node) {
		for _, c := range cur.children {
			if c.name == name {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// findAll follows a path of descendant steps, like ".//a//b//c".
func (n *node) findAll(path ...string) []*node {
	if n == nil {
		return nil
	}
	current := []*node{n}
	for _, step := range path {
		seen := make(map[*node]bool)
		var next []*node
		for _, c := range current {
			for _, d := range c.descendants(step) {
				if !seen[d] {
					seen[d] = true
					next = append(next, d)
				}
			}
		}
		current = next
	}
	return current
}

// find returns the first match of findAll, or nil.
func (n *node) find(path ...string) *node {
	if all := n.findAll(path...); len(all) > 0 {
		return all[0]
	}
	return nil
}
