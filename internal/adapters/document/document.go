// Package document queries serialized HTML snapshots with goquery.
package document

import (
	"fmt"
	"strings"

	"twitfetch/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

// Node is one element of a parsed snapshot. The zero value is an empty node
// that matches nothing.
type Node struct {
	sel *goquery.Selection
}

// Parse loads a snapshot and returns its root node.
func Parse(html string) (Node, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Node{}, fmt.Errorf("parse document: %w", err)
	}
	return Node{sel: doc.Selection}, nil
}

// Find returns the first descendant matching e.
func (n Node) Find(e domain.Element) (Node, bool) {
	if n.sel == nil || !e.Valid() {
		return Node{}, false
	}
	found := n.sel.Find(e.Selector()).First()
	if found.Length() == 0 {
		return Node{}, false
	}
	return Node{sel: found}, true
}

// FindAll returns every descendant matching e in document order.
func (n Node) FindAll(e domain.Element) []Node {
	if n.sel == nil || !e.Valid() {
		return nil
	}
	var nodes []Node
	n.sel.Find(e.Selector()).Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, Node{sel: s})
	})
	return nodes
}

// Attr returns the named attribute of the node.
func (n Node) Attr(name string) (string, bool) {
	if n.sel == nil {
		return "", false
	}
	return n.sel.Attr(name)
}

// Text returns the combined text of the node and its descendants.
func (n Node) Text() string {
	if n.sel == nil {
		return ""
	}
	return n.sel.Text()
}

// Tag returns the lower-case element name.
func (n Node) Tag() string {
	if n.sel == nil || n.sel.Length() == 0 {
		return ""
	}
	return goquery.NodeName(n.sel)
}

// Parent returns the enclosing element.
func (n Node) Parent() (Node, bool) {
	if n.sel == nil {
		return Node{}, false
	}
	p := n.sel.Parent()
	if p.Length() == 0 {
		return Node{}, false
	}
	return Node{sel: p}, true
}

// Closest returns the nearest ancestor, or the node itself, matching e.
func (n Node) Closest(e domain.Element) (Node, bool) {
	if n.sel == nil || !e.Valid() {
		return Node{}, false
	}
	c := n.sel.Closest(e.Selector())
	if c.Length() == 0 {
		return Node{}, false
	}
	return Node{sel: c}, true
}

// Same reports whether both nodes point at the same element.
func (n Node) Same(other Node) bool {
	if n.sel == nil || other.sel == nil || n.sel.Length() == 0 || other.sel.Length() == 0 {
		return false
	}
	return n.sel.Get(0) == other.sel.Get(0)
}

// Exists reports whether the node points at an element.
func (n Node) Exists() bool {
	return n.sel != nil && n.sel.Length() > 0
}
