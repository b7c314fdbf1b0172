// Package dom is a small markup query engine over golang.org/x/net/html,
// with CSS selectors compiled by cascadia.
//
// A Selection is an ordered set of nodes. Query methods never mutate the
// tree; Remove and SetText do, so callers that must not disturb a shared
// document work on a Clone.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed HTML page together with the URL it was loaded from.
type Document struct {
	URL  string
	root *html.Node
}

// Parse parses an HTML document.
func Parse(r io.Reader, pageURL string) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	return &Document{URL: pageURL, root: root}, nil
}

// ParseString parses an HTML document held in memory.
func ParseString(s, pageURL string) (*Document, error) {
	return Parse(strings.NewReader(s), pageURL)
}

// Root returns the document node as a one-element selection.
func (d *Document) Root() Selection {
	return Selection{nodes: []*html.Node{d.root}}
}

// Find returns every element in the document matching sel.
func (d *Document) Find(sel string) Selection {
	return d.Root().Find(sel)
}

// Resolve turns a link found in the document into an absolute URL, honouring
// a <base href> element when one is present.
func (d *Document) Resolve(ref string) (string, error) {
	base := d.URL
	if href, ok := d.Find("base[href]").Attr("href"); ok && href != "" {
		if b, err := resolveAgainst(d.URL, href); err == nil {
			base = b
		}
	}
	return resolveAgainst(base, ref)
}

func resolveAgainst(base, ref string) (string, error) {
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("dom: resolve %q: %w", ref, err)
	}
	if base == "" {
		if !r.IsAbs() {
			return "", fmt.Errorf("dom: resolve %q: no base URL", ref)
		}
		return r.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("dom: resolve base %q: %w", base, err)
	}
	return b.ResolveReference(r).String(), nil
}

// Selection is an ordered set of nodes.
type Selection struct {
	nodes []*html.Node
}

// Len returns the number of nodes.
func (s Selection) Len() int { return len(s.nodes) }

// Nodes exposes the underlying nodes.
func (s Selection) Nodes() []*html.Node { return s.nodes }

// Eq returns the i-th node, or an empty selection when out of range.
func (s Selection) Eq(i int) Selection {
	if i < 0 || i >= len(s.nodes) {
		return Selection{}
	}
	return Selection{nodes: s.nodes[i : i+1]}
}

// First is Eq(0).
func (s Selection) First() Selection { return s.Eq(0) }

// Each calls f for every node in order.
func (s Selection) Each(f func(int, Selection)) {
	for i := range s.nodes {
		f(i, s.Eq(i))
	}
}

// Find returns the descendants of the selection matching sel, in document
// order. An invalid selector yields an empty selection.
func (s Selection) Find(sel string) Selection {
	m, err := Compile(sel)
	if err != nil {
		return Selection{}
	}
	return s.FindMatcher(m)
}

// FindMatcher is Find with a precompiled selector.
func (s Selection) FindMatcher(m *Selector) Selection {
	var out []*html.Node
	var seen map[*html.Node]bool
	if len(s.nodes) > 1 {
		seen = make(map[*html.Node]bool)
	}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if m.Match(c) {
				if seen == nil {
					out = append(out, c)
				} else if !seen[c] {
					seen[c] = true
					out = append(out, c)
				}
			}
			walk(c)
		}
	}
	for _, n := range s.nodes {
		walk(n)
	}
	return Selection{nodes: out}
}

// Is reports whether any node matches sel.
func (s Selection) Is(sel string) bool {
	m, err := Compile(sel)
	if err != nil {
		return false
	}
	for _, n := range s.nodes {
		if m.Match(n) {
			return true
		}
	}
	return false
}

// Not returns the nodes that do not match sel.
func (s Selection) Not(sel string) Selection {
	m, err := Compile(sel)
	if err != nil {
		return s
	}
	var out []*html.Node
	for _, n := range s.nodes {
		if !m.Match(n) {
			out = append(out, n)
		}
	}
	return Selection{nodes: out}
}

// Attr returns an attribute of the first node.
func (s Selection) Attr(name string) (string, bool) {
	if len(s.nodes) == 0 {
		return "", false
	}
	return lookupAttr(s.nodes[0], name)
}

// Text returns the combined text of every node. <br> elements contribute a
// line break; comments are skipped.
func (s Selection) Text() string {
	var b strings.Builder
	for _, n := range s.nodes {
		writeText(&b, n)
	}
	return b.String()
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		if n.DataAtom == atom.Br {
			b.WriteByte('\n')
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
}

// HTML renders the inner markup of every node.
func (s Selection) HTML() (string, error) {
	var buf bytes.Buffer
	for _, n := range s.nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&buf, c); err != nil {
				return "", fmt.Errorf("dom: render: %w", err)
			}
		}
	}
	return buf.String(), nil
}

// Clone deep-copies every node. The copies are detached from any tree.
func (s Selection) Clone() Selection {
	out := make([]*html.Node, len(s.nodes))
	for i, n := range s.nodes {
		out[i] = cloneNode(n)
	}
	return Selection{nodes: out}
}

func cloneNode(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = make([]html.Attribute, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(cloneNode(child))
	}
	return c
}

// Remove detaches every node from its parent.
func (s Selection) Remove() Selection {
	for _, n := range s.nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
	return s
}

// SetText replaces the children of every node with a single text node.
func (s Selection) SetText(text string) Selection {
	for _, n := range s.nodes {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			n.RemoveChild(c)
			c = next
		}
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
	return s
}
