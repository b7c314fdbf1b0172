package dom

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Selector is a compiled CSS selector group.
type Selector struct {
	src string
	m   cascadia.Selector
}

// Compile parses a selector or a comma-separated selector list.
func Compile(src string) (*Selector, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, fmt.Errorf("dom: empty selector")
	}
	m, err := cascadia.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("dom: selector %q: %w", src, err)
	}
	return &Selector{src: src, m: m}, nil
}

// String returns the selector source.
func (s *Selector) String() string { return s.src }

// Match reports whether n matches any selector of the group.
func (s *Selector) Match(n *html.Node) bool {
	return s.m.Match(n)
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}
