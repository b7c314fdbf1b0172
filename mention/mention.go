// Package mention converts forum user mentions between their markup form (an
// anchor carrying a user id and display name) and an inline text token:
//
//	@USER:<id>|<name>
//
// Spaces in the name are replaced by the literal Marker so that the token
// survives whitespace splitting. Names containing ':' or '|' are not
// supported; their round trip is undefined.
package mention

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hazyhaar/threadbot/dom"
	"github.com/hazyhaar/threadbot/forumerr"
)

const (
	// Prefix starts every escaped token.
	Prefix = "@USER:"
	// Marker stands in for spaces inside an escaped display name.
	Marker = "&nbsp;"
	// DefaultAnchor selects mention anchors in XenForo message bodies.
	DefaultAnchor = "a.username[data-user]"
)

// Token is a decoded mention.
type Token struct {
	UserID      int
	DisplayName string
}

// String returns the escaped inline form.
func (t Token) String() string {
	return Prefix + strconv.Itoa(t.UserID) + "|" + strings.ReplaceAll(t.DisplayName, " ", Marker)
}

// Escape rewrites the visible text of every anchor under sel matching
// anchorSelector to its escaped token. It mutates sel, so callers pass a
// clone. Anchors already escaped, or whose data-user attribute cannot be
// read, are left untouched. It returns the number of anchors rewritten.
func Escape(sel dom.Selection, anchorSelector string) int {
	n := 0
	sel.Find(anchorSelector).Each(func(_ int, a dom.Selection) {
		if strings.HasPrefix(strings.TrimSpace(a.Text()), Prefix) {
			return
		}
		tok, ok := fromAnchor(a)
		if !ok {
			return
		}
		a.SetText(tok.String())
		n++
	})
	return n
}

// fromAnchor reads data-user="31294, @Display Name".
func fromAnchor(a dom.Selection) (Token, bool) {
	raw, ok := a.Attr("data-user")
	if !ok {
		return Token{}, false
	}
	idPart, namePart, found := strings.Cut(raw, ",")
	if !found {
		return Token{}, false
	}
	id, err := strconv.Atoi(strings.TrimSpace(idPart))
	if err != nil {
		return Token{}, false
	}
	name := strings.TrimPrefix(strings.TrimSpace(namePart), "@")
	if name == "" {
		name = strings.TrimPrefix(strings.TrimSpace(a.Text()), "@")
	}
	if name == "" {
		return Token{}, false
	}
	return Token{UserID: id, DisplayName: name}, true
}

var (
	leadingToken = regexp.MustCompile(`^@USER:(\d+)\|(\S+)`)
	anyToken     = regexp.MustCompile(`@USER:\d+\|(\S+)`)
)

// Decode parses the token at the start of text.
func Decode(text string) (Token, error) {
	m := leadingToken.FindStringSubmatch(text)
	if m == nil {
		return Token{}, forumerr.Parsef("mention.Decode", "no mention token at start of %q", truncate(text, 40))
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return Token{}, forumerr.Parsef("mention.Decode", "user id %q: %v", m[1], err)
	}
	return Token{UserID: id, DisplayName: unmark(m[2])}, nil
}

// Strip rewrites every token in text to a plain "@Display Name" mention.
func Strip(text string) string {
	return anyToken.ReplaceAllStringFunc(text, func(tok string) string {
		name := tok[strings.IndexByte(tok, '|')+1:]
		return "@" + unmark(name)
	})
}

func unmark(s string) string {
	return strings.ReplaceAll(s, Marker, " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
