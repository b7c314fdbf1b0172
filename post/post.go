// Package post models a single forum message and the bot commands it
// carries.
//
// A Post owns a detached copy of its message body, so the page it was parsed
// from can be discarded, and every read works on a further copy: reading the
// text never changes what the next read sees.
package post

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/threadbot/dom"
	"github.com/hazyhaar/threadbot/forumerr"
	"github.com/hazyhaar/threadbot/mention"
)

// Layout holds the selectors that locate a post's fields inside its message
// container.
type Layout struct {
	Body       string `yaml:"body"`
	AuthorLink string `yaml:"author_link"`
	Time       string `yaml:"time"`
	Containers string `yaml:"containers"` // quotes and spoilers, excluded from command text
	Mention    string `yaml:"mention"`
}

// DefaultLayout matches XenForo 1.x thread pages.
func DefaultLayout() Layout {
	return Layout{
		Body:       ".messageText",
		AuthorLink: ".messageUserInfo a.username",
		Time:       "abbr.DateTime",
		Containers: ".bbCodeQuote, .bbCodeSpoilerContainer",
		Mention:    mention.DefaultAnchor,
	}
}

// Post is one forum message. Fields are read-only after Parse.
type Post struct {
	ID        int
	AuthorID  int
	Author    string
	Timestamp int64

	body   dom.Selection
	layout Layout
}

// Parse builds a Post from its message container (the <li id="post-N">
// element). Every field is required; on failure no Post is returned.
func Parse(el dom.Selection, layout Layout) (*Post, error) {
	const op = "post.Parse"
	if el.Len() == 0 {
		return nil, forumerr.Parsef(op, "empty message container")
	}
	el = el.First()

	rawID, ok := el.Attr("id")
	if !ok {
		return nil, forumerr.Parsef(op, "message container has no id")
	}
	parts := strings.Split(rawID, "-")
	id, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || len(parts) < 2 {
		return nil, forumerr.Parsef(op, "malformed post id %q", rawID)
	}

	href, ok := el.Find(layout.AuthorLink).Attr("href")
	if !ok {
		return nil, forumerr.Parsef(op, "post %d: no author link", id)
	}
	authorID, err := authorIDFromHref(href)
	if err != nil {
		return nil, forumerr.Parsef(op, "post %d: author link %q: %v", id, href, err)
	}

	author, _ := el.Attr("data-author")
	if author == "" {
		return nil, forumerr.Parsef(op, "post %d: no data-author", id)
	}

	body := el.Find(layout.Body).First()
	if body.Len() == 0 {
		return nil, forumerr.Parsef(op, "post %d: no message body", id)
	}

	rawTime, ok := el.Find(layout.Time).Attr("data-time")
	if !ok {
		return nil, forumerr.Parsef(op, "post %d: no timestamp", id)
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(rawTime), 10, 64)
	if err != nil {
		return nil, forumerr.Parsef(op, "post %d: malformed timestamp %q", id, rawTime)
	}

	return &Post{
		ID:        id,
		AuthorID:  authorID,
		Author:    author,
		Timestamp: ts,
		body:      body.Clone(),
		layout:    layout,
	}, nil
}

// authorIDFromHref extracts 54321 from "members/hiori.54321/". Only the part
// after the last '.' of the last path segment is considered, so digits in
// the member name do not leak into the id.
func authorIDFromHref(href string) (int, error) {
	seg := strings.TrimRight(href, "/")
	if i := strings.LastIndexByte(seg, '/'); i >= 0 {
		seg = seg[i+1:]
	}
	if i := strings.LastIndexByte(seg, '.'); i >= 0 {
		seg = seg[i+1:]
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, seg)
	if digits == "" {
		return 0, strconv.ErrSyntax
	}
	return strconv.Atoi(digits)
}

// Text returns the message text, trimmed. With removeContainers, quote and
// spoiler blocks are left out. With escapeMentions, mention anchors are
// rewritten to their @USER:<id>|<name> token first.
func (p *Post) Text(removeContainers, escapeMentions bool) string {
	c := p.body.Clone()
	if escapeMentions {
		mention.Escape(c, p.layout.Mention)
	}
	if removeContainers {
		c.Find(p.layout.Containers).Remove()
	}
	return strings.TrimSpace(c.Text())
}

var (
	ugcPolicy = bluemonday.UGCPolicy()
	mdConv    = converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)
)

// HTML returns the message body markup, sanitized for re-display.
func (p *Post) HTML() (string, error) {
	raw, err := p.body.HTML()
	if err != nil {
		return "", forumerr.Parsef("post.HTML", "post %d: %v", p.ID, err)
	}
	return strings.TrimSpace(ugcPolicy.Sanitize(raw)), nil
}

// Markdown renders the message body, quotes included, as markdown.
func (p *Post) Markdown() (string, error) {
	raw, err := p.body.HTML()
	if err != nil {
		return "", forumerr.Parsef("post.Markdown", "post %d: %v", p.ID, err)
	}
	md, err := mdConv.ConvertString(raw)
	if err != nil {
		return "", forumerr.Parsef("post.Markdown", "post %d: %v", p.ID, err)
	}
	return strings.TrimSpace(md), nil
}

type postJSON struct {
	PID  int       `json:"pid"`
	UID  int       `json:"uid"`
	User string    `json:"user"`
	Time int64     `json:"time"`
	Cmds []Command `json:"cmds"`
}

// MarshalJSON emits {"pid","uid","user","time","cmds"}.
func (p *Post) MarshalJSON() ([]byte, error) {
	cmds := p.Commands(0)
	if cmds == nil {
		cmds = []Command{}
	}
	return json.Marshal(postJSON{
		PID:  p.ID,
		UID:  p.AuthorID,
		User: p.Author,
		Time: p.Timestamp,
		Cmds: cmds,
	})
}
