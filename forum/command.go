package forum

import (
	"encoding/json"

	"github.com/hazyhaar/threadbot/bbcode"
	"github.com/hazyhaar/threadbot/mention"
	"github.com/hazyhaar/threadbot/post"
)

// ThreadCommand is one !command together with the post it came from.
type ThreadCommand struct {
	post.Command

	PostID    int
	AuthorID  int
	Author    string
	Timestamp int64
	// Index is the command's position within its post.
	Index int

	// Post is the source post; Prev is the retained post before it, nil for
	// the first one.
	Post *post.Post
	Prev *post.Post
}

type threadCommandJSON struct {
	PostID    int    `json:"pid"`
	AuthorID  int    `json:"uid"`
	Author    string `json:"user"`
	Timestamp int64  `json:"time"`
	Index     int    `json:"index"`
	Action    string `json:"action"`
	Value     string `json:"value"`
	PrevID    int    `json:"prev_pid,omitempty"`
}

func (tc ThreadCommand) MarshalJSON() ([]byte, error) {
	out := threadCommandJSON{
		PostID:    tc.PostID,
		AuthorID:  tc.AuthorID,
		Author:    tc.Author,
		Timestamp: tc.Timestamp,
		Index:     tc.Index,
		Action:    tc.Action,
		Value:     tc.Value,
	}
	if tc.Prev != nil {
		out.PrevID = tc.Prev.ID
	}
	return json.Marshal(out)
}

// QuoteCommand quotes the command line back to its author, ready to be
// prefixed to a reply. Markup typed into the line is quoted literally.
func QuoteCommand(tc ThreadCommand) string {
	return bbcode.Quote(bbcode.Escape(mention.Strip(tc.Value)), tc.Author, tc.AuthorID, tc.PostID)
}
