package forum

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/hazyhaar/threadbot/forumerr"
)

// MaxReplyLength is the longest reply body accepted, in characters.
const MaxReplyLength = 100000

// ReplyThread posts content as a new reply to threadID.
//
// Content is checked before anything is loaded. A page that navigates
// fine but shows the error overlay is still a Submission failure.
func (b *Bot) ReplyThread(ctx context.Context, threadID int, content string) error {
	const op = "forum.ReplyThread"

	switch n := utf8.RuneCountInString(content); {
	case n == 0:
		return forumerr.Validationf(op, "empty reply")
	case n > MaxReplyLength:
		return forumerr.Validationf(op, "reply is %d characters, max %d", n, MaxReplyLength)
	}
	if threadID <= 0 {
		return forumerr.Validationf(op, "invalid thread id %d", threadID)
	}

	if err := b.Login(ctx); err != nil {
		return err
	}

	log := b.opLogger(op)
	replyURL := b.ReplyURL(threadID)
	log.Info("forum: opening reply form", "url", replyURL, "thread", threadID)
	doc, err := b.drv.Navigate(ctx, replyURL)
	if err != nil {
		return forumerr.NavigationErr(op, replyURL, err)
	}

	sel := b.cfg.Selectors
	if doc.Find(sel.ErrorPage).Len() > 0 {
		return forumerr.NotFoundf(op, "thread %d: %s is an error page", threadID, replyURL)
	}
	for _, s := range []string{sel.ReplyTitle, sel.ReplyToggle, sel.ReplySubmit} {
		if doc.Find(s).Len() == 0 {
			return forumerr.Parsef(op, "reply form %s has no %q", replyURL, s)
		}
	}

	// The rich-text editor ignores programmatic input until switched to
	// its raw textarea.
	if err := b.drv.Click(ctx, sel.ReplyToggle); err != nil {
		return forumerr.NavigationErr(op, replyURL, err)
	}
	if err := b.drv.SetValue(ctx, sel.ReplyMessage, content); err != nil {
		return forumerr.NavigationErr(op, replyURL, err)
	}
	location, err := b.drv.SubmitAndWait(ctx, sel.ReplySubmit)
	if err != nil {
		return forumerr.NavigationErr(op, replyURL, err)
	}

	result, err := b.drv.Document(ctx)
	if err != nil {
		return forumerr.NavigationErr(op, location, err)
	}
	if overlay := result.Find(sel.ErrorOverlay); overlay.Len() > 0 {
		return forumerr.Submissionf(op, "thread %d rejected the reply: %s", threadID, collapse(overlay.Text()))
	}
	log.Info("forum: reply posted", "thread", threadID, "location", location, "chars", utf8.RuneCountInString(content))
	return nil
}

// collapse folds runs of whitespace so overlay text fits on one line.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
