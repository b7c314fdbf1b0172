package forum

import (
	"context"

	"github.com/hazyhaar/threadbot/dom"
	"github.com/hazyhaar/threadbot/forumerr"
	"github.com/hazyhaar/threadbot/post"
)

// FetchThreadPosts loads the thread page at url and returns its posts in
// document order. With followNext it keeps following the page's "next"
// link, appending each page's posts, until a page has none.
//
// A next link that points back to an already visited page, or a walk longer
// than Walk.MaxPages (when set), is a Parse failure.
func (b *Bot) FetchThreadPosts(ctx context.Context, url string, followNext bool) ([]*post.Post, error) {
	const op = "forum.FetchThreadPosts"
	log := b.opLogger(op)

	var posts []*post.Post
	visited := make(map[string]bool)
	next := url
	for page := 1; next != ""; page++ {
		if visited[next] {
			return nil, forumerr.Parsef(op, "next-page link cycles back to %s", next)
		}
		if limit := b.cfg.Walk.MaxPages; limit > 0 && page > limit {
			return nil, forumerr.Parsef(op, "thread exceeds %d pages", limit)
		}
		visited[next] = true

		log.Info("forum: visiting", "url", next, "page", page)
		doc, err := b.drv.Navigate(ctx, next)
		if err != nil {
			return nil, forumerr.NavigationErr(op, next, err)
		}

		pagePosts, err := b.pagePosts(doc)
		if err != nil {
			return nil, err
		}
		posts = append(posts, pagePosts...)

		next = ""
		if followNext {
			next, err = b.nextPage(doc)
			if err != nil {
				return nil, err
			}
		}
	}
	log.Debug("forum: walk finished", "posts", len(posts), "pages", len(visited))
	return posts, nil
}

// pagePosts parses every message container on one thread page.
func (b *Bot) pagePosts(doc *dom.Document) ([]*post.Post, error) {
	const op = "forum.FetchThreadPosts"
	if doc.Find(b.cfg.Selectors.ErrorPage).Len() > 0 {
		return nil, forumerr.NotFoundf(op, "%s is an error page", doc.URL)
	}

	containers := doc.Find(b.cfg.Selectors.MessageList)
	if containers.Len() == 0 {
		return nil, forumerr.Parsef(op, "%s has no %q", doc.URL, b.cfg.Selectors.MessageList)
	}

	posts := make([]*post.Post, 0, containers.Len())
	for i := 0; i < containers.Len(); i++ {
		p, err := post.Parse(containers.Eq(i), b.cfg.Selectors.Post)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// nextPage returns the absolute URL of the next page, or "" on the last one.
func (b *Bot) nextPage(doc *dom.Document) (string, error) {
	href, ok := doc.Find(b.cfg.Selectors.NextPage).Attr("href")
	if !ok || href == "" {
		return "", nil
	}
	abs, err := doc.Resolve(href)
	if err != nil {
		return "", forumerr.Parsef("forum.FetchThreadPosts", "next-page link %q: %v", href, err)
	}
	return abs, nil
}

// FetchPostsSince logs in if needed, walks the thread from the page holding
// postID and returns the posts strictly newer than it.
func (b *Bot) FetchPostsSince(ctx context.Context, postID int) ([]*post.Post, error) {
	if err := b.Login(ctx); err != nil {
		return nil, err
	}
	all, err := b.FetchThreadPosts(ctx, b.PostURL(postID), true)
	if err != nil {
		return nil, err
	}
	var out []*post.Post
	for _, p := range all {
		if p.ID > postID {
			out = append(out, p)
		}
	}
	return out, nil
}

// FetchCommandsSince returns the commands of every post strictly newer than
// postID, in page then post order. limit caps the commands taken from each
// post; 0 takes them all.
func (b *Bot) FetchCommandsSince(ctx context.Context, postID, limit int) ([]ThreadCommand, error) {
	posts, err := b.FetchPostsSince(ctx, postID)
	if err != nil {
		return nil, err
	}
	return collectCommands(posts, limit), nil
}

func collectCommands(posts []*post.Post, limit int) []ThreadCommand {
	var out []ThreadCommand
	var prev *post.Post
	for _, p := range posts {
		for i, c := range p.Commands(limit) {
			out = append(out, ThreadCommand{
				Command:   c,
				PostID:    p.ID,
				AuthorID:  p.AuthorID,
				Author:    p.Author,
				Timestamp: p.Timestamp,
				Index:     i,
				Post:      p,
				Prev:      prev,
			})
		}
		prev = p
	}
	return out
}
