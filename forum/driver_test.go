package forum

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/hazyhaar/threadbot/dom"
)

const testBase = "https://forum.example.com/"

// fakeDriver serves canned pages from memory and records what the bot did.
type fakeDriver struct {
	pages   map[string]string // url -> html
	fail    map[string]error  // url -> navigation error
	current *dom.Document

	navigations []string
	typed       map[string]string
	clicks      []string
	values      map[string]string

	// submit maps a submit selector to where it lands and what it shows.
	submit map[string]submitResult
}

type submitResult struct {
	location string
	html     string
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		pages:  make(map[string]string),
		fail:   make(map[string]error),
		typed:  make(map[string]string),
		values: make(map[string]string),
		submit: make(map[string]submitResult),
	}
}

func (f *fakeDriver) load(url, html string) *dom.Document {
	doc, err := dom.ParseString(html, url)
	if err != nil {
		panic(err)
	}
	f.current = doc
	return doc
}

func (f *fakeDriver) Navigate(_ context.Context, url string) (*dom.Document, error) {
	f.navigations = append(f.navigations, url)
	if err := f.fail[url]; err != nil {
		return nil, err
	}
	html, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("fake: no page at %s", url)
	}
	return f.load(url, html), nil
}

func (f *fakeDriver) Document(context.Context) (*dom.Document, error) {
	if f.current == nil {
		return f.load("about:blank", "<html><body></body></html>"), nil
	}
	return f.current, nil
}

func (f *fakeDriver) present(selector string) error {
	if f.current == nil || f.current.Find(selector).Len() == 0 {
		return fmt.Errorf("fake: %q not on page", selector)
	}
	return nil
}

func (f *fakeDriver) Type(_ context.Context, selector, text string) error {
	if err := f.present(selector); err != nil {
		return err
	}
	f.typed[selector] = text
	return nil
}

func (f *fakeDriver) Click(_ context.Context, selector string) error {
	if err := f.present(selector); err != nil {
		return err
	}
	f.clicks = append(f.clicks, selector)
	return nil
}

func (f *fakeDriver) SubmitAndWait(_ context.Context, selector string) (string, error) {
	if err := f.present(selector); err != nil {
		return "", err
	}
	res, ok := f.submit[selector]
	if !ok {
		return "", errors.New("fake: submit leads nowhere")
	}
	f.load(res.location, res.html)
	return res.location, nil
}

func (f *fakeDriver) SetValue(_ context.Context, selector, value string) error {
	if err := f.present(selector); err != nil {
		return err
	}
	f.values[selector] = value
	return nil
}

// --- page builders ---

type fakePost struct {
	id     int
	author string
	uid    int
	time   int64
	body   string
}

func (p fakePost) html() string {
	return fmt.Sprintf(`<li id="post-%d" class="message" data-author="%s">
	<div class="messageUserInfo"><a href="members/%s.%d/" class="username">%s</a></div>
	<blockquote class="messageText">%s</blockquote>
	<div class="messageMeta"><abbr class="DateTime" data-time="%d">date</abbr></div>
</li>`, p.id, p.author, strings.ToLower(p.author), p.uid, p.author, p.body, p.time)
}

// threadPage renders a thread page; next is the raw href of the next-page
// link, empty on the last page.
func threadPage(next string, posts ...fakePost) string {
	var b strings.Builder
	b.WriteString(`<html><head><base href="` + testBase + `">`)
	if next != "" {
		b.WriteString(`<link rel="next" href="` + next + `">`)
	}
	b.WriteString(`</head><body>` + accountBar("Hiori") + `<div id="content" class="thread_view"><ol id="messageList">`)
	for _, p := range posts {
		b.WriteString(p.html())
	}
	b.WriteString(`</ol></div></body></html>`)
	return b.String()
}

func accountBar(user string) string {
	if user == "" {
		return `<div id="navigation"><a href="login/">Log in</a></div>`
	}
	return `<div id="navigation"><a class="accountUsername" href="account/">` + user + `</a></div>`
}

func errorPage() string {
	return `<html><body><div id="content" class="error"><div class="errorPanel">The requested thread could not be found.</div></div></body></html>`
}

func loginPage() string {
	return `<html><body>` + accountBar("") + `<form id="pageLogin" action="login/login" method="post">
	<input id="ctrl_pageLogin_login" name="login" type="text">
	<input id="ctrl_pageLogin_password" name="password" type="password">
	<input type="submit" value="Log in">
</form></body></html>`
}

func replyPage() string {
	return `<html><body>` + accountBar("Hiori") + `<div class="titleBar"><h1>Reply to Thread</h1></div>
<form id="ThreadReply" action="threads/7/add-reply" method="post">
	<div class="redactor_toolbar"><a class="redactor_btn_switchmode">BB</a></div>
	<textarea name="message"></textarea>
	<input type="submit" value="Post Reply">
</form></body></html>`
}

func testConfig() Config {
	cfg := DefaultConfig(testBase)
	cfg.Credentials = Credentials{Username: "hiori", Password: "s3cret"}
	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBot(t *testing.T, drv *fakeDriver) *Bot {
	t.Helper()
	b, err := New(testConfig(), drv, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b
}

// loggedIn puts drv on a page that shows the bot's account.
func loggedIn(drv *fakeDriver) {
	drv.load(testBase, `<html><body>`+accountBar("Hiori")+`</body></html>`)
}
