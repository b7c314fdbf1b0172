package forum

import (
	"context"
	"strings"
	"testing"

	"github.com/hazyhaar/threadbot/forumerr"
)

const replyURL = testBase + "threads/7/reply"

func replyFixture(result string) *fakeDriver {
	drv := newFakeDriver()
	loggedIn(drv)
	drv.pages[replyURL] = replyPage()
	drv.submit[`#ThreadReply input[type="submit"]`] = submitResult{
		location: testBase + "threads/7/page-3#post-105",
		html:     result,
	}
	return drv
}

func TestReplyThread_Validation(t *testing.T) {
	for name, content := range map[string]string{
		"empty":    "",
		"too long": strings.Repeat("x", MaxReplyLength+1),
	} {
		t.Run(name, func(t *testing.T) {
			drv := newFakeDriver()
			b := newTestBot(t, drv)

			err := b.ReplyThread(context.Background(), 7, content)
			if !forumerr.Is(err, forumerr.Validation) {
				t.Fatalf("err = %v, want Validation", err)
			}
			if len(drv.navigations) != 0 {
				t.Errorf("navigated before validating: %v", drv.navigations)
			}
		})
	}
}

func TestReplyThread_MaxLengthCountsCharacters(t *testing.T) {
	drv := replyFixture(threadPage(""))
	b := newTestBot(t, drv)

	// Multi-byte runes: over 100000 bytes, exactly 100000 characters.
	content := strings.Repeat("é", MaxReplyLength)
	if err := b.ReplyThread(context.Background(), 7, content); err != nil {
		t.Fatalf("ReplyThread: %v", err)
	}
}

func TestReplyThread_Success(t *testing.T) {
	drv := replyFixture(threadPage("", fakePost{id: 105, author: "Hiori", uid: 54321, time: 70, body: "dealt"}))
	b := newTestBot(t, drv)

	if err := b.ReplyThread(context.Background(), 7, "[B]dealt[/B]"); err != nil {
		t.Fatal(err)
	}
	if got := drv.values[`textarea[name="message"]`]; got != "[B]dealt[/B]" {
		t.Errorf("message value = %q", got)
	}
	if len(drv.clicks) != 1 || drv.clicks[0] != ".redactor_btn_switchmode" {
		t.Errorf("clicks = %v, want the mode toggle", drv.clicks)
	}
	if len(drv.navigations) != 1 || drv.navigations[0] != replyURL {
		t.Errorf("navigations = %v", drv.navigations)
	}
}

func TestReplyThread_LogsInFirst(t *testing.T) {
	drv := replyFixture(threadPage(""))
	drv.current = nil
	drv.pages[testBase+"login/"] = loginPage()
	drv.submit[`#pageLogin input[type="submit"]`] = submitResult{
		location: testBase,
		html:     `<html><body>` + accountBar("Hiori") + `</body></html>`,
	}
	b := newTestBot(t, drv)

	if err := b.ReplyThread(context.Background(), 7, "hello"); err != nil {
		t.Fatal(err)
	}
	if len(drv.navigations) != 2 || drv.navigations[0] != testBase+"login/" {
		t.Errorf("navigations = %v, want login then reply form", drv.navigations)
	}
}

func TestReplyThread_LoginFailureSurfacesUnchanged(t *testing.T) {
	drv := replyFixture(threadPage(""))
	drv.current = nil
	drv.pages[testBase+"login/"] = `<html><body>maintenance</body></html>`
	b := newTestBot(t, drv)

	err := b.ReplyThread(context.Background(), 7, "hello")
	if !forumerr.Is(err, forumerr.Parse) {
		t.Fatalf("err = %v, want the login Parse failure", err)
	}
	if !strings.HasPrefix(err.Error(), "forum.Login") {
		t.Errorf("err = %v, want it attributed to forum.Login", err)
	}
}

func TestReplyThread_NotFound(t *testing.T) {
	drv := replyFixture("")
	drv.pages[replyURL] = errorPage()
	b := newTestBot(t, drv)

	if err := b.ReplyThread(context.Background(), 7, "hello"); !forumerr.Is(err, forumerr.NotFound) {
		t.Fatalf("err = %v, want NotFound", err)
	}
}

func TestReplyThread_MissingControls(t *testing.T) {
	drv := replyFixture("")
	drv.pages[replyURL] = `<html><body><div class="titleBar"><h1>Reply</h1></div><textarea name="message"></textarea></body></html>`
	b := newTestBot(t, drv)

	if err := b.ReplyThread(context.Background(), 7, "hello"); !forumerr.Is(err, forumerr.Parse) {
		t.Fatalf("err = %v, want Parse", err)
	}
	if len(drv.values) != 0 {
		t.Error("content injected into an incomplete form")
	}
}

func TestReplyThread_ErrorOverlay(t *testing.T) {
	drv := replyFixture(`<html><body><div class="errorOverlay"><div class="errorDetails">
		You must wait at least 30 seconds before performing this action.
	</div></div></body></html>`)
	b := newTestBot(t, drv)

	err := b.ReplyThread(context.Background(), 7, "hello")
	if !forumerr.Is(err, forumerr.Submission) {
		t.Fatalf("err = %v, want Submission", err)
	}
	if !strings.Contains(err.Error(), "You must wait at least 30 seconds") {
		t.Errorf("overlay text missing: %v", err)
	}
}
