package forum

import (
	"context"
	"strings"
	"testing"

	"github.com/hazyhaar/threadbot/forumerr"
)

func TestIsLoggedIn(t *testing.T) {
	tests := []struct {
		name string
		page string
		want bool
	}{
		{"no indicator", `<html><body>` + accountBar("") + `</body></html>`, false},
		{"blank page", `<html></html>`, false},
		{"exact", `<html><body>` + accountBar("hiori") + `</body></html>`, true},
		{"case insensitive", `<html><body>` + accountBar("HIORI") + `</body></html>`, true},
		{"padded", `<html><body><a class="accountUsername">  Hiori
		</a></body></html>`, true},
		{"someone else", `<html><body>` + accountBar("Hiorin") + `</body></html>`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv := newFakeDriver()
			drv.load(testBase, tt.page)
			b := newTestBot(t, drv)

			got, err := b.IsLoggedIn(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("IsLoggedIn = %v, want %v", got, tt.want)
			}
			if len(drv.navigations) != 0 {
				t.Errorf("IsLoggedIn navigated: %v", drv.navigations)
			}
		})
	}
}

func TestLogin_AlreadyLoggedInIsNoop(t *testing.T) {
	drv := newFakeDriver()
	loggedIn(drv)
	b := newTestBot(t, drv)

	if err := b.Login(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(drv.navigations) != 0 || len(drv.typed) != 0 {
		t.Errorf("no-op login touched the page: nav=%v typed=%v", drv.navigations, drv.typed)
	}
}

func TestLogin_Success(t *testing.T) {
	drv := newFakeDriver()
	drv.pages[testBase+"login/"] = loginPage()
	drv.submit[`#pageLogin input[type="submit"]`] = submitResult{
		location: "https://forum.example.com",
		html:     `<html><body>` + accountBar("Hiori") + `</body></html>`,
	}
	b := newTestBot(t, drv)

	if err := b.Login(context.Background()); err != nil {
		t.Fatal(err)
	}
	if drv.typed["#ctrl_pageLogin_login"] != "hiori" || drv.typed["#ctrl_pageLogin_password"] != "s3cret" {
		t.Errorf("typed = %v", drv.typed)
	}
	ok, err := b.IsLoggedIn(context.Background())
	if err != nil || !ok {
		t.Errorf("IsLoggedIn after login = %v, %v", ok, err)
	}
}

func TestLogin_MissingFormIsParseFailure(t *testing.T) {
	drv := newFakeDriver()
	drv.pages[testBase+"login/"] = `<html><body><form id="pageLogin"><input id="ctrl_pageLogin_login"></form></body></html>`
	b := newTestBot(t, drv)

	err := b.Login(context.Background())
	if !forumerr.Is(err, forumerr.Parse) {
		t.Fatalf("err = %v, want Parse", err)
	}
	if len(drv.typed) != 0 {
		t.Error("credentials typed into an incomplete form")
	}
}

func TestLogin_RejectedIsSubmissionFailure(t *testing.T) {
	drv := newFakeDriver()
	drv.pages[testBase+"login/"] = loginPage()
	drv.submit[`#pageLogin input[type="submit"]`] = submitResult{
		location: testBase + "login/login",
		html:     loginPage(),
	}
	b := newTestBot(t, drv)

	err := b.Login(context.Background())
	if !forumerr.Is(err, forumerr.Submission) {
		t.Fatalf("err = %v, want Submission", err)
	}
	if !strings.Contains(err.Error(), "login/login") {
		t.Errorf("error does not name the landing page: %v", err)
	}
}

func TestLogin_NavigationFailure(t *testing.T) {
	drv := newFakeDriver()
	b := newTestBot(t, drv)

	if err := b.Login(context.Background()); !forumerr.Is(err, forumerr.Navigation) {
		t.Fatalf("err = %v, want Navigation", err)
	}
}
