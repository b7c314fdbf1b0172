package browser

import (
	"testing"

	"github.com/go-rod/rod/lib/proto"
)

func TestBlockedTypes(t *testing.T) {
	got, err := blockedTypes([]string{"images", " Fonts"})
	if err != nil {
		t.Fatal(err)
	}
	if !got[proto.NetworkResourceTypeImage] || !got[proto.NetworkResourceTypeFont] {
		t.Errorf("blocked = %v", got)
	}
	if got[proto.NetworkResourceTypeMedia] || got[proto.NetworkResourceTypeDocument] {
		t.Errorf("unrequested types blocked: %v", got)
	}
}

func TestBlockedTypes_RefusesDocuments(t *testing.T) {
	for _, name := range []string{"document", "xhr", "fetch", "videos"} {
		if _, err := blockedTypes([]string{name}); err == nil {
			t.Errorf("blockedTypes(%q) accepted", name)
		}
	}
}
