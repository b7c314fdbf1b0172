package browser

import (
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// blockable maps the names accepted in browser.resource_blocking to the
// CDP resource types they cut. Documents, XHR and fetch are never listed:
// the login and reply forms depend on them.
var blockable = map[string]proto.NetworkResourceType{
	"images":      proto.NetworkResourceTypeImage,
	"fonts":       proto.NetworkResourceTypeFont,
	"media":       proto.NetworkResourceTypeMedia,
	"stylesheets": proto.NetworkResourceTypeStylesheet,
}

// blockedTypes resolves config names to resource types.
func blockedTypes(names []string) (map[proto.NetworkResourceType]bool, error) {
	out := make(map[proto.NetworkResourceType]bool, len(names))
	for _, n := range names {
		t, ok := blockable[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return nil, fmt.Errorf("browser: cannot block resource type %q", n)
		}
		out[t] = true
	}
	return out, nil
}

// blockResources fails matching requests before they leave the browser.
func (s *Session) blockResources(names []string) error {
	blocked, err := blockedTypes(names)
	if err != nil {
		return err
	}
	router := s.page.HijackRequests()
	err = router.Add("*", "", func(h *rod.Hijack) {
		if blocked[h.Request.Type()] {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	if err != nil {
		return fmt.Errorf("browser: hijack: %w", err)
	}
	go router.Run()
	s.router = router
	s.cfg.Logger.Debug("browser: blocking resources", "types", names)
	return nil
}
