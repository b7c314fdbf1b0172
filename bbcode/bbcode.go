// Package bbcode builds BBCode fragments for outgoing replies.
package bbcode

import (
	"fmt"
	"strings"
)

// Quote wraps message in a [QUOTE] block attributed to user. pid and uid are
// omitted when zero, the attribution when user is empty.
//
//	[QUOTE="hiori, post: 12345, member: 123"]hi[/QUOTE]
func Quote(message, user string, uid, pid int) string {
	var attr string
	if user != "" {
		info := user
		if pid != 0 {
			info += fmt.Sprintf(", post: %d", pid)
		}
		if uid != 0 {
			info += fmt.Sprintf(", member: %d", uid)
		}
		attr = `="` + info + `"`
	}
	return "[QUOTE" + attr + "]" + message + "[/QUOTE]\n"
}

// Escape neutralises BBCode tags in untrusted text so it renders literally.
func Escape(text string) string {
	if !strings.Contains(text, "[") {
		return text
	}
	return "[PLAIN]" + text + "[/PLAIN]"
}
