// Package command turns transcribed speech into actions and answers.
//
// A fixed intent table handles the commands the assistant can execute by
// itself: sensor questions, scans, head movement, email. Everything else is
// free conversation and goes to the inference backend, online when quota
// and network allow, offline otherwise.
package command

import "strings"

// wakeWords are stripped from the front of a command so "jarvis what is
// the temperature" and "what is the temperature" match the same rules.
var wakeWords = []string{"hey jarvis", "ok jarvis", "jarvis"}

// Normalize lowercases, strips punctuation and wake words, and collapses
// whitespace. Matching and caching both key off the normalized form.
func Normalize(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ', r == '.', r == '-':
			b.WriteRune(r)
		case r == '?', r == '!', r == ',':
			b.WriteRune(' ')
		default:
			// Keep non-ASCII letters so Hindi text survives.
			if r > 127 {
				b.WriteRune(r)
			} else {
				b.WriteRune(' ')
			}
		}
	}
	s := strings.Join(strings.Fields(b.String()), " ")
	for _, w := range wakeWords {
		if s == w {
			return ""
		}
		if strings.HasPrefix(s, w+" ") {
			s = strings.TrimPrefix(s, w+" ")
			break
		}
	}
	return s
}
