package mail

import (
	"testing"

	gmail "google.golang.org/api/gmail/v1"
)

func TestSenderName(t *testing.T) {
	cases := map[string]string{
		`"Priya Sharma" <priya@example.com>`: "Priya Sharma",
		"Priya Sharma <priya@example.com>":   "Priya Sharma",
		"priya@example.com":                  "priya@example.com",
	}
	for in, want := range cases {
		if got := senderName(in); got != want {
			t.Errorf("senderName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSummarizeHeaders(t *testing.T) {
	msg := &gmail.Message{
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "Asha <asha@example.com>"},
				{Name: "Subject", Value: "Dinner plans"},
			},
		},
	}
	if got := summarizeHeaders(msg); got != "From Asha about Dinner plans." {
		t.Errorf("summarizeHeaders = %q", got)
	}

	empty := &gmail.Message{Payload: &gmail.MessagePart{}}
	if got := summarizeHeaders(empty); got != "One about no subject." {
		t.Errorf("summarizeHeaders(empty) = %q", got)
	}
}
