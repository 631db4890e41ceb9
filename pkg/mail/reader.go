// Package mail summarizes the unread inbox through the Gmail API.
//
// Authorization uses a pre-issued OAuth token stored on disk; run the
// usual Google consent flow once on a desktop machine and copy the token
// file to the robot.
package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/jarvispi/go-jarvis/internal/log"
)

// Reader fetches unread message summaries.
type Reader struct {
	svc    *gmail.Service
	logger *slog.Logger
}

// NewReader builds a Gmail client from OAuth client credentials and the
// saved user token. The token refreshes itself as long as the refresh
// token stays valid.
func NewReader(ctx context.Context, clientID, clientSecret, tokenPath string) (*Reader, error) {
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailReadonlyScope},
	}

	tok, err := tokenFromFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("mail: load token: %w", err)
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("mail: gmail service: %w", err)
	}

	return &Reader{svc: svc, logger: log.Component("mail")}, nil
}

// UnreadSummary returns a spoken-style summary of up to max unread
// messages in the inbox.
func (r *Reader) UnreadSummary(ctx context.Context, max int) (string, error) {
	if max <= 0 {
		max = 3
	}

	list, err := r.svc.Users.Messages.List("me").
		Q("is:unread in:inbox").
		MaxResults(int64(max)).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("mail: list unread: %w", err)
	}

	if len(list.Messages) == 0 {
		return "Your inbox is clear, no unread email.", nil
	}

	var lines []string
	for _, m := range list.Messages {
		msg, err := r.svc.Users.Messages.Get("me", m.Id).
			Format("metadata").
			MetadataHeaders("From", "Subject").
			Context(ctx).
			Do()
		if err != nil {
			r.logger.Warn("fetch message failed", "id", m.Id, "error", err)
			continue
		}
		lines = append(lines, summarizeHeaders(msg))
	}

	if len(lines) == 0 {
		return "", fmt.Errorf("mail: could not fetch any message")
	}

	count := "You have unread email. "
	if list.ResultSizeEstimate > 0 {
		count = fmt.Sprintf("You have about %d unread emails. ", list.ResultSizeEstimate)
	}
	return count + strings.Join(lines, " "), nil
}

func summarizeHeaders(msg *gmail.Message) string {
	var from, subject string
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch h.Name {
			case "From":
				from = senderName(h.Value)
			case "Subject":
				subject = h.Value
			}
		}
	}
	if subject == "" {
		subject = "no subject"
	}
	if from == "" {
		return fmt.Sprintf("One about %s.", subject)
	}
	return fmt.Sprintf("From %s about %s.", from, subject)
}

// senderName strips the address part from "Name <addr@host>".
func senderName(from string) string {
	if i := strings.Index(from, "<"); i > 0 {
		return strings.TrimSpace(strings.Trim(from[:i], `" `))
	}
	return from
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}
