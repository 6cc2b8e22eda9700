package push

import "context"

// Message is one push notification addressed to a single device token.
type Message struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// Sender delivers a push message to one device token. Sends are best-effort;
// callers bound each call with a per-send timeout and count the outcome
// rather than retrying.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
