// Package mail delivers notification email for the access workflows. Sends
// happen strictly after the owning transaction commits; a failure here is
// logged and surfaced separately, never rolled back into data state.
package mail

import "context"

type Message struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
}

// Dispatcher is the outbound email contract consumed by event handlers.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
	Enqueue(msg Message) error
}
