// Package notify delivers rendered alert reports over email channels.
package notify

import "context"

// Email is a fully rendered alert message ready for delivery.
type Email struct {
	To         []string
	Subject    string
	HTMLBody   string
	Attachment Attachment
}

// Attachment is the CSV report attached to the message. A zero value
// means no attachment.
type Attachment struct {
	Filename string
	Data     []byte
}

// Notifier sends report emails to an external channel. Implementations
// must be safe for concurrent use.
type Notifier interface {
	// Name identifies the channel in logs and error messages.
	Name() string
	// Send delivers the email. It should respect context cancellation
	// and return an error describing what failed.
	Send(ctx context.Context, email Email) error
}
