package mailer

import "context"

// Attachment is a file attached to an outbound message.
type Attachment struct {
	Filename string `json:"filename"`
	Content  []byte `json:"content"`
}

// Message is one outbound email.
type Message struct {
	From        string
	To          []string
	Subject     string
	HTML        string
	Text        string
	ReplyTo     string
	Attachments []Attachment
}

// Sender delivers messages through an email provider. Delivery is
// fire-and-forget from the caller's perspective: errors are reported
// but never retried here.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}
