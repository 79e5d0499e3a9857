package model

import "time"

// ProcessedMessage records an inbox message for which a reply draft was
// successfully created. The unique message id keeps a message from being
// drafted more than once across runs.
type ProcessedMessage struct {
	ID        int64     `db:"id"`
	MessageID string    `db:"message_id"`
	CreatedAt time.Time `db:"created_at"`
}

// Signature is a normalized mail signature as returned by the provider's
// signatures or identities endpoint.
type Signature struct {
	Content   string
	IsDefault bool
	Name      string
}

// DraftRequest describes a threaded reply draft to be created at the
// provider. To may be a raw recipient string with display names; the mail
// client sanitizes it to bare addresses before sending.
type DraftRequest struct {
	// ReferenceMessageID is the inbox message being replied to.
	ReferenceMessageID string

	Subject    string
	Body       string
	To         string
	From       string
	InReplyTo  string
	References string
}
