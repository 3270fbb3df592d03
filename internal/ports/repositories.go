package ports

import "context"

// EnvelopeJournal remembers which inbound message ids were already handled so
// that at-least-once redeliveries are not applied twice.
type EnvelopeJournal interface {
	// MarkHandled records messageID and reports whether it was new.
	MarkHandled(ctx context.Context, messageID, messageType string) (bool, error)
}
