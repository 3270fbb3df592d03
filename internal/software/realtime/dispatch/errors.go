package dispatch

import (
	"context"
	"fmt"

	"ride-hail-realtime/internal/general/contracts"
)

// Kind classifies why an inbound envelope did not reach a clean handler run.
type Kind string

const (
	KindMalformed      Kind = "malformed_envelope"
	KindUnknownType    Kind = "unknown_type"
	KindInvalidPayload Kind = "invalid_payload"
	KindHandlerFailure Kind = "handler_failure"
	KindHandlerPanic   Kind = "handler_panic"
)

// PipelineError describes one dropped or failed envelope. MessageID and Type
// are empty for malformed input.
type PipelineError struct {
	Kind      Kind
	MessageID string
	Type      contracts.MessageType
	RideID    string
	Cause     error
}

func (e *PipelineError) Error() string {
	if e.MessageID == "" {
		return fmt.Sprintf("dispatch %s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("dispatch %s (type=%s id=%s ride=%s): %v", e.Kind, e.Type, e.MessageID, e.RideID, e.Cause)
}

func (e *PipelineError) Unwrap() error { return e.Cause }

// ErrorHandler observes pipeline failures. It runs on the worker goroutine.
type ErrorHandler func(ctx context.Context, err *PipelineError)
