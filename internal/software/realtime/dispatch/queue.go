// Package dispatch runs inbound envelopes one at a time, in arrival order.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"ride-hail-realtime/internal/general/contracts"
	"ride-hail-realtime/internal/general/logger"
	"ride-hail-realtime/internal/general/metrics"
	"ride-hail-realtime/internal/ports"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	// DefaultDepthWarning is the backlog size above which the queue warns.
	DefaultDepthWarning = 50
	depthWarnInterval   = 10 * time.Second
	tracerName          = "ride-hail-realtime/dispatch"
)

var (
	ErrAlreadyRunning = errors.New("dispatch: worker already running")
	ErrHandlerPanic   = errors.New("handler panicked")
)

// Handler applies the side effects of one decoded envelope.
type Handler interface {
	Handle(ctx context.Context, env *contracts.Envelope, p contracts.Payload) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, env *contracts.Envelope, p contracts.Payload) error

func (f HandlerFunc) Handle(ctx context.Context, env *contracts.Envelope, p contracts.Payload) error {
	return f(ctx, env, p)
}

// Acker acknowledges a parsed envelope. It never fails from the caller's view.
type Acker interface {
	Ack(ctx context.Context, env *contracts.Envelope)
}

type task struct {
	raw        []byte
	seq        uint64
	enqueuedAt time.Time
}

// Queue is an unbounded FIFO drained by a single worker.
type Queue struct {
	handler Handler
	acker   Acker
	log     *logger.Logger
	tracer  trace.Tracer
	onError ErrorHandler

	warnAt   int
	warnOnce rate.Sometimes
	dedupe   *deduper

	mu      sync.Mutex
	tasks   []task
	seq     uint64
	signal  chan struct{}
	running atomic.Bool
}

type Option func(*Queue)

// WithDepthWarning sets the backlog size above which a warning is logged.
func WithDepthWarning(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.warnAt = n
		}
	}
}

// WithDedupe sets the in-memory window size and an optional durable journal.
func WithDedupe(size int, journal ports.EnvelopeJournal) Option {
	return func(q *Queue) {
		q.dedupe.mem = newWindow(size)
		q.dedupe.journal = journal
	}
}

// WithErrorHandler replaces the default logging of pipeline failures.
func WithErrorHandler(h ErrorHandler) Option {
	return func(q *Queue) {
		if h != nil {
			q.onError = h
		}
	}
}

func New(h Handler, a Acker, log *logger.Logger, opts ...Option) *Queue {
	q := &Queue{
		handler:  h,
		acker:    a,
		log:      log,
		tracer:   otel.Tracer(tracerName),
		warnAt:   DefaultDepthWarning,
		warnOnce: rate.Sometimes{Interval: depthWarnInterval},
		dedupe:   &deduper{mem: newWindow(DefaultDedupeWindow), log: log},
		signal:   make(chan struct{}, 1),
	}
	q.onError = q.logError
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue appends a copy of raw and returns immediately. It is safe to call
// from transport goroutines.
func (q *Queue) Enqueue(raw []byte) {
	t := task{raw: append([]byte(nil), raw...), enqueuedAt: time.Now()}

	q.mu.Lock()
	q.seq++
	t.seq = q.seq
	q.tasks = append(q.tasks, t)
	depth := len(q.tasks)
	q.mu.Unlock()

	metrics.QueueDepth.Set(float64(depth))
	if depth > q.warnAt {
		q.warnOnce.Do(func() {
			q.log.Warn(context.Background(), "dispatch_backlog", "dispatch queue is falling behind", map[string]any{
				"depth":     depth,
				"threshold": q.warnAt,
			})
		})
	}

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Depth reports how many envelopes wait for the worker.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Run drains the queue until ctx is cancelled. A task already taken off the
// queue runs to completion even if ctx ends meanwhile.
func (q *Queue) Run(ctx context.Context) error {
	if !q.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer q.running.Store(false)

	work := context.WithoutCancel(ctx)
	for {
		if ctx.Err() != nil {
			return nil
		}
		t, ok := q.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return nil
			case <-q.signal:
			}
			continue
		}
		q.process(work, t)
	}
}

func (q *Queue) pop() (task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return task{}, false
	}
	t := q.tasks[0]
	q.tasks[0] = task{}
	q.tasks = q.tasks[1:]
	metrics.QueueDepth.Set(float64(len(q.tasks)))
	return t, true
}

func (q *Queue) process(ctx context.Context, t task) {
	started := time.Now()
	ctx, span := q.tracer.Start(ctx, "dispatch.envelope", trace.WithAttributes(
		attribute.Int64("dispatch.seq", int64(t.seq)),
		attribute.Int64("dispatch.wait_ms", started.Sub(t.enqueuedAt).Milliseconds()),
	))
	defer span.End()

	env, err := contracts.Parse(t.raw)
	if err != nil {
		q.fail(ctx, span, &PipelineError{Kind: KindMalformed, Cause: err})
		metrics.EnvelopesReceived.WithLabelValues("unknown", string(KindMalformed)).Inc()
		return
	}

	ctx = q.log.WithMessageID(ctx, env.MessageID)
	typeLabel := "unknown"
	if env.Type.Valid() {
		typeLabel = string(env.Type)
	}
	span.SetAttributes(
		attribute.String("messaging.message.id", env.MessageID),
		attribute.String("ridehail.envelope.type", string(env.Type)),
	)

	outcome := q.handle(ctx, span, env)
	metrics.EnvelopesReceived.WithLabelValues(typeLabel, outcome).Inc()
	metrics.EnvelopeDuration.WithLabelValues(typeLabel).Observe(time.Since(started).Seconds())

	if env.Type.RequiresAck() {
		q.acker.Ack(ctx, env)
	}
}

// handle runs dedupe, decode and the handler. It returns the outcome label.
func (q *Queue) handle(ctx context.Context, span trace.Span, env *contracts.Envelope) string {
	if q.dedupe.duplicate(ctx, env.MessageID, env.Type) {
		q.log.Debug(ctx, "dispatch_duplicate", "envelope already handled", map[string]any{"type": env.Type})
		return "duplicate"
	}

	p, err := contracts.Decode(env)
	if err != nil {
		kind := KindInvalidPayload
		if errors.Is(err, contracts.ErrUnknownMessageType) {
			kind = KindUnknownType
		}
		q.fail(ctx, span, &PipelineError{Kind: kind, MessageID: env.MessageID, Type: env.Type, Cause: err})
		return string(kind)
	}

	rideID := contracts.RideIDOf(p)
	ctx = q.log.WithRideID(ctx, rideID)
	if rideID != "" {
		span.SetAttributes(attribute.String("ridehail.ride.id", rideID))
	}

	if err := q.invoke(ctx, env, p); err != nil {
		kind := KindHandlerFailure
		if errors.Is(err, ErrHandlerPanic) {
			kind = KindHandlerPanic
		}
		q.fail(ctx, span, &PipelineError{Kind: kind, MessageID: env.MessageID, Type: env.Type, RideID: rideID, Cause: err})
		return string(kind)
	}
	return "handled"
}

func (q *Queue) invoke(ctx context.Context, env *contracts.Envelope, p contracts.Payload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return q.handler.Handle(ctx, env, p)
}

func (q *Queue) fail(ctx context.Context, span trace.Span, perr *PipelineError) {
	span.RecordError(perr)
	span.SetStatus(codes.Error, string(perr.Kind))
	q.onError(ctx, perr)
}

func (q *Queue) logError(ctx context.Context, perr *PipelineError) {
	details := map[string]any{"kind": perr.Kind}
	if perr.Type != "" {
		details["type"] = perr.Type
	}
	if perr.RideID != "" {
		details["ride_id"] = perr.RideID
	}
	q.log.Error(ctx, "dispatch_"+string(perr.Kind), "inbound envelope dropped", perr.Cause, details)
}
