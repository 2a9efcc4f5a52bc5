// Package dispatch implements the per-recipient fan-out at the heart of the
// gateway. A dispatch takes one validated message, normalizes each recipient,
// hands each one to the channel transport, and collects one outcome per
// recipient in the exact order the recipients were supplied. Individual
// failures never abort the batch; only a failed batch precondition does.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"notifygate/internal/recipient"
	"notifygate/internal/transport"
	"notifygate/internal/types"
)

// sentMessage is the per-recipient success text.
const sentMessage = "Sent successfully."

// failedPrefix prefixes the per-recipient failure text; the transport or
// normalization reason follows it.
const failedPrefix = "Failed to sent - "

// TransportResolver resolves a channel name to its transport. Satisfied by
// *transport.Registry; extracted so engine tests can inject fakes.
type TransportResolver interface {
	Lookup(ch types.Channel) (transport.Transport, error)
}

// Engine fans one message out to its recipients. The fan-out is bounded by
// maxParallel concurrent sends; outcome slots are indexed by recipient
// position, so output order always matches input order regardless of which
// send finishes first.
type Engine struct {
	resolver    TransportResolver
	normalizer  *recipient.Normalizer
	metrics     Metrics
	maxParallel int
	logger      *slog.Logger
}

// NewEngine creates an Engine. maxParallel values below 1 are treated as 1
// (strictly sequential). A nil metrics falls back to the no-op collector.
func NewEngine(
	resolver TransportResolver,
	normalizer *recipient.Normalizer,
	metrics Metrics,
	maxParallel int,
	logger *slog.Logger,
) *Engine {
	if maxParallel < 1 {
		maxParallel = 1
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		resolver:    resolver,
		normalizer:  normalizer,
		metrics:     metrics,
		maxParallel: maxParallel,
		logger:      logger,
	}
}

// Dispatch delivers msg to every recipient and returns one outcome per
// recipient, positionally aligned with msg.Recipients.
//
// A non-nil error means the request failed as a whole before any recipient
// was attempted: the channel is unknown, or the transport's batch
// precondition rejected the message. In that case no outcomes are returned.
// Once the fan-out starts, per-recipient failures are captured in their
// outcome slots and the returned error is nil.
func (e *Engine) Dispatch(ctx context.Context, msg *types.Message) ([]types.DispatchOutcome, error) {
	tr, err := e.resolver.Lookup(msg.Channel)
	if err != nil {
		return nil, err
	}

	if pc, ok := tr.(transport.BatchPreconditioner); ok {
		if err := pc.BatchPrecondition(msg); err != nil {
			return nil, err
		}
	}

	kind := msg.Channel.Kind()
	outcomes := make([]types.DispatchOutcome, len(msg.Recipients))

	var g errgroup.Group
	g.SetLimit(e.maxParallel)

	for i, r := range msg.Recipients {
		i, r := i, r
		g.Go(func() error {
			outcomes[i] = e.dispatchOne(ctx, tr, kind, r, msg)
			return nil
		})
	}

	// Workers never return errors; failures live in the outcome slots.
	g.Wait()

	return outcomes, nil
}

// dispatchOne normalizes and sends to a single recipient, producing its
// outcome. Receiver carries the normalized identifier when normalization
// succeeded, the raw input otherwise.
func (e *Engine) dispatchOne(
	ctx context.Context,
	tr transport.Transport,
	kind types.ChannelKind,
	r types.Recipient,
	msg *types.Message,
) types.DispatchOutcome {
	normalized, err := e.normalizer.Normalize(r, kind)
	if err != nil {
		e.metrics.RecordDispatch(ctx, msg.Channel, MetricFailure)
		return failedOutcome(r.Raw, err)
	}

	start := time.Now()
	err = tr.SendOne(ctx, normalized, msg)
	e.metrics.RecordLatency(ctx, msg.Channel, time.Since(start))

	if err != nil {
		e.metrics.RecordDispatch(ctx, msg.Channel, MetricFailure)
		e.logger.WarnContext(ctx, "dispatch attempt failed",
			"channel", string(msg.Channel),
			"receiver", normalized,
			"reference_id", msg.ReferenceID,
			"error", err.Error(),
		)
		return failedOutcome(normalized, err)
	}

	e.metrics.RecordDispatch(ctx, msg.Channel, MetricSuccess)
	return types.DispatchOutcome{
		Receiver: normalized,
		Status:   types.StatusSuccess,
		Message:  sentMessage,
	}
}

// failedOutcome renders the failure text from the error. AppError messages
// are written to be caller-safe and are used verbatim; anything else falls
// back to the raw error text.
func failedOutcome(receiver string, err error) types.DispatchOutcome {
	reason := err.Error()
	code := types.ErrCodeInternalUnexpected

	var appErr *types.AppError
	if errors.As(err, &appErr) {
		reason = appErr.Message
		code = appErr.Code
	}

	return types.DispatchOutcome{
		Receiver: receiver,
		Status:   types.StatusFailed,
		Message:  failedPrefix + reason,
		ErrCode:  code,
	}
}
