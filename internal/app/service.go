package app

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"payment-gateway/internal/core/domain"
)

var tracer = otel.Tracer("payment-gateway/internal/app")

// startSpan opens a span for a service operation.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name)
}

// endSpan records err on span before ending it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// storageError tags a repository failure with ErrStorageUnavailable while
// keeping the cause in the chain for logging.
func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}

// idError keeps ErrIDGeneration as is and treats anything else as a store
// failure.
func idError(op string, err error) error {
	if errors.Is(err, domain.ErrIDGeneration) {
		return err
	}
	return storageError(op, err)
}
