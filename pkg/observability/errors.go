package observability

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrType classifies the kind of failure recorded on a span, independent of
// the Go error value, so traces stay queryable across error-message changes.
type ErrType string

// Recognized error types.
const (
	ErrTypeDependencyUnavailable ErrType = "dependency_unavailable"
	ErrTypeValidation            ErrType = "validation"
	ErrTypeInternal              ErrType = "internal"
	ErrTypeTimeout               ErrType = "timeout"
)

// ErrSource classifies which side of a boundary produced the failure.
type ErrSource string

// Recognized error sources.
const (
	ErrSourceDependency ErrSource = "dependency"
	ErrSourceServer     ErrSource = "server"
	ErrSourceClient     ErrSource = "client"
)

// RecordSpanError marks span as errored, attaches the error, and tags it
// with a type/source pair for trace-query filtering.
func RecordSpanError(span trace.Span, err error, errType ErrType, source ErrSource) {
	if err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(
		attribute.String("error.type", string(errType)),
		attribute.String("error.source", string(source)),
	)
}
