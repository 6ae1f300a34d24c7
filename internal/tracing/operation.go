package tracing

import (
	"context"
	"fmt"
	"reflect"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Operation is one traced registry call.
type Operation struct {
	ID   string
	span trace.Span
}

// Start opens a span named name and tags it with the operation id from ctx,
// generating one if needed. A nil tracer yields a non-recording span.
func Start(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, *Operation) {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	ctx, id := EnsureOperationID(ctx)
	ctx, span := tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(append([]attribute.KeyValue{attribute.String(AttrOperationID, id)}, attrs...)...)
	return ctx, &Operation{ID: id, span: span}
}

// Event records a pipeline stage.
func (o *Operation) Event(name string, attrs ...attribute.KeyValue) {
	o.span.AddEvent(name, trace.WithAttributes(attrs...))
}

// SetAttributes adds attributes once they are known, e.g. a new group id.
func (o *Operation) SetAttributes(attrs ...attribute.KeyValue) {
	o.span.SetAttributes(attrs...)
}

// End closes the span, recording err as the outcome.
func (o *Operation) End(err error) {
	if err != nil {
		o.span.RecordError(err)
		o.span.SetAttributes(attribute.String(AttrErrorType, errorType(err)))
		o.span.SetStatus(codes.Error, err.Error())
	} else {
		o.span.SetStatus(codes.Ok, "")
	}
	o.span.End()
}

// errorType names the first error in the chain that is not a bare wrapper
// from fmt.Errorf or errors.Join. Multi-error wrappers follow their first
// wrapped error.
func errorType(err error) string {
	for isWrapper(err) {
		var next error
		switch w := err.(type) {
		case interface{ Unwrap() error }:
			next = w.Unwrap()
		case interface{ Unwrap() []error }:
			if errs := w.Unwrap(); len(errs) > 0 {
				next = errs[0]
			}
		}
		if next == nil {
			break
		}
		err = next
	}
	return fmt.Sprintf("%T", err)
}

func isWrapper(err error) bool {
	t := reflect.TypeOf(err)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.PkgPath() {
	case "fmt", "errors":
		return true
	}
	return false
}
