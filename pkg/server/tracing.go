package server

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// setSpanSession attaches session identity to the connection span.
func setSpanSession(span trace.Span, sess *Session) {
	span.SetAttributes(
		attribute.String("termchat.session_id", sess.ID.String()),
		attribute.String("termchat.username", sess.Username),
	)
}

// recordSpanError marks the connection span failed.
func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
