package logging

import (
	"context"
	"io"
)

type contextKey string

const outputWriterKey contextKey = "echo_writer"

// GetWriter retrieves the writer attached to ctx, where command lines are
// echoed. It falls back to the global output if no writer is found.
func GetWriter(ctx context.Context) io.Writer {
	if ctx != nil {
		if writer, ok := ctx.Value(outputWriterKey).(io.Writer); ok && writer != nil {
			return writer
		}
	}
	return GetGlobalOutput()
}

// WithWriter returns a new context with w attached as the echo writer.
func WithWriter(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputWriterKey, w)
}
