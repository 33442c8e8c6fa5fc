// Package logging is the structured logger shared by the geodash server and
// CLI. Components take a Logger and derive their own with
// With("module", name).
package logging

import "context"

// Logger writes leveled records with key/value attributes:
//
//	logger.Warn(ctx, "geo lookup failed", "zip_code", zip, "error", err)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a logger that adds args to every record.
	With(args ...any) Logger
}
