// Package client talks to the geodash server.
//
// GRPCClient implements Client over the JSON-coded gRPC service. Every call
// carries the configured API key as access_token metadata, and failures are
// mapped back to the common error taxonomy (see api.FromStatus), so callers
// match them with errors.Is / errors.As exactly as on the server.
//
// Watch keeps the server's change stream open for as long as its context
// lives, reconnecting after failures.
package client
