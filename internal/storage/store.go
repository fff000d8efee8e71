// Package storage is the durable snapshot transport between pipeline stages:
// an upstream stage puts the latest document under a well-known key, the
// downstream stage gets it. Append-only logs carry execution and validation
// history.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has no stored document.
var ErrNotFound = errors.New("storage: key not found")

// Store is the document store every stage reads and writes through.
// Implementations must make PutJSON atomic: a crash mid-write may lose the
// new snapshot but never corrupts the previous one.
type Store interface {
	// PutJSON stores value (JSON-encoded) as the latest snapshot for key.
	PutJSON(ctx context.Context, key string, value interface{}) error

	// GetJSON decodes the latest snapshot for key into dest.
	// Returns ErrNotFound when no snapshot exists.
	GetJSON(ctx context.Context, key string, dest interface{}) error

	// AppendJSON appends value as one JSON line to the named log.
	AppendJSON(ctx context.Context, log string, value interface{}) error
}

// Well-known document keys and log names.
const (
	KeyPlan       = "orchestrator_plan"
	KeyPortfolio  = "portfolio"
	KeyValidation = "validation"

	LogExecutions  = "executions"
	LogValidations = "validation"
)

// SignalsKey returns the snapshot key for one asset class's signal feed.
func SignalsKey(class string) string {
	return "signals_" + class
}
