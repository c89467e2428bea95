package sink

import (
	"context"

	"github.com/edgevet/edgevet/internal/signal"
)

// Sink receives one Record per adjudicated request. Implementations own
// their buffering; Enqueue must be cheap from the handler's perspective.
type Sink interface {
	Start(ctx context.Context) error
	Enqueue(rec signal.Record) error
	Close() error
	Name() string // Returns the sink name for metrics and logging
}
