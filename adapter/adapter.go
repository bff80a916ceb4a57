// Package adapter defines the notification boundary for normalized dumps.
//
// Adapters tell downstream systems that a dump was normalized (and stored).
// The CLI owns adapter lifecycle; users provide configuration only.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pithecene-io/resdump/rawdata"
	"github.com/pithecene-io/resdump/types"
)

// EventTypeDumpNormalized is the event_type of DumpNormalizedEvent.
const EventTypeDumpNormalized = "dump_normalized"

// DefaultBackoff is the delay before the first retry. Each further retry
// doubles it.
const DefaultBackoff = 500 * time.Millisecond

// DumpNormalizedEvent is the payload published after a normalization.
type DumpNormalizedEvent struct {
	ContractVersion string `json:"contract_version"`
	EventType       string `json:"event_type"` // always "dump_normalized"
	Source          string `json:"source"`
	Device          string `json:"device,omitempty"`
	Kind            string `json:"kind"`
	Width           int    `json:"width"`
	WordCount       int    `json:"word_count"`
	Digest          string `json:"digest,omitempty"`
	StoragePath     string `json:"storage_path,omitempty"`
	Timestamp       string `json:"timestamp"` // RFC 3339
	DurationMs      int64  `json:"duration_ms"`
}

// NewDumpNormalizedEvent builds the event for w. Storage fields are left for
// the caller to fill when the words were persisted.
func NewDumpNormalizedEvent(w *rawdata.Words, device string, at time.Time, took time.Duration) *DumpNormalizedEvent {
	return &DumpNormalizedEvent{
		ContractVersion: types.ContractVersion,
		EventType:       EventTypeDumpNormalized,
		Source:          w.Source,
		Device:          device,
		Kind:            w.Kind.String(),
		Width:           w.Width,
		WordCount:       w.Len(),
		Timestamp:       at.UTC().Format(time.RFC3339),
		DurationMs:      took.Milliseconds(),
	}
}

// Adapter publishes dump events to a downstream system.
type Adapter interface {
	// Publish sends the event downstream.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *DumpNormalizedEvent) error

	// Close releases adapter resources.
	Close() error
}

// Permanent marks an error that must not be retried.
type Permanent struct {
	Err error
}

func (e *Permanent) Error() string { return e.Err.Error() }

func (e *Permanent) Unwrap() error { return e.Err }

// Retry calls attempt once plus up to retries more times, sleeping with
// exponential backoff between calls. It stops early on success, on context
// cancellation, or when attempt returns a *Permanent error.
func Retry(ctx context.Context, name string, retries int, backoff time.Duration, attempt func(context.Context) error) error {
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	attempts := 1 + retries

	var lastErr error
	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: context canceled: %w", name, err)
		}

		if i > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: context canceled during backoff: %w", name, ctx.Err())
			case <-time.After(backoff << (i - 1)):
			}
		}

		lastErr = attempt(ctx)
		if lastErr == nil {
			return nil
		}

		var perm *Permanent
		if errors.As(lastErr, &perm) {
			return fmt.Errorf("%s: non-retriable error: %w", name, perm.Err)
		}
	}
	return fmt.Errorf("%s: failed after %d attempts: %w", name, attempts, lastErr)
}
