// Package metrics provides per-process normalization counters.
//
// The Collector accumulates counters across the dumps processed by one
// invocation. It is a leaf package with no internal dependencies; dump kinds
// are recorded by name to keep it free of the rawdata package.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Normalization
	DumpsNormalized int64            `json:"dumps_normalized"`
	DumpsFailed     int64            `json:"dumps_failed"`
	DumpsByKind     map[string]int64 `json:"dumps_by_kind"`
	WordsEmitted    int64            `json:"words_emitted"`

	// Storage
	StoreWriteSuccess int64 `json:"store_write_success"`
	StoreWriteFailure int64 `json:"store_write_failure"`

	// Notification
	PublishSuccess int64 `json:"publish_success"`
	PublishFailure int64 `json:"publish_failure"`

	// Dimensions (informational, set at construction)
	StorageBackend string `json:"storage_backend"`
	Adapter        string `json:"adapter"`
}

// Collector accumulates metrics during one invocation.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	dumpsNormalized int64
	dumpsFailed     int64
	dumpsByKind     map[string]int64
	wordsEmitted    int64

	storeWriteSuccess int64
	storeWriteFailure int64

	publishSuccess int64
	publishFailure int64

	storageBackend string
	adapter        string
}

// NewCollector creates a Collector with dimension labels.
// Empty labels mean the concern is not configured.
func NewCollector(storageBackend, adapter string) *Collector {
	return &Collector{
		dumpsByKind:    make(map[string]int64),
		storageBackend: storageBackend,
		adapter:        adapter,
	}
}

// --- Normalization ---

// RecordNormalized records a successful normalization of one dump.
func (c *Collector) RecordNormalized(kind string, words int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.dumpsNormalized++
	c.dumpsByKind[kind]++
	c.wordsEmitted += int64(words)
	c.mu.Unlock()
}

// IncDumpFailed records a dump that could not be classified or extracted.
func (c *Collector) IncDumpFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.dumpsFailed++
	c.mu.Unlock()
}

// --- Storage ---
// Store counters are per-call: one WordStore.Write is one success or failure.

// IncStoreWriteSuccess records a successful store write.
func (c *Collector) IncStoreWriteSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.storeWriteSuccess++
	c.mu.Unlock()
}

// IncStoreWriteFailure records a failed store write.
func (c *Collector) IncStoreWriteFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.storeWriteFailure++
	c.mu.Unlock()
}

// --- Notification ---

// IncPublishSuccess records a delivered adapter notification.
func (c *Collector) IncPublishSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.publishSuccess++
	c.mu.Unlock()
}

// IncPublishFailure records an adapter notification that failed after retries.
func (c *Collector) IncPublishFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.publishFailure++
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{DumpsByKind: map[string]int64{}}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byKind := make(map[string]int64, len(c.dumpsByKind))
	for k, v := range c.dumpsByKind {
		byKind[k] = v
	}

	return Snapshot{
		DumpsNormalized: c.dumpsNormalized,
		DumpsFailed:     c.dumpsFailed,
		DumpsByKind:     byKind,
		WordsEmitted:    c.wordsEmitted,

		StoreWriteSuccess: c.storeWriteSuccess,
		StoreWriteFailure: c.storeWriteFailure,

		PublishSuccess: c.publishSuccess,
		PublishFailure: c.publishFailure,

		StorageBackend: c.storageBackend,
		Adapter:        c.adapter,
	}
}
