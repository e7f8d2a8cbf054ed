package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// BatchStatus represents the state of one spreadsheet run.
type BatchStatus string

const (
	StatusQueued     BatchStatus = "queued"
	StatusParsing    BatchStatus = "parsing"
	StatusRendering  BatchStatus = "rendering"
	StatusAssembling BatchStatus = "assembling"
	StatusCompleted  BatchStatus = "completed"
	StatusFailed     BatchStatus = "failed"
)

// SkippedRow records a row that produced no page.
type SkippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Progress tracks row counts for a batch.
type Progress struct {
	TotalRows    int          `json:"total_rows"`
	RowsRendered int          `json:"rows_rendered"`
	RowsSkipped  int          `json:"rows_skipped"`
	Skipped      []SkippedRow `json:"skipped"`
	Errors       []string     `json:"errors"`
}

// Batch is the report of one upload being turned into a document. The
// produced PDF is returned to the caller and never kept here.
type Batch struct {
	mu sync.Mutex

	ID       string
	Status   BatchStatus
	Phase    string
	Filename string

	ContentHash string
	Progress    Progress

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBatch returns a queued batch with a fresh id.
func NewBatch(filename string) *Batch {
	now := time.Now()
	return &Batch{
		ID:        NewID(),
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// BatchStore is a thread-safe in-memory batch registry with TTL eviction.
type BatchStore struct {
	mu      sync.Mutex
	batches map[string]*Batch
	ttl     time.Duration
}

func NewBatchStore(ttl time.Duration) *BatchStore {
	return &BatchStore{
		batches: make(map[string]*Batch),
		ttl:     ttl,
	}
}

func (s *BatchStore) Put(b *Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[b.ID] = b
}

func (s *BatchStore) Get(id string) *Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches[id]
}

func (s *BatchStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

// Cleanup removes batches not updated within the TTL.
func (s *BatchStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, b := range s.batches {
		if time.Since(b.lastUpdate()) > s.ttl {
			delete(s.batches, id)
			removed++
		}
	}
	return removed
}

func (b *Batch) lastUpdate() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.UpdatedAt
}

// SetStatus updates batch status atomically.
func (b *Batch) SetStatus(status BatchStatus, phase string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Status = status
	b.Phase = phase
	b.UpdatedAt = time.Now()
}

// AddError records an error.
func (b *Batch) AddError(err string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Progress.Errors = append(b.Progress.Errors, err)
	b.UpdatedAt = time.Now()
}

func (b *Batch) SetTotalRows(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Progress.TotalRows = n
	b.UpdatedAt = time.Now()
}

func (b *Batch) SetContentHash(h string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ContentHash = h
}

// IncrRendered counts one row turned into a page.
func (b *Batch) IncrRendered() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Progress.RowsRendered++
	b.UpdatedAt = time.Now()
}

// Skip records a row that was left out of the document.
func (b *Batch) Skip(row int, reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Progress.Skipped = append(b.Progress.Skipped, SkippedRow{Row: row, Reason: reason})
	b.Progress.RowsSkipped = len(b.Progress.Skipped)
	b.UpdatedAt = time.Now()
}

// BatchSnapshot is a read-only, JSON-safe copy of batch state.
type BatchSnapshot struct {
	ID          string      `json:"batch_id"`
	Status      BatchStatus `json:"status"`
	Phase       string      `json:"phase"`
	Filename    string      `json:"filename"`
	ContentHash string      `json:"content_hash,omitempty"`
	Progress    Progress    `json:"progress"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the batch state. Slices are never nil.
func (b *Batch) Snapshot() BatchSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.Progress
	p.Skipped = append(make([]SkippedRow, 0, len(p.Skipped)), p.Skipped...)
	p.Errors = append(make([]string, 0, len(p.Errors)), p.Errors...)
	return BatchSnapshot{
		ID:          b.ID,
		Status:      b.Status,
		Phase:       b.Phase,
		Filename:    b.Filename,
		ContentHash: b.ContentHash,
		Progress:    p,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
