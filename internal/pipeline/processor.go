package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/formfill/internal/assemble"
	"github.com/dgallion1/formfill/internal/config"
	"github.com/dgallion1/formfill/internal/layout"
	"github.com/dgallion1/formfill/internal/parser"
	"github.com/dgallion1/formfill/internal/render"
	"github.com/dgallion1/formfill/internal/stats"
)

// ProcessingError aborts a batch. Phase names the step that failed.
type ProcessingError struct {
	Phase string
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// IsInputError reports whether a batch failed because of the uploaded
// spreadsheet rather than the server: unreadable files, missing headers and
// sheets where no row could be rendered.
func IsInputError(err error) bool {
	var pe *ProcessingError
	if !errors.As(err, &pe) {
		return false
	}
	return pe.Phase == string(StatusParsing) || errors.Is(err, assemble.ErrNoPages)
}

// Processor turns spreadsheets into assembled form documents, one batch per
// call. Batches are processed synchronously; the processor only keeps their
// reports around for a while.
type Processor struct {
	batches   *BatchStore
	layout    *layout.Layout
	template  *render.Template
	assembler *assemble.Assembler
	latency   *stats.Latency
	counters  *stats.Counters
	log       *slog.Logger
	cfg       config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewProcessor wires a processor around a loaded layout and template.
func NewProcessor(cfg config.Config, l *layout.Layout, tpl *render.Template, log *slog.Logger) *Processor {
	return &Processor{
		batches:   NewBatchStore(cfg.BatchTTL),
		layout:    l,
		template:  tpl,
		assembler: assemble.New(),
		latency:   stats.NewLatency(cfg.StatsWindow),
		counters:  &stats.Counters{},
		log:       log,
		cfg:       cfg,
	}
}

// Start launches the batch report cleanup loop.
func (p *Processor) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				if n := p.batches.Cleanup(); n > 0 {
					p.log.Debug("evicted batch reports", "count", n)
				}
			}
		}
	}()
}

// Stop ends the cleanup loop and waits for it.
func (p *Processor) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

// Process reads the spreadsheet in r, renders one page per row and returns
// the assembled PDF. Rows missing a required field are skipped and recorded
// on the batch. Any other failure aborts the batch with a *ProcessingError.
func (p *Processor) Process(batch *Batch, r io.Reader) ([]byte, error) {
	log := p.log.With("batch_id", batch.ID, "filename", batch.Filename)
	p.batches.Put(batch)

	start := time.Now()
	out, err := p.run(batch, r, log)
	p.latency.Record(time.Since(start).Milliseconds())

	snap := batch.Snapshot()
	p.counters.AddBatch(err != nil, snap.Progress.RowsRendered, snap.Progress.RowsSkipped)

	if err != nil {
		batch.AddError(err.Error())
		batch.SetStatus(StatusFailed, snap.Phase)
		log.Error("batch failed", "phase", snap.Phase, "error", err)
		return nil, err
	}
	batch.SetStatus(StatusCompleted, "done")
	log.Info("batch completed",
		"rows", snap.Progress.TotalRows,
		"rendered", snap.Progress.RowsRendered,
		"skipped", snap.Progress.RowsSkipped,
		"bytes", len(out),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (p *Processor) run(batch *Batch, r io.Reader, log *slog.Logger) ([]byte, error) {
	// Phase 1: Parse
	batch.SetStatus(StatusParsing, "parsing")
	sp, err := parser.ForFile(batch.Filename, parser.Options{Sheet: p.cfg.SheetName})
	if err != nil {
		return nil, &ProcessingError{Phase: "parsing", Err: err}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ProcessingError{Phase: "parsing", Err: fmt.Errorf("read upload: %w", err)}
	}
	batch.SetContentHash(ContentHashHex(data))

	rows, err := sp.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &ProcessingError{Phase: "parsing", Err: err}
	}
	batch.SetTotalRows(len(rows))
	log.Info("parsed spreadsheet", "rows", len(rows))

	// Phase 2: Render, strictly in row order.
	batch.SetStatus(StatusRendering, "rendering")
	pages := make([][]byte, 0, len(rows))
	for _, row := range rows {
		page, err := render.Render(row, p.layout, p.template)
		if errors.Is(err, render.ErrMissingRequiredField) {
			log.Warn("row skipped", "row", row.Number, "error", err)
			batch.Skip(row.Number, err.Error())
			continue
		}
		if err != nil {
			return nil, &ProcessingError{Phase: "rendering", Err: fmt.Errorf("row %d: %w", row.Number, err)}
		}
		pages = append(pages, page.Data)
		batch.IncrRendered()
	}

	// Phase 3: Assemble
	batch.SetStatus(StatusAssembling, "assembling")
	var out bytes.Buffer
	if err := p.assembler.Assemble(&out, pages...); err != nil {
		return nil, &ProcessingError{Phase: "assembling", Err: err}
	}
	return out.Bytes(), nil
}

// GetBatch returns a batch by ID.
func (p *Processor) GetBatch(id string) *Batch {
	return p.batches.Get(id)
}

func (p *Processor) Latency() stats.LatencySnapshot {
	return p.latency.Snapshot()
}

func (p *Processor) Counters() stats.CountersSnapshot {
	return p.counters.Snapshot()
}

// Template returns the shared template page.
func (p *Processor) Template() *render.Template {
	return p.template
}

// Layout returns the field layout in use.
func (p *Processor) Layout() *layout.Layout {
	return p.layout
}
