// Package importer drives one CSV import job end to end: streaming
// validation, row normalization, batched upsert into the catalog, and
// progress publication.
//
// A job never crashes the worker. Every failure mode collapses into a
// terminal failed snapshot with a human-readable message, and the
// uploaded source file is removed on every exit path.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Pankaj-karwasra/product-importer/internal/catalog"
	"github.com/Pankaj-karwasra/product-importer/internal/logging"
	"github.com/Pankaj-karwasra/product-importer/internal/progress"
)

// DefaultBatchSize is the number of rows per upsert batch.
const DefaultBatchSize = 5000

// ContextCheckInterval is how often (in rows) to check for context
// cancellation. Checking every row would be expensive; checking
// periodically balances responsiveness with throughput.
var ContextCheckInterval = 100

// BatchStore is the catalog write port. Satisfied by *catalog.Store.
type BatchStore interface {
	UpsertBatch(ctx context.Context, records []catalog.ProductRecord) error
}

// Outcome is the terminal result of one import run.
type Outcome struct {
	Status    progress.Status
	Processed int
}

// Importer executes import jobs against an injected store and progress
// publisher. One Importer is shared by all jobs; per-run state lives in
// Run's frame, so runs for distinct job ids never share anything.
type Importer struct {
	store     BatchStore
	progress  progress.Setter
	batchSize int
}

// New creates an Importer. A non-positive batchSize falls back to
// DefaultBatchSize.
func New(store BatchStore, progressStore progress.Setter, batchSize int) *Importer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Importer{store: store, progress: progressStore, batchSize: batchSize}
}

// Run consumes the CSV at sourcePath for one job and returns its
// terminal outcome. Errors are reported through the progress store,
// never returned; the source file is removed before Run returns, on
// success and on every failure path alike.
func (imp *Importer) Run(ctx context.Context, sourcePath, jobID string) Outcome {
	log := logging.WithFields(ctx, "job_id", jobID)
	rep := progress.NewReporter(imp.progress, jobID)

	// Best-effort cleanup: the job owns the file, and a failed removal
	// must never escalate into a job failure.
	defer func() {
		if err := os.Remove(sourcePath); err != nil && !os.IsNotExist(err) {
			log.Warn("source file cleanup failed", "path", sourcePath, "error", err)
		}
	}()

	f, err := os.Open(sourcePath)
	if err != nil {
		log.Error("cannot open source file", "path", sourcePath, "error", err)
		rep.Publish(ctx, progress.StatusFailed, 100, "Cannot open CSV file")
		return Outcome{Status: progress.StatusFailed}
	}
	defer f.Close()

	reader := newCSVReader(f)

	headerRow, err := reader.Read()
	if err != nil {
		log.Error("cannot read header", "error", err)
		rep.Publish(ctx, progress.StatusFailed, 100, "Invalid CSV columns")
		return Outcome{Status: progress.StatusFailed}
	}

	header := makeHeaderIndex(headerRow)
	if !header.valid() {
		log.Error("missing required columns", "header", headerRow)
		rep.Publish(ctx, progress.StatusFailed, 100, "Invalid CSV columns")
		return Outcome{Status: progress.StatusFailed}
	}

	// Pre-scan pass: progress percentages are computed against the true
	// data row count, which is only known after reading the whole file.
	total, err := countDataRows(sourcePath)
	if err != nil {
		log.Error("row count failed", "error", err)
		rep.Publish(ctx, progress.StatusFailed, 100, failMessage(err))
		return Outcome{Status: progress.StatusFailed}
	}
	if total <= 0 {
		rep.Publish(ctx, progress.StatusFailed, 100, "CSV is empty")
		return Outcome{Status: progress.StatusFailed}
	}

	rep.Publish(ctx, progress.StatusProcessing, 0, "Import started")
	log.Info("import started", "total_rows", total)

	var (
		processed int
		batch     = make([]catalog.ProductRecord, 0, imp.batchSize)
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := imp.store.UpsertBatch(ctx, batch); err != nil {
			return err
		}
		processed += len(batch)
		batch = batch[:0]
		return nil
	}

	for i := 0; ; i++ {
		if i%ContextCheckInterval == 0 && ctx.Err() != nil {
			log.Warn("import interrupted", "processed", processed, "error", ctx.Err())
			rep.Publish(ctx, progress.StatusFailed, 100, failMessage(ctx.Err()))
			return Outcome{Status: progress.StatusFailed, Processed: processed}
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Error("row read failed", "row", i, "error", err)
			rep.Publish(ctx, progress.StatusFailed, 100, failMessage(err))
			return Outcome{Status: progress.StatusFailed, Processed: processed}
		}

		rec, ok := normalizeRow(header, row)
		if !ok {
			// Blank sku: counted, never written.
			processed++
			continue
		}

		batch = append(batch, rec)
		if len(batch) >= imp.batchSize {
			if err := flush(); err != nil {
				log.Error("batch flush failed", "processed", processed, "error", err)
				rep.Publish(ctx, progress.StatusFailed, 100, failMessage(err))
				return Outcome{Status: progress.StatusFailed, Processed: processed}
			}
			rep.Publish(ctx, progress.StatusProcessing, processed*100/total,
				fmt.Sprintf("Imported %d", processed))
		}
	}

	if err := flush(); err != nil {
		log.Error("final flush failed", "processed", processed, "error", err)
		rep.Publish(ctx, progress.StatusFailed, 100, failMessage(err))
		return Outcome{Status: progress.StatusFailed, Processed: processed}
	}

	rep.Publish(ctx, progress.StatusCompleted, 100, fmt.Sprintf("Imported %d rows", processed))
	log.Info("import completed", "processed", processed)
	return Outcome{Status: progress.StatusCompleted, Processed: processed}
}

// newCSVReader configures a reader for the comma-delimited, header-first
// format: ragged rows are tolerated and handled during normalization.
func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

// countDataRows reads the file once and returns the number of data rows
// after the header.
func countDataRows(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open for count: %w", err)
	}
	defer f.Close()

	r := newCSVReader(f)
	r.ReuseRecord = true

	count := -1 // header does not count
	for {
		_, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("count rows: %w", err)
		}
		count++
	}
	if count < 0 {
		count = 0
	}
	return count, nil
}

// failMessage renders a terminal failure as "Kind: detail" for the
// progress snapshot.
func failMessage(err error) string {
	var storeErr *catalog.StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Error()
	}
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return fmt.Sprintf("CSVParseError: %v", err)
	}
	return fmt.Sprintf("ImportError: %v", err)
}
