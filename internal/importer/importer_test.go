package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Pankaj-karwasra/product-importer/internal/catalog"
	"github.com/Pankaj-karwasra/product-importer/internal/progress"
)

// ============================================================================
// Test doubles
// ============================================================================

// fakeStore records every flushed batch and can fail on a given flush.
type fakeStore struct {
	batches  [][]catalog.ProductRecord
	failOn   int // 1-based flush index to fail on, 0 = never
	storeErr error
}

func (f *fakeStore) UpsertBatch(ctx context.Context, records []catalog.ProductRecord) error {
	if f.failOn > 0 && len(f.batches)+1 == f.failOn {
		return f.storeErr
	}
	batch := make([]catalog.ProductRecord, len(records))
	copy(batch, records)
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeStore) batchSizes() []int {
	sizes := make([]int, 0, len(f.batches))
	for _, b := range f.batches {
		sizes = append(sizes, len(b))
	}
	return sizes
}

// fakeProgress records every published snapshot.
type fakeProgress struct {
	snaps []progress.Snapshot
}

func (f *fakeProgress) Set(ctx context.Context, jobID string, snap progress.Snapshot) error {
	f.snaps = append(f.snaps, snap)
	return nil
}

func (f *fakeProgress) last(t *testing.T) progress.Snapshot {
	t.Helper()
	if len(f.snaps) == 0 {
		t.Fatal("no snapshots published")
	}
	return f.snaps[len(f.snaps)-1]
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func requireGone(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("source file should be removed, stat err = %v", err)
	}
}

// ============================================================================
// Run Tests
// ============================================================================

func TestRun_MissingRequiredColumns(t *testing.T) {
	store := &fakeStore{}
	prog := &fakeProgress{}
	path := writeCSV(t, "sku,name\nA1,Widget\n")

	out := New(store, prog, 10).Run(context.Background(), path, "job-1")

	if out.Status != progress.StatusFailed {
		t.Errorf("status = %s, want failed", out.Status)
	}
	if got := prog.last(t); got.Message != "Invalid CSV columns" || got.Progress != 100 {
		t.Errorf("snapshot = %+v, want Invalid CSV columns / 100", got)
	}
	if len(store.batches) != 0 {
		t.Errorf("store received %d batches, want 0", len(store.batches))
	}
	requireGone(t, path)
}

func TestRun_HeaderOnlyFile(t *testing.T) {
	store := &fakeStore{}
	prog := &fakeProgress{}
	path := writeCSV(t, "sku,name,description,price\n")

	out := New(store, prog, 10).Run(context.Background(), path, "job-2")

	if out.Status != progress.StatusFailed {
		t.Errorf("status = %s, want failed", out.Status)
	}
	if got := prog.last(t); got.Message != "CSV is empty" {
		t.Errorf("message = %q, want %q", got.Message, "CSV is empty")
	}
	if len(store.batches) != 0 {
		t.Errorf("store received %d batches, want 0", len(store.batches))
	}
	requireGone(t, path)
}

func TestRun_UnopenableFile(t *testing.T) {
	store := &fakeStore{}
	prog := &fakeProgress{}

	out := New(store, prog, 10).Run(context.Background(),
		filepath.Join(t.TempDir(), "does-not-exist.csv"), "job-3")

	if out.Status != progress.StatusFailed {
		t.Errorf("status = %s, want failed", out.Status)
	}
	if got := prog.last(t); got.Message != "Cannot open CSV file" {
		t.Errorf("message = %q, want %q", got.Message, "Cannot open CSV file")
	}
}

func TestRun_HeaderIsCaseAndSpaceInsensitive(t *testing.T) {
	store := &fakeStore{}
	prog := &fakeProgress{}
	path := writeCSV(t, " SKU , Name ,DESCRIPTION\nA1,Widget,a widget\n")

	out := New(store, prog, 10).Run(context.Background(), path, "job-4")

	if out.Status != progress.StatusCompleted {
		t.Fatalf("status = %s, want completed (snapshots: %+v)", out.Status, prog.snaps)
	}
	if out.Processed != 1 {
		t.Errorf("processed = %d, want 1", out.Processed)
	}
}

func TestRun_BlankSKURowsCountedButNotWritten(t *testing.T) {
	store := &fakeStore{}
	prog := &fakeProgress{}
	path := writeCSV(t, "sku,name,description\nA1,Widget,w\n  ,Ghost,g\nB2,Gadget,g\n")

	out := New(store, prog, 10).Run(context.Background(), path, "job-5")

	if out.Status != progress.StatusCompleted {
		t.Fatalf("status = %s, want completed", out.Status)
	}
	// All three rows count toward the total.
	if out.Processed != 3 {
		t.Errorf("processed = %d, want 3", out.Processed)
	}
	if got := prog.last(t); got.Message != "Imported 3 rows" {
		t.Errorf("final message = %q, want %q", got.Message, "Imported 3 rows")
	}
	// Only two records reach the store.
	if len(store.batches) != 1 || len(store.batches[0]) != 2 {
		t.Fatalf("batch sizes = %v, want [2]", store.batchSizes())
	}
	if store.batches[0][0].SKU != "A1" || store.batches[0][1].SKU != "B2" {
		t.Errorf("stored skus = %s, %s, want A1, B2", store.batches[0][0].SKU, store.batches[0][1].SKU)
	}
	requireGone(t, path)
}

func TestRun_NormalizesPriceAndDefaults(t *testing.T) {
	store := &fakeStore{}
	prog := &fakeProgress{}
	path := writeCSV(t, "sku,name,description,price\nA1,Widget,a widget,9.99\nB2,,,not-a-price\n")

	out := New(store, prog, 10).Run(context.Background(), path, "job-6")

	if out.Status != progress.StatusCompleted {
		t.Fatalf("status = %s, want completed", out.Status)
	}
	recs := store.batches[0]
	if !recs[0].Price.Valid {
		t.Error("parseable price should be valid")
	}
	if recs[1].Price.Valid {
		t.Error("unparseable price should normalize to NULL, not fail the row")
	}
	if recs[1].Name != "" || recs[1].Description != "" {
		t.Errorf("blank name/description should default to empty, got %+v", recs[1])
	}
	if !recs[0].Active || !recs[1].Active {
		t.Error("imported records default to active")
	}
}

func TestRun_BatchingAndProgressSequence(t *testing.T) {
	// 12001 data rows with a batch size of 5000 must produce exactly
	// three flushes (5000, 5000, 2001), two intermediate percentages
	// computed against the true total, and a terminal 100%.
	var b strings.Builder
	b.WriteString("sku,name,description,price\n")
	for i := 0; i < 12001; i++ {
		fmt.Fprintf(&b, "SKU-%d,Item %d,desc,1.50\n", i, i)
	}
	store := &fakeStore{}
	prog := &fakeProgress{}
	path := writeCSV(t, b.String())

	out := New(store, prog, 5000).Run(context.Background(), path, "job-7")

	if out.Status != progress.StatusCompleted || out.Processed != 12001 {
		t.Fatalf("outcome = %+v, want completed/12001", out)
	}

	sizes := store.batchSizes()
	want := []int{5000, 5000, 2001}
	if len(sizes) != len(want) {
		t.Fatalf("batch sizes = %v, want %v", sizes, want)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Fatalf("batch sizes = %v, want %v", sizes, want)
		}
	}

	var gotPct []int
	var gotMsg []string
	for _, snap := range prog.snaps {
		gotPct = append(gotPct, snap.Progress)
		gotMsg = append(gotMsg, snap.Message)
	}
	wantPct := []int{0, 41, 83, 100}
	wantMsg := []string{"Import started", "Imported 5000", "Imported 10000", "Imported 12001 rows"}
	if len(gotPct) != len(wantPct) {
		t.Fatalf("snapshots = %v / %v, want %v / %v", gotPct, gotMsg, wantPct, wantMsg)
	}
	for i := range wantPct {
		if gotPct[i] != wantPct[i] || gotMsg[i] != wantMsg[i] {
			t.Fatalf("snapshot[%d] = %d %q, want %d %q", i, gotPct[i], gotMsg[i], wantPct[i], wantMsg[i])
		}
	}
	if prog.last(t).Status != progress.StatusCompleted {
		t.Errorf("final status = %s, want completed", prog.last(t).Status)
	}
}

func TestRun_StoreFailureFailsJobAndCleansUp(t *testing.T) {
	store := &fakeStore{
		failOn:   1,
		storeErr: &catalog.StoreError{Op: "upsert batch", Err: errors.New("connection reset")},
	}
	prog := &fakeProgress{}
	path := writeCSV(t, "sku,name,description\nA1,Widget,w\n")

	out := New(store, prog, 10).Run(context.Background(), path, "job-8")

	if out.Status != progress.StatusFailed {
		t.Errorf("status = %s, want failed", out.Status)
	}
	got := prog.last(t)
	if !strings.HasPrefix(got.Message, "StoreError:") {
		t.Errorf("message = %q, want StoreError prefix", got.Message)
	}
	if got.Progress != 100 {
		t.Errorf("failure progress = %d, want 100", got.Progress)
	}
	requireGone(t, path)
}

func TestRun_RemovesFileOnSuccess(t *testing.T) {
	store := &fakeStore{}
	prog := &fakeProgress{}
	path := writeCSV(t, "sku,name,description\nA1,Widget,w\n")

	New(store, prog, 10).Run(context.Background(), path, "job-9")
	requireGone(t, path)
}

// ============================================================================
// normalizeRow Tests
// ============================================================================

func TestNormalizeRow(t *testing.T) {
	h := makeHeaderIndex([]string{"sku", "name", "description", "price"})

	tests := []struct {
		name    string
		row     []string
		wantOK  bool
		wantSKU string
	}{
		{"complete row", []string{"A1", "Widget", "a widget", "9.99"}, true, "A1"},
		{"sku trimmed", []string{"  A1  ", "Widget", "w", ""}, true, "A1"},
		{"blank sku skipped", []string{"   ", "Widget", "w", "1"}, false, ""},
		{"short row", []string{"A1"}, true, "A1"},
		{"empty row", []string{}, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := normalizeRow(h, tt.row)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && rec.SKU != tt.wantSKU {
				t.Errorf("sku = %q, want %q", rec.SKU, tt.wantSKU)
			}
		})
	}
}

func TestHeaderIndex_Valid(t *testing.T) {
	if makeHeaderIndex([]string{"sku", "name"}).valid() {
		t.Error("header without description should be invalid")
	}
	if !makeHeaderIndex([]string{"Description", "NAME", "sku", "extra"}).valid() {
		t.Error("required columns may appear in any case and order")
	}
	// price is optional
	if !makeHeaderIndex([]string{"sku", "name", "description"}).valid() {
		t.Error("price must be optional")
	}
}
