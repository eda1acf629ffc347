package importer

import (
	"strings"

	"github.com/Pankaj-karwasra/product-importer/internal/catalog"
)

// requiredColumns must all appear in the header row (case-insensitive,
// whitespace-trimmed). price is optional.
var requiredColumns = []string{"sku", "name", "description"}

// headerIndex maps normalized column names to their position in a row.
type headerIndex map[string]int

func makeHeaderIndex(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, exists := idx[key]; !exists {
			idx[key] = i
		}
	}
	return idx
}

// valid reports whether every required column is present.
func (h headerIndex) valid() bool {
	for _, col := range requiredColumns {
		if _, ok := h[col]; !ok {
			return false
		}
	}
	return true
}

// cell returns the value of a named column, or "" when the column is
// absent or the row is short.
func (h headerIndex) cell(row []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// normalizeRow converts one data row into a ProductRecord.
//
// ok=false marks a row with a blank sku: it counts toward the processed
// total but produces no record. A malformed price is not an error; it
// normalizes to NULL.
func normalizeRow(h headerIndex, row []string) (catalog.ProductRecord, bool) {
	sku := strings.TrimSpace(h.cell(row, "sku"))
	if sku == "" {
		return catalog.ProductRecord{}, false
	}

	rec := catalog.ProductRecord{
		SKU:         sku,
		Name:        h.cell(row, "name"),
		Description: h.cell(row, "description"),
		Active:      true,
	}
	if _, ok := h["price"]; ok {
		rec.Price = catalog.ToNumeric(h.cell(row, "price"))
	}

	return rec, true
}
