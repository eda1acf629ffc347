package catalog

import (
	"context"
	"fmt"
	"strings"
)

// UpsertBatch applies one batch of normalized records in a single
// multi-row statement. Conflicts on the case-insensitive sku overwrite
// every mutable field with the incoming value and refresh updated_at;
// created_at is set only on first insert (last-write-wins).
//
// Duplicate skus within one batch are collapsed before the write,
// keeping the last occurrence in file order: PostgreSQL rejects a
// multi-row INSERT that conflicts on the same row twice, so within-batch
// arbitration has to happen client-side.
func (s *Store) UpsertBatch(ctx context.Context, records []ProductRecord) error {
	records = dedupeLastWins(records)
	if len(records) == 0 {
		return nil
	}

	query, args := buildUpsertSQL(records)
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return &StoreError{Op: "upsert batch", Err: err}
	}
	return nil
}

// dedupeLastWins collapses records sharing a case-insensitive sku,
// keeping the value of the last occurrence.
func dedupeLastWins(records []ProductRecord) []ProductRecord {
	seen := make(map[string]int, len(records))
	out := make([]ProductRecord, 0, len(records))

	for _, rec := range records {
		key := strings.ToLower(strings.TrimSpace(rec.SKU))
		if i, ok := seen[key]; ok {
			out[i] = rec
			continue
		}
		seen[key] = len(out)
		out = append(out, rec)
	}

	return out
}

// buildUpsertSQL renders the multi-row insert for one batch.
// Five positional args per record; timestamps are server-assigned.
func buildUpsertSQL(records []ProductRecord) (string, []any) {
	var b strings.Builder
	args := make([]any, 0, len(records)*5)

	b.WriteString("INSERT INTO products (sku, name, description, price, active, created_at, updated_at) VALUES ")
	for i, rec := range records {
		if i > 0 {
			b.WriteString(", ")
		}
		n := i * 5
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d, $%d, NOW(), NOW())", n+1, n+2, n+3, n+4, n+5)
		args = append(args, rec.SKU, rec.Name, rec.Description, rec.Price, rec.Active)
	}
	b.WriteString(` ON CONFLICT (lower(sku)) DO UPDATE SET
		sku = EXCLUDED.sku,
		name = EXCLUDED.name,
		description = EXCLUDED.description,
		price = EXCLUDED.price,
		active = EXCLUDED.active,
		updated_at = NOW()`)

	return b.String(), args
}
