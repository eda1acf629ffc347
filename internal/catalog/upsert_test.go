package catalog

import (
	"strings"
	"testing"
)

// ============================================================================
// dedupeLastWins Tests
// ============================================================================

func TestDedupeLastWins(t *testing.T) {
	tests := []struct {
		name  string
		input []ProductRecord
		want  []string // expected Name values in output order
	}{
		{
			name:  "no duplicates",
			input: []ProductRecord{{SKU: "A", Name: "first"}, {SKU: "B", Name: "second"}},
			want:  []string{"first", "second"},
		},
		{
			name:  "later occurrence wins",
			input: []ProductRecord{{SKU: "A", Name: "old"}, {SKU: "A", Name: "new"}},
			want:  []string{"new"},
		},
		{
			name: "case-insensitive collision",
			input: []ProductRecord{
				{SKU: "abc", Name: "lower"},
				{SKU: "ABC", Name: "upper"},
			},
			want: []string{"upper"},
		},
		{
			name: "whitespace-insensitive collision",
			input: []ProductRecord{
				{SKU: "abc", Name: "plain"},
				{SKU: " abc ", Name: "padded"},
			},
			want: []string{"padded"},
		},
		{
			name: "interleaved duplicates keep position of first, value of last",
			input: []ProductRecord{
				{SKU: "A", Name: "a1"},
				{SKU: "B", Name: "b1"},
				{SKU: "A", Name: "a2"},
			},
			want: []string{"a2", "b1"},
		},
		{
			name:  "empty input",
			input: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dedupeLastWins(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("dedupeLastWins() returned %d records, want %d", len(got), len(tt.want))
			}
			for i, name := range tt.want {
				if got[i].Name != name {
					t.Errorf("record[%d].Name = %q, want %q", i, got[i].Name, name)
				}
			}
		})
	}
}

// ============================================================================
// buildUpsertSQL Tests
// ============================================================================

func TestBuildUpsertSQL(t *testing.T) {
	records := []ProductRecord{
		{SKU: "A1", Name: "Widget", Description: "a widget", Active: true},
		{SKU: "B2", Name: "Gadget", Description: "a gadget", Active: false},
	}

	query, args := buildUpsertSQL(records)

	if len(args) != 10 {
		t.Fatalf("args length = %d, want 10", len(args))
	}
	if args[0] != "A1" || args[5] != "B2" {
		t.Errorf("sku args = %v, %v, want A1, B2", args[0], args[5])
	}

	for _, placeholder := range []string{"$1", "$5", "$6", "$10"} {
		if !strings.Contains(query, placeholder) {
			t.Errorf("query missing placeholder %s:\n%s", placeholder, query)
		}
	}
	if strings.Contains(query, "$11") {
		t.Errorf("query has stray placeholder $11:\n%s", query)
	}

	if !strings.Contains(query, "ON CONFLICT (lower(sku))") {
		t.Errorf("query missing case-insensitive conflict target:\n%s", query)
	}
	if !strings.Contains(query, "created_at, updated_at") {
		t.Errorf("query missing timestamp columns:\n%s", query)
	}
	// created_at must not be touched on conflict
	updateClause := query[strings.Index(query, "DO UPDATE"):]
	if strings.Contains(updateClause, "created_at") {
		t.Errorf("conflict update must not overwrite created_at:\n%s", updateClause)
	}
}
