package catalog

import "testing"

// ============================================================================
// ToNumeric Tests
// ============================================================================

func TestToNumeric(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
	}{
		{"plain decimal", "9.99", true},
		{"integer", "42", true},
		{"negative", "-3.50", true},
		{"leading plus", "+1.25", true},
		{"currency symbol", "$1,299.00", true},
		{"euro symbol", "€50", true},
		{"accounting negative", "(123.45)", true},
		{"scientific notation", "1.5e3", true},
		{"surrounding whitespace", "  7.5  ", true},
		{"empty", "", false},
		{"whitespace only", "   ", false},
		{"not a number", "free", false},
		{"mixed garbage", "12abc", false},
		{"double decimal point", "1.2.3", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToNumeric(tt.input)
			if got.Valid != tt.wantValid {
				t.Errorf("ToNumeric(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
		})
	}
}

func TestToNumeric_AccountingNegativeValue(t *testing.T) {
	n := ToNumeric("(123.45)")
	if !n.Valid {
		t.Fatal("ToNumeric((123.45)) should be valid")
	}
	f, err := n.Float64Value()
	if err != nil {
		t.Fatalf("Float64Value() error = %v", err)
	}
	if f.Float64 != -123.45 {
		t.Errorf("ToNumeric((123.45)) = %v, want -123.45", f.Float64)
	}
}

// ============================================================================
// ToText / ToBool Tests
// ============================================================================

func TestToText(t *testing.T) {
	if got := ToText("  hello  "); !got.Valid || got.String != "hello" {
		t.Errorf("ToText should trim and be valid, got %+v", got)
	}
	if got := ToText("   "); got.Valid {
		t.Errorf("ToText(whitespace) should be invalid, got %+v", got)
	}
}

func TestToBool(t *testing.T) {
	tests := []struct {
		input     string
		wantValid bool
		wantBool  bool
	}{
		{"true", true, true},
		{"YES", true, true},
		{"1", true, true},
		{"false", true, false},
		{"n", true, false},
		{"0", true, false},
		{"", false, false},
		{"maybe", false, false},
	}

	for _, tt := range tests {
		got := ToBool(tt.input)
		if got.Valid != tt.wantValid || (got.Valid && got.Bool != tt.wantBool) {
			t.Errorf("ToBool(%q) = %+v, want valid=%v bool=%v", tt.input, got, tt.wantValid, tt.wantBool)
		}
	}
}
