package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// ----------------------------------------------------------------------------
// ParseDate Tests
// ----------------------------------------------------------------------------

func TestParseDate(t *testing.T) {
	want := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "ISO date", input: "2024-01-15"},
		{name: "ISO date with spaces", input: "  2024-01-15 "},
		{name: "RFC3339 timestamp", input: "2024-01-15T00:00:00Z"},
		{name: "RFC3339 with time of day", input: "2024-01-15T18:30:00+03:00"},
		{name: "slashes", input: "2024/01/15"},
		{name: "dots", input: "2024.01.15"},
		{name: "month name", input: "Jan 15, 2024"},
		{name: "day month year", input: "15 Jan 2024"},

		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "soon", wantErr: true},
		{name: "impossible day", input: "2024-02-30", wantErr: true},
		{name: "US order is ambiguous and rejected", input: "01/15/2024", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDate(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) error = %v", tt.input, err)
			}
			if !got.Equal(want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Date JSON Tests
// ----------------------------------------------------------------------------

func TestDateJSON(t *testing.T) {
	var holder struct {
		Start *Date `json:"start"`
		End   *Date `json:"end"`
	}
	if err := json.Unmarshal([]byte(`{"start":"2023-09-29","end":null}`), &holder); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if holder.Start == nil || holder.Start.String() != "2023-09-29" {
		t.Errorf("Start = %v, want 2023-09-29", holder.Start)
	}
	if holder.End != nil {
		t.Errorf("End = %v, want nil for JSON null", holder.End)
	}

	out, err := json.Marshal(holder.Start)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	if string(out) != `"2023-09-29"` {
		t.Errorf("Marshal = %s, want \"2023-09-29\"", out)
	}

	if err := json.Unmarshal([]byte(`{"start":20230929}`), &holder); err == nil {
		t.Error("numeric date should be rejected")
	}
}

// ----------------------------------------------------------------------------
// pgtype conversion Tests
// ----------------------------------------------------------------------------

func TestToPgText(t *testing.T) {
	tests := []struct {
		name      string
		input     *string
		wantValid bool
		want      string
	}{
		{name: "nil is NULL", input: nil, wantValid: false},
		{name: "empty is NULL", input: Ptr(""), wantValid: false},
		{name: "whitespace is NULL", input: Ptr("   "), wantValid: false},
		{name: "value is kept", input: Ptr("Frieren"), wantValid: true, want: "Frieren"},
		{name: "value is trimmed", input: Ptr("  Frieren  "), wantValid: true, want: "Frieren"},
		{name: "unicode", input: Ptr("Провожающая в последний путь Фрирен"), wantValid: true, want: "Провожающая в последний путь Фрирен"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPgText(tt.input)
			if got.Valid != tt.wantValid {
				t.Errorf("ToPgText() Valid = %v, want %v", got.Valid, tt.wantValid)
			}
			if got.String != tt.want {
				t.Errorf("ToPgText() String = %q, want %q", got.String, tt.want)
			}
		})
	}
}

func TestToPgDate(t *testing.T) {
	if got := ToPgDate(nil); got.Valid {
		t.Errorf("ToPgDate(nil) = %v, want invalid", got)
	}

	d := NewDate(2023, time.September, 29)
	got := ToPgDate(&d)
	if !got.Valid || !got.Time.Equal(d.Time) {
		t.Errorf("ToPgDate(%v) = %v", d, got)
	}

	back := FromPgDate(got)
	if back == nil || back.String() != "2023-09-29" {
		t.Errorf("FromPgDate round trip = %v", back)
	}
	if FromPgDate(pgtype.Date{}) != nil {
		t.Error("FromPgDate(NULL) should be nil")
	}
}

func TestToPgInt4(t *testing.T) {
	if got := ToPgInt4(nil); got.Valid {
		t.Errorf("ToPgInt4(nil) = %v, want invalid", got)
	}
	got := ToPgInt4(Ptr(28))
	if !got.Valid || got.Int32 != 28 {
		t.Errorf("ToPgInt4(28) = %v", got)
	}
	if v := FromPgInt4(got); v == nil || *v != 28 {
		t.Errorf("FromPgInt4 = %v, want 28", v)
	}
	if FromPgInt4(pgtype.Int4{}) != nil {
		t.Error("FromPgInt4(NULL) should be nil")
	}
}

func TestFromPgText(t *testing.T) {
	if FromPgText(pgtype.Text{}) != nil {
		t.Error("FromPgText(NULL) should be nil")
	}
	if v := FromPgText(pgtype.Text{String: "x", Valid: true}); v == nil || *v != "x" {
		t.Errorf("FromPgText = %v, want x", v)
	}
}

func TestPgUUID(t *testing.T) {
	const id = "6f1c2b1e-3a57-4d8e-9a43-2f6f0f0f1a2b"

	u := ToPgUUID(id)
	if !u.Valid {
		t.Fatalf("ToPgUUID(%q) invalid", id)
	}
	if got := PgUUIDToString(u); got != id {
		t.Errorf("PgUUIDToString = %q, want %q", got, id)
	}

	for _, bad := range []string{"", "not-a-uuid", "6f1c2b1e"} {
		if ToPgUUID(bad).Valid {
			t.Errorf("ToPgUUID(%q) should be invalid", bad)
		}
	}
	if PgUUIDToString(pgtype.UUID{}) != "" {
		t.Error("PgUUIDToString(NULL) should be empty")
	}
}

func TestToPgTimestamptz(t *testing.T) {
	if ToPgTimestamptz(time.Time{}).Valid {
		t.Error("zero time should be NULL")
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := ToPgTimestamptz(now); !got.Valid || !got.Time.Equal(now) {
		t.Errorf("ToPgTimestamptz(%v) = %v", now, got)
	}
}
