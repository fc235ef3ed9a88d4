package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestFormatError(t *testing.T) {
	tests := []struct {
		name     string
		err      *FormatError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with structure",
			err:      &FormatError{Structure: "usage map", Message: "unknown type 0x07"},
			wantMsg:  "invalid usage map: unknown type 0x07",
			wantBase: ErrFormat,
		},
		{
			name:     "without structure",
			err:      &FormatError{Message: "truncated"},
			wantMsg:  "invalid format: truncated",
			wantBase: ErrFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		underlying := fmt.Errorf("short read")
		err := &FormatError{Structure: "page", Message: "bad tag", Err: underlying}
		if got := err.Unwrap(); got != underlying {
			t.Errorf("Unwrap() = %v, want %v", got, underlying)
		}
	})
}

func TestRangeError(t *testing.T) {
	tests := []struct {
		name    string
		err     *RangeError
		wantMsg string
	}{
		{"with limit", NewRange("page", 9, 4), "page 9 out of range (limit 4)"},
		{"without limit", NewRange("slot", -1, -1), "slot -1 out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrRange) {
				t.Error("expected errors.Is(err, ErrRange)")
			}
		})
	}
}

func TestNotImplementedError(t *testing.T) {
	err := NewNotImplemented("Table.Data")
	if got := err.Error(); got != "Table.Data: not implemented" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrNotImplemented) {
		t.Error("expected errors.Is(err, ErrNotImplemented)")
	}
}

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name    string
		err     *NotFoundError
		wantMsg string
	}{
		{"with ID", NewNotFound("column", "Name"), "column not found: Name"},
		{"without ID", &NotFoundError{Resource: "table"}, "table not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrNotFound) {
				t.Error("expected errors.Is(err, ErrNotFound)")
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if Wrapf(nil, "page %d", 3) != nil {
		t.Error("Wrapf(nil) should return nil")
	}

	base := NewFormatf("page", "type tag 0x%02x", 7)
	wrapped := Wrapf(base, "reading page %d", 3)
	if got := wrapped.Error(); got != "reading page 3: invalid page: type tag 0x07" {
		t.Errorf("Wrapf() = %q", got)
	}
	if !Is(wrapped, ErrFormat) {
		t.Error("wrapped error should match ErrFormat")
	}

	var fe *FormatError
	if !As(wrapped, &fe) {
		t.Fatal("As() should find *FormatError")
	}
	if fe.Structure != "page" {
		t.Errorf("Structure = %q, want %q", fe.Structure, "page")
	}
}
