package pagesel

import (
	"errors"
	"slices"
	"testing"

	apperrors "github.com/FocuswithJustin/jetdb/core/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Term
	}{
		{"single", "9", []Term{{Start: 9, End: 9}}},
		{"range", "1-4", []Term{{Start: 1, End: 4}}},
		{"count", "12:3", []Term{{Start: 12, End: 14}}},
		{"open", "12-", []Term{{Start: 12, End: 12, OpenEnd: true}}},
		{"all", "*", []Term{{All: true}}},
		{"hex", "0x1c", []Term{{Start: 28, End: 28}}},
		{"leading zero is decimal", "09", []Term{{Start: 9, End: 9}}},
		{"list", "1-4, 9 ,12:3", []Term{{Start: 1, End: 4}, {Start: 9, End: 9}, {Start: 12, End: 14}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if !slices.Equal(sel.Terms, tt.want) {
				t.Errorf("Parse(%q).Terms = %+v, want %+v", tt.input, sel.Terms, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"a",
		"4-1",
		"3:0",
		"1,,2",
		"1-2-3",
		"*-4",
		"99999999999",
		"4294967295:2",
	}
	for _, in := range inputs {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) expected error", in)
		}
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		input string
		pages int
		want  []uint32
	}{
		{"*", 4, []uint32{0, 1, 2, 3}},
		{"1-4,9,12:3", 20, []uint32{1, 2, 3, 4, 9, 12, 13, 14}},
		{"5-,2", 8, []uint32{2, 5, 6, 7}},
		{"3,1-3,2", 10, []uint32{1, 2, 3}},
		{"0", 1, []uint32{0}},
	}

	for _, tt := range tests {
		sel, err := Parse(tt.input)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", tt.input, err)
		}
		got, err := sel.Resolve(tt.pages)
		if err != nil {
			t.Fatalf("Resolve(%q, %d) error = %v", tt.input, tt.pages, err)
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("Resolve(%q, %d) = %v, want %v", tt.input, tt.pages, got, tt.want)
		}
	}
}

func TestResolveOutOfRange(t *testing.T) {
	for _, in := range []string{"10", "8-10", "9:2", "12-"} {
		sel, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", in, err)
		}
		if _, err := sel.Resolve(10); !errors.Is(err, apperrors.ErrRange) {
			t.Errorf("Resolve(%q, 10) error = %v, want ErrRange", in, err)
		}
	}
}

func TestResolveEmptyFile(t *testing.T) {
	sel, err := Parse("*")
	if err != nil {
		t.Fatal(err)
	}
	if got, err := sel.Resolve(0); err != nil || got != nil {
		t.Errorf("Resolve(0) = %v, %v", got, err)
	}
}

func TestString(t *testing.T) {
	sel, err := Parse(" 1-4 ")
	if err != nil {
		t.Fatal(err)
	}
	if sel.String() != "1-4" {
		t.Errorf("String() = %q", sel.String())
	}
}
