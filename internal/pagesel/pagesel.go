// Package pagesel parses page selector expressions used by jetinfo.
//
// A selector is a comma-separated list of terms:
//
//	*      every page
//	9      page 9
//	1-4    pages 1 through 4
//	12-    page 12 through the last page
//	12:3   three pages starting at 12
//
// Numbers may be decimal or 0x-prefixed hexadecimal, matching how page
// numbers appear in Jet documentation.
package pagesel

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	apperrors "github.com/FocuswithJustin/jetdb/core/errors"
)

//nolint:govet // participle grammar tags are not standard struct tags
type selectorGrammar struct {
	Terms []*termGrammar `@@ ( "," @@ )*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type termGrammar struct {
	All   bool    `  @"*"`
	Start *string `| @Number (`
	Dash  bool    `    ( @"-"`
	End   *string `      @Number? )`
	Colon bool    `  | ( @":"`
	Count *string `      @Number ) )?`
}

var selectorLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `0[xX][0-9a-fA-F]+|[0-9]+`},
	{Name: "Punct", Pattern: `[,\-:*]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var selectorParser = participle.MustBuild[selectorGrammar](
	participle.Lexer(selectorLexer),
	participle.Elide("Whitespace"),
)

// Term is one comma-separated piece of a selector. End is inclusive;
// OpenEnd means through the last page.
type Term struct {
	All     bool
	Start   uint32
	End     uint32
	OpenEnd bool
}

// Selector is a parsed selector expression.
type Selector struct {
	Terms []Term
	src   string
}

// String returns the expression the selector was parsed from.
func (s *Selector) String() string { return s.src }

// Parse parses a selector expression.
func Parse(s string) (*Selector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty page selector")
	}

	parsed, err := selectorParser.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("invalid page selector %q: %w", s, err)
	}

	sel := &Selector{src: s}
	for _, tg := range parsed.Terms {
		term, err := tg.term()
		if err != nil {
			return nil, fmt.Errorf("invalid page selector %q: %w", s, err)
		}
		sel.Terms = append(sel.Terms, term)
	}
	return sel, nil
}

func (tg *termGrammar) term() (Term, error) {
	if tg.All {
		return Term{All: true}, nil
	}

	start, err := parseNumber(*tg.Start)
	if err != nil {
		return Term{}, err
	}
	term := Term{Start: start, End: start}

	switch {
	case tg.Colon:
		n, err := parseNumber(*tg.Count)
		if err != nil {
			return Term{}, err
		}
		if n == 0 {
			return Term{}, fmt.Errorf("page count must be positive")
		}
		term.End = start + n - 1
		if term.End < start {
			return Term{}, fmt.Errorf("page count %d overflows", n)
		}
	case tg.Dash && tg.End != nil:
		end, err := parseNumber(*tg.End)
		if err != nil {
			return Term{}, err
		}
		if end < start {
			return Term{}, fmt.Errorf("range %d-%d is descending", start, end)
		}
		term.End = end
	case tg.Dash:
		term.OpenEnd = true
	}
	return term, nil
}

func parseNumber(s string) (uint32, error) {
	base := 10
	if lower := strings.ToLower(s); strings.HasPrefix(lower, "0x") {
		s, base = lower[2:], 16
	}
	n, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, fmt.Errorf("page number %q: %w", s, err)
	}
	return uint32(n), nil
}

// Resolve expands the selector for a file of pageCount pages into an
// ascending list of distinct page numbers. A term naming a page past the
// end is a RangeError.
func (s *Selector) Resolve(pageCount int) ([]uint32, error) {
	if pageCount <= 0 {
		return nil, nil
	}
	last := uint32(pageCount - 1)

	var pages []uint32
	for _, t := range s.Terms {
		start, end := t.Start, t.End
		switch {
		case t.All:
			start, end = 0, last
		case t.OpenEnd:
			end = last
		}
		if start > last || end > last {
			return nil, apperrors.NewRange("page", int64(max(start, end)), int64(pageCount))
		}
		for n := start; n <= end; n++ {
			pages = append(pages, n)
			if n == end {
				break
			}
		}
	}

	slices.Sort(pages)
	return slices.Compact(pages), nil
}
