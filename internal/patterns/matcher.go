package patterns

import (
	"fmt"
	"regexp"
	"regexp/syntax"
	"unicode/utf8"
)

// SecretGroup is the capture group name that narrows a match to its value.
const SecretGroup = "secret"

// Span locates one match inside the text handed to a Matcher. Start/End cover
// the reported value, MatchStart/MatchEnd the whole regex match.
type Span struct {
	MatchStart int
	MatchEnd   int
	Start      int
	End        int
}

// Matcher finds candidate secrets. Implementations hold no scan state: the
// scanner owns the cursor and hands each call the slice it wants searched.
type Matcher interface {
	// FindAll returns non-overlapping spans in ascending order.
	FindAll(text string) []Span
	// MatchString reports whether text contains any match.
	MatchString(text string) bool
	String() string
}

// Seeker is a Matcher that can continue a search from an offset inside the
// full text. Matchers that do not implement it are applied to the whole
// content in one unit.
type Seeker interface {
	Matcher
	// FindAt returns the leftmost match in text[:limit] that starts at or
	// after pos. Assertions at pos see the rune before it, so the result is
	// the one a search of the whole text from pos would give.
	FindAt(text string, pos, limit int) (Span, bool)
	// MaxLen is the longest possible match in bytes, or -1 when unbounded.
	MaxLen() int
}

// RegexMatcher is a Matcher over Go's RE2 engine, so matching time is linear
// in the input regardless of the pattern.
type RegexMatcher struct {
	re    *regexp.Regexp
	group int

	// resume matches the pattern after one rune of leading context.
	resume      *regexp.Regexp
	resumeGroup int
	maxLen      int
}

// NewRegexMatcher compiles pattern. A capture group named "secret" selects the
// reported value; otherwise the whole match is used.
func NewRegexMatcher(pattern string) (*RegexMatcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern: %w", err)
	}
	resume, err := regexp.Compile(`\A(?s:.)(?s:.*?)(` + pattern + `)`)
	if err != nil {
		return nil, fmt.Errorf("compile resume pattern: %w", err)
	}
	parsed, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return nil, fmt.Errorf("parse pattern: %w", err)
	}
	return &RegexMatcher{
		re:          re,
		group:       re.SubexpIndex(SecretGroup),
		resume:      resume,
		resumeGroup: resume.SubexpIndex(SecretGroup),
		maxLen:      maxMatchLen(parsed),
	}, nil
}

// MustRegex is NewRegexMatcher for built-in patterns.
func MustRegex(pattern string) *RegexMatcher {
	m, err := NewRegexMatcher(pattern)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *RegexMatcher) FindAll(text string) []Span {
	idx := m.re.FindAllStringSubmatchIndex(text, -1)
	if len(idx) == 0 {
		return nil
	}
	out := make([]Span, 0, len(idx))
	for _, loc := range idx {
		sp := toSpan(loc, 0, 0, m.group)
		if sp.End <= sp.Start {
			continue
		}
		out = append(out, sp)
	}
	return out
}

func (m *RegexMatcher) FindAt(text string, pos, limit int) (Span, bool) {
	if limit > len(text) {
		limit = len(text)
	}
	if pos > limit {
		return Span{}, false
	}
	if pos == 0 {
		loc := m.re.FindStringSubmatchIndex(text[:limit])
		if loc == nil {
			return Span{}, false
		}
		return toSpan(loc, 0, 0, m.group), true
	}
	_, w := utf8.DecodeLastRuneInString(text[:pos])
	lo := pos - w
	loc := m.resume.FindStringSubmatchIndex(text[lo:limit])
	if loc == nil {
		return Span{}, false
	}
	return toSpan(loc, lo, 1, m.resumeGroup), true
}

func (m *RegexMatcher) MaxLen() int { return m.maxLen }

func (m *RegexMatcher) MatchString(text string) bool { return m.re.MatchString(text) }

func (m *RegexMatcher) String() string { return m.re.String() }

// toSpan reads group whole as the match and group as the value, shifted by base.
func toSpan(loc []int, base, whole, group int) Span {
	sp := Span{MatchStart: loc[2*whole] + base, MatchEnd: loc[2*whole+1] + base}
	sp.Start, sp.End = sp.MatchStart, sp.MatchEnd
	if group > 0 && loc[2*group] >= 0 {
		sp.Start, sp.End = loc[2*group]+base, loc[2*group+1]+base
	}
	return sp
}

const maxBoundedLen = 1 << 20

// maxMatchLen bounds the byte length of any match of re, or returns -1.
func maxMatchLen(re *syntax.Regexp) int {
	switch re.Op {
	case syntax.OpEmptyMatch, syntax.OpNoMatch,
		syntax.OpBeginLine, syntax.OpEndLine, syntax.OpBeginText, syntax.OpEndText,
		syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		return 0
	case syntax.OpLiteral:
		n := 0
		for _, r := range re.Rune {
			if re.Flags&syntax.FoldCase != 0 {
				n += utf8.UTFMax
			} else {
				n += runeBytes(r)
			}
		}
		return capLen(n)
	case syntax.OpCharClass:
		if len(re.Rune) == 0 {
			return 0
		}
		return runeBytes(re.Rune[len(re.Rune)-1])
	case syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		return utf8.UTFMax
	case syntax.OpCapture, syntax.OpQuest:
		return maxMatchLen(re.Sub[0])
	case syntax.OpStar, syntax.OpPlus:
		if maxMatchLen(re.Sub[0]) == 0 {
			return 0
		}
		return -1
	case syntax.OpRepeat:
		sub := maxMatchLen(re.Sub[0])
		switch {
		case sub == 0 || re.Max == 0:
			return 0
		case sub < 0 || re.Max < 0:
			return -1
		}
		return capLen(sub * re.Max)
	case syntax.OpConcat:
		n := 0
		for _, s := range re.Sub {
			l := maxMatchLen(s)
			if l < 0 {
				return -1
			}
			if n = capLen(n + l); n < 0 {
				return -1
			}
		}
		return n
	case syntax.OpAlternate:
		n := 0
		for _, s := range re.Sub {
			l := maxMatchLen(s)
			if l < 0 {
				return -1
			}
			n = max(n, l)
		}
		return n
	}
	return -1
}

func capLen(n int) int {
	if n > maxBoundedLen {
		return -1
	}
	return n
}

func runeBytes(r rune) int {
	if l := utf8.RuneLen(r); l > 0 {
		return l
	}
	return utf8.UTFMax
}
