package scanner

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ferretwatch/ferretwatch/internal/log"
	"github.com/ferretwatch/ferretwatch/internal/patterns"
	"github.com/ferretwatch/ferretwatch/internal/types"
)

// session is the resumable state of one scan. A unit is one rule applied to
// one chunk; budget and abort checks happen only between units.
type session struct {
	ctx     context.Context
	sc      *Scanner
	content string
	rules   []patterns.Rule
	opts    Options

	ruleIdx int
	cursor  int // start of the next chunk for rules[ruleIdx]
	match   matchCursor

	findings []types.Finding
	owners   []int
	seen     map[string]struct{}

	sliceStart time.Time
	sliceUnits int
	stats      Stats
}

func newSession(ctx context.Context, sc *Scanner, content string, rules []patterns.Rule, opts Options) *session {
	return &session{
		ctx:      ctx,
		sc:       sc,
		content:  content,
		rules:    rules,
		opts:     opts,
		findings: []types.Finding{},
		seen:     make(map[string]struct{}),
		stats:    Stats{RulesTotal: len(rules)},
	}
}

func (ss *session) run() {
	ss.sliceStart = ss.sc.now()
	for ss.ruleIdx < len(ss.rules) {
		if ss.ctx.Err() != nil {
			ss.abort()
			return
		}
		ss.step()
		ss.stats.Units++
		ss.sliceUnits++
		if ss.ruleIdx >= len(ss.rules) {
			return
		}
		if ss.exhausted() {
			if err := ss.yield(); err != nil {
				log.Debugf("(scanner) aborted after %d units: %v", ss.stats.Units, err)
				ss.abort()
				return
			}
		}
	}
}

func (ss *session) exhausted() bool {
	if ss.opts.UnitsPerSlice > 0 && ss.sliceUnits >= ss.opts.UnitsPerSlice {
		return true
	}
	return ss.sc.now().Sub(ss.sliceStart) >= ss.opts.Budget
}

func (ss *session) yield() error {
	ss.stats.Yields++
	if err := ss.opts.Yielder.Yield(ss.ctx); err != nil {
		return err
	}
	if err := ss.ctx.Err(); err != nil {
		return err
	}
	ss.sliceStart = ss.sc.now()
	ss.sliceUnits = 0
	return nil
}

func (ss *session) abort() {
	ss.stats.Aborted = true
	if ss.ruleIdx < len(ss.rules) && ss.cursor > 0 {
		ss.stats.RulesPartial++
	}
}

// step runs one unit and advances the cursor.
func (ss *session) step() {
	rule := ss.rules[ss.ruleIdx]
	n := len(ss.content)
	start, end := ss.cursor, n
	if _, ok := rule.Matcher.(patterns.Seeker); ok && n > ss.opts.ChunkSize {
		end = chunkEnd(ss.content, start, ss.opts.ChunkSize)
	}

	found, err := ss.apply(rule, start, end)
	if err != nil {
		ss.degrade(rule, err)
		ss.nextRule()
		return
	}
	ss.commit(found)

	if end >= n || ss.match.done {
		ss.stats.RulesCompleted++
		ss.nextRule()
		return
	}
	ss.cursor = end
}

func (ss *session) nextRule() {
	ss.ruleIdx++
	ss.cursor = 0
	ss.match = matchCursor{}
}

func (ss *session) apply(rule patterns.Rule, start, end int) (found []types.Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			found, err = nil, fmt.Errorf("recovered from panic: %v", r)
		}
	}()
	if rule.Matcher == nil {
		return nil, ErrNilMatcher
	}
	for _, sp := range ss.spans(rule.Matcher, start, end) {
		ss.stats.Matches++
		value := ss.content[sp.Start:sp.End]
		if !ss.sc.validator.IsValidSecret(value, rule) {
			ss.stats.Rejected++
			continue
		}
		found = append(found, ss.finding(rule, sp, value))
	}
	return found, nil
}

// spans returns the matches that begin inside [start, end). A chunk of the
// content is searched from where the previous chunk's last match ended, with
// the text around it in view, so the matches are exactly those a single pass
// over the whole content yields.
func (ss *session) spans(m patterns.Matcher, start, end int) []patterns.Span {
	n := len(ss.content)
	sk, ok := m.(patterns.Seeker)
	if !ok || (start == 0 && end == n) {
		ss.match.done = true
		return m.FindAll(ss.content)
	}
	// a match starting before end is fully inside limit, plus one rune of
	// trailing context
	limit := n
	if l := sk.MaxLen(); l >= 0 {
		limit = min(n, end+l+utf8.UTFMax)
	}
	var out []patterns.Span
	for {
		sp, ok := ss.match.next(sk, ss.content, limit)
		if !ok || sp.MatchStart >= end {
			ss.match.pos = max(ss.match.pos, end)
			return out
		}
		if ss.match.advance(sp, ss.content) && sp.End > sp.Start {
			out = append(out, sp)
		}
	}
}

// matchCursor walks one rule's matches through the content in the order
// regexp's FindAll reports them.
type matchCursor struct {
	pos     int
	prevEnd int // end of the previous match plus one, 0 before the first
	ahead   patterns.Span
	hasNext bool // ahead holds the next match
	done    bool // no match starts at or after pos
}

func (c *matchCursor) next(m patterns.Seeker, text string, limit int) (patterns.Span, bool) {
	if c.hasNext {
		return c.ahead, true
	}
	if c.done || c.pos > len(text) {
		c.done = true
		return patterns.Span{}, false
	}
	sp, ok := m.FindAt(text, c.pos, limit)
	if limit < len(text) {
		// a truncated search is only trusted for matches before the chunk end
		return sp, ok
	}
	if !ok {
		c.done = true
		return sp, false
	}
	c.ahead, c.hasNext = sp, true
	return sp, true
}

// advance moves past sp and reports whether FindAll would report it: an
// empty match right after the previous match is skipped.
func (c *matchCursor) advance(sp patterns.Span, text string) bool {
	c.hasNext = false
	accept := true
	if sp.MatchEnd == c.pos {
		if sp.MatchStart+1 == c.prevEnd {
			accept = false
		}
		if _, w := utf8.DecodeRuneInString(text[c.pos:]); w > 0 {
			c.pos += w
		} else {
			c.pos = len(text) + 1
		}
	} else {
		c.pos = sp.MatchEnd
	}
	c.prevEnd = sp.MatchEnd + 1
	return accept
}

func (ss *session) finding(rule patterns.Rule, sp patterns.Span, value string) types.Finding {
	return types.Finding{
		Type:      rule.Type,
		RiskLevel: rule.RiskLevel,
		Category:  rule.Category,
		RuleID:    rule.ID,
		Provider:  rule.Provider,
		Value:     value,
		Context:   contextWindow(ss.content, sp.Start, sp.End, ss.opts.ContextWidth),
		Position:  sp.Start,
		Source:    ss.opts.Source,
		Timestamp: ss.sc.now(),
	}
}

// commit keeps the first finding per (type, value).
func (ss *session) commit(found []types.Finding) {
	for _, f := range found {
		k := f.Key()
		if _, dup := ss.seen[k]; dup {
			ss.stats.Duplicates++
			continue
		}
		ss.seen[k] = struct{}{}
		ss.findings = append(ss.findings, f)
		ss.owners = append(ss.owners, ss.ruleIdx)
	}
}

// degrade drops everything rules[ruleIdx] contributed and records why.
func (ss *session) degrade(rule patterns.Rule, err error) {
	kept := ss.findings[:0]
	owners := ss.owners[:0]
	for i, f := range ss.findings {
		if ss.owners[i] == ss.ruleIdx {
			delete(ss.seen, f.Key())
			continue
		}
		kept = append(kept, f)
		owners = append(owners, ss.owners[i])
	}
	ss.findings, ss.owners = kept, owners
	ss.stats.Degraded = append(ss.stats.Degraded, RuleError{RuleID: rule.ID, Tier: rule.Tier, Err: err})
	log.Warnf("(scanner) rule %s skipped: %v", rule.ID, err)
}

// chunkEnd picks where the chunk starting at start stops. It prefers a line
// break, then any non-word ASCII byte, in the back half of the chunk, and
// otherwise splits at a rune boundary. The result is always > start. Where
// the chunk ends only decides which unit reports a match, never the match.
func chunkEnd(s string, start, size int) int {
	end := start + size
	if end >= len(s) {
		return len(s)
	}
	floor := start + size/2
	if i := strings.LastIndexByte(s[floor:end], '\n'); i >= 0 {
		return floor + i + 1
	}
	for i := end - 1; i >= floor; i-- {
		if isBoundaryByte(s[i]) {
			return i + 1
		}
	}
	for end > start+1 && !utf8.RuneStart(s[end]) {
		end--
	}
	return end
}

func isBoundaryByte(c byte) bool {
	if c >= utf8.RuneSelf {
		return false
	}
	switch {
	case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		return false
	}
	return true
}

// contextWindow returns up to width bytes either side of s[start:end],
// trimmed inward to rune boundaries.
func contextWindow(s string, start, end, width int) string {
	lo := max(start-width, 0)
	hi := min(end+width, len(s))
	for lo < start && !utf8.RuneStart(s[lo]) {
		lo++
	}
	for hi > end && hi < len(s) && !utf8.RuneStart(s[hi]) {
		hi--
	}
	return s[lo:hi]
}
