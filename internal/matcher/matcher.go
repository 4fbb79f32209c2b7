// Package matcher extracts flag tokens from text and keeps the run-wide
// history used to suppress duplicates.
package matcher

import (
	"regexp"
	"sync"
	"time"

	"github.com/hawtsauceTR/flaghunter/internal/errs"
)

// TimestampLayout is the layout used for Record.Timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// Record is a discovered flag and where it came from.
type Record struct {
	Flag      string `json:"flag"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
}

// Pattern is a compiled flag pattern together with its source text.
type Pattern struct {
	Source string
	Re     *regexp.Regexp
}

// extract returns the flag value of a submatch: capture group 1 when the
// pattern has groups, the whole match otherwise.
func (p Pattern) extract(m []string) string {
	if len(m) > 1 {
		return m[1]
	}
	return m[0]
}

// CompilePattern compiles src case-insensitively.
func CompilePattern(src string) (Pattern, error) {
	re, err := regexp.Compile("(?i)" + src)
	if err != nil {
		return Pattern{}, errs.New(errs.CodeInvalidPattern, "compile pattern", src, err)
	}
	return Pattern{Source: src, Re: re}, nil
}

// Compile compiles every source. Invalid sources are skipped and reported;
// the valid ones keep their relative order.
func Compile(sources []string) ([]Pattern, []error) {
	patterns := make([]Pattern, 0, len(sources))
	var failures []error
	for _, src := range sources {
		p, err := CompilePattern(src)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		patterns = append(patterns, p)
	}
	return patterns, failures
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Matcher) {
		m.now = now
	}
}

// Matcher owns the active pattern set and the flag history. It is safe for
// concurrent use.
type Matcher struct {
	patMu    sync.RWMutex
	patterns []Pattern
	bySource map[string]int

	mu      sync.Mutex
	history []Record
	seen    map[string]struct{}

	now func() time.Time
}

// New builds a Matcher from pattern sources. Sources that fail to compile
// are returned as errors and left out of the set.
func New(sources []string, opts ...Option) (*Matcher, []error) {
	m := &Matcher{
		bySource: make(map[string]int),
		seen:     make(map[string]struct{}),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	patterns, failures := Compile(sources)
	for _, p := range patterns {
		m.appendPattern(p)
	}
	return m, failures
}

// AddPattern compiles src and appends it to the active set. A source that
// is already active is ignored. On error the set is left untouched.
func (m *Matcher) AddPattern(src string) error {
	p, err := CompilePattern(src)
	if err != nil {
		return err
	}
	m.patMu.Lock()
	defer m.patMu.Unlock()
	m.appendPatternLocked(p)
	return nil
}

func (m *Matcher) appendPattern(p Pattern) {
	m.patMu.Lock()
	defer m.patMu.Unlock()
	m.appendPatternLocked(p)
}

func (m *Matcher) appendPatternLocked(p Pattern) {
	if _, ok := m.bySource[p.Source]; ok {
		return
	}
	m.bySource[p.Source] = len(m.patterns)
	m.patterns = append(m.patterns, p)
}

// Patterns returns the active pattern sources in priority order.
func (m *Matcher) Patterns() []string {
	m.patMu.RLock()
	defer m.patMu.RUnlock()
	out := make([]string, len(m.patterns))
	for i, p := range m.patterns {
		out[i] = p.Source
	}
	return out
}

// Search returns the flags in text that have not been seen before in this
// run, tagging each with source. Matches are visited in pattern order and
// then in position order within a pattern.
func (m *Matcher) Search(text, source string) []Record {
	if text == "" {
		return nil
	}

	m.patMu.RLock()
	patterns := m.patterns
	m.patMu.RUnlock()

	var candidates []string
	for _, p := range patterns {
		for _, sub := range p.Re.FindAllStringSubmatch(text, -1) {
			if v := p.extract(sub); v != "" {
				candidates = append(candidates, v)
			}
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var found []Record
	ts := m.now().Format(TimestampLayout)
	for _, flag := range candidates {
		if _, dup := m.seen[flag]; dup {
			continue
		}
		rec := Record{Flag: flag, Source: source, Timestamp: ts}
		m.seen[flag] = struct{}{}
		m.history = append(m.history, rec)
		found = append(found, rec)
	}
	return found
}

// History returns a copy of every record found so far, in discovery order.
func (m *Matcher) History() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.history))
	copy(out, m.history)
	return out
}

// Len returns the number of unique flags found so far.
func (m *Matcher) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history)
}
