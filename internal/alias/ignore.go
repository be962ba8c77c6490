package alias

import (
	"regexp"
	"sync"
)

// IgnoreList matches raw parameter keys, operator suffix included, that must
// be skipped entirely (pagination, field selection and the like).
type IgnoreList struct {
	mu       sync.RWMutex
	patterns []string
	res      []*regexp.Regexp
}

func NewIgnoreList() *IgnoreList {
	return &IgnoreList{}
}

// Add appends patterns. Nothing is added when any pattern is invalid.
func (l *IgnoreList) Add(patterns ...string) error {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := compileFull(p)
		if err != nil {
			return err
		}
		res = append(res, re)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.patterns = append(l.patterns, patterns...)
	l.res = append(l.res, res...)
	return nil
}

// Match reports whether key matches any pattern in full.
func (l *IgnoreList) Match(key string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, re := range l.res {
		if re.MatchString(key) {
			return true
		}
	}
	return false
}

// Patterns returns the patterns in insertion order.
func (l *IgnoreList) Patterns() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.patterns...)
}

func (l *IgnoreList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.patterns)
}

// Clone returns an independent copy of the list.
func (l *IgnoreList) Clone() *IgnoreList {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return &IgnoreList{
		patterns: append([]string(nil), l.patterns...),
		res:      append([]*regexp.Regexp(nil), l.res...),
	}
}
