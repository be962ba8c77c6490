// Package alias rewrites field path words before metadata resolution and
// holds the list of parameter keys that are not filters at all.
package alias

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// ProbeSeparator joins the root entity name and the path in the string that
// alias patterns are matched against, e.g. "Cover:album.author".
const ProbeSeparator = ":"

type rule struct {
	pattern     string
	re          *regexp.Regexp
	replacement string
}

// compileFull compiles pattern so that it must match the whole input.
func compileFull(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return re, nil
}

// Resolver holds alias rules in insertion order. Rules are evaluated in that
// order and the first match wins.
type Resolver struct {
	mu    sync.RWMutex
	rules []rule
}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Add stores pattern → replacement. Adding a pattern that already exists
// replaces its replacement and keeps its position.
func (r *Resolver) Add(pattern, replacement string) error {
	re, err := compileFull(pattern)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rules {
		if r.rules[i].pattern == pattern {
			r.rules[i].replacement = replacement
			return nil
		}
	}
	r.rules = append(r.rules, rule{pattern: pattern, re: re, replacement: replacement})
	return nil
}

// Len returns the number of rules.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

// Rules returns pattern → replacement pairs in evaluation order.
func (r *Resolver) Rules() [][2]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([][2]string, len(r.rules))
	for i, rl := range r.rules {
		out[i] = [2]string{rl.pattern, rl.replacement}
	}
	return out
}

// Resolve rewrites words for the given root entity. Each word is probed as
// "<root>:<resolved prefix>.<word>"; a matching rule's replacement, which may
// span several dotted words, is spliced in place of the word. Replacements
// are not themselves re-resolved.
func (r *Resolver) Resolve(root string, words []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.rules) == 0 {
		return words
	}

	resolved := make([]string, 0, len(words))
	for _, word := range words {
		probe := root + ProbeSeparator + word
		if len(resolved) > 0 {
			probe = root + ProbeSeparator + strings.Join(resolved, ".") + "." + word
		}
		if rl := r.match(probe); rl != nil {
			resolved = append(resolved, strings.Split(rl.replacement, ".")...)
		} else {
			resolved = append(resolved, word)
		}
	}
	return resolved
}

func (r *Resolver) match(probe string) *rule {
	for i := range r.rules {
		if r.rules[i].re.MatchString(probe) {
			return &r.rules[i]
		}
	}
	return nil
}

// Clone returns an independent copy of the resolver.
func (r *Resolver) Clone() *Resolver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &Resolver{rules: append([]rule(nil), r.rules...)}
}
