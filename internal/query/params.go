package query

import (
	"net/url"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Param is one query-string key with all its values. Only the first value is
// used as the instruction's raw value.
type Param struct {
	Key    string
	Values []string
}

// Value returns the first value, or "" when there is none.
func (p Param) Value() string {
	if len(p.Values) == 0 {
		return ""
	}
	return p.Values[0]
}

// FromValues converts decoded query values to params sorted by key, since
// map order is not stable.
func FromValues(values url.Values) []Param {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	params := make([]Param, len(keys))
	for i, k := range keys {
		params[i] = Param{Key: k, Values: values[k]}
	}
	return params
}

// paramSet groups repeated keys while keeping first-appearance order.
type paramSet struct {
	index  map[string]int
	params []Param
}

func (s *paramSet) add(key, value string) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[key]; ok {
		s.params[i].Values = append(s.params[i].Values, value)
		return
	}
	s.index[key] = len(s.params)
	s.params = append(s.params, Param{Key: key, Values: []string{value}})
}

// ParseRawQuery decodes a raw query string keeping the order in which keys
// first appear. Like url.ParseQuery it skips malformed pairs and returns the
// first decoding error.
func ParseRawQuery(raw string) ([]Param, error) {
	var set paramSet
	var firstErr error
	for raw != "" {
		var pair string
		pair, raw, _ = strings.Cut(raw, "&")
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		set.add(key, value)
	}
	return set.params, firstErr
}

// FromRequest reads the request's query arguments in the order they were
// sent.
func FromRequest(c *fiber.Ctx) []Param {
	var set paramSet
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		set.add(string(key), string(value))
	})
	return set.params
}

// FromPairs reads literal "key=value" strings, as given on a command line.
// Nothing is unescaped; a pair without "=" has an empty value.
func FromPairs(pairs []string) []Param {
	var set paramSet
	for _, p := range pairs {
		k, v, _ := strings.Cut(p, "=")
		set.add(k, v)
	}
	return set.params
}
