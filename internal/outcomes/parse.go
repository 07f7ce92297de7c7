// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package outcomes

import (
	"math"
	"strconv"
	"strings"
)

// ParseMonths reads a median such as "13.6 months" as 13.6 by parsing the
// first whitespace-delimited token. Anything unparsable yields nil.
func ParseMonths(value *string) *float64 {
	if value == nil {
		return nil
	}
	tokens := strings.Fields(*value)
	if len(tokens) == 0 {
		return nil
	}
	return parseFinite(tokens[0])
}

// ParsePValue reads "p<0.001" or "P = 0.05" by removing every 'p', '<',
// '=' and whitespace and parsing the rest. Other comparators such as '>'
// are not stripped, so "p>0.05" yields nil.
func ParsePValue(value *string) *float64 {
	if value == nil {
		return nil
	}
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case 'p', 'P', '<', '=':
			return -1
		}
		return r
	}, *value)
	return parseFinite(strings.TrimSpace(cleaned))
}

// ParseCI splits a "low-high" interval on '-' and parses both bounds.
// Anything other than exactly two numeric parts yields (nil, nil). Negative
// bounds contain extra hyphens and therefore also yield (nil, nil).
func ParseCI(value *string) (low, high *float64) {
	if value == nil {
		return nil, nil
	}
	parts := strings.Split(*value, "-")
	if len(parts) != 2 {
		return nil, nil
	}
	low = parseFinite(strings.TrimSpace(parts[0]))
	high = parseFinite(strings.TrimSpace(parts[1]))
	if low == nil || high == nil {
		return nil, nil
	}
	return low, high
}

func parseFinite(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
