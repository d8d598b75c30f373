package util

import (
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

// ParseBool parses a query flag; anything unparseable is false
func ParseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}

// ParseCSV splits a comma-separated list, dropping blanks and duplicates.
// An empty input yields nil so callers can tell "not given" from "given".
func ParseCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := lo.Map(strings.Split(s, ","), func(p string, _ int) string { return strings.TrimSpace(p) })
	return lo.Uniq(lo.Filter(parts, func(p string, _ int) bool { return p != "" }))
}

// ParseOptionalTime parses an RFC 3339 timestamp; empty input yields nil
func ParseOptionalTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
