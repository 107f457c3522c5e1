package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var relativeDate = regexp.MustCompile(`(?i)^(\d+)\s*(second|minute|hour|day|week|month|year)s?\s*ago$`)

// ParseRelativeDate converts "N units ago" into an ISO date relative to now.
func ParseRelativeDate(text string, now time.Time) (string, error) {
	m := relativeDate.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", fmt.Errorf("invalid relative date %q", text)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return "", fmt.Errorf("invalid relative date %q: %w", text, err)
	}

	var t time.Time
	switch strings.ToLower(m[2]) {
	case "second":
		t = now.Add(-time.Duration(n) * time.Second)
	case "minute":
		t = now.Add(-time.Duration(n) * time.Minute)
	case "hour":
		t = now.Add(-time.Duration(n) * time.Hour)
	case "day":
		t = now.AddDate(0, 0, -n)
	case "week":
		t = now.AddDate(0, 0, -7*n)
	case "month":
		t = now.AddDate(0, -n, 0)
	case "year":
		t = now.AddDate(-n, 0, 0)
	}
	return t.Format(time.DateOnly), nil
}

// resolveDate prefers the machine timestamp and falls back to the relative
// text. An unparsable relative text yields an empty date, not an error.
func resolveDate(machine, relative string, now time.Time) (string, error) {
	if machine != "" {
		return machine, nil
	}
	if relative == "" {
		return "", nil
	}
	return ParseRelativeDate(relative, now)
}
