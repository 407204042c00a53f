package comments

import (
	"errors"
	"strconv"
	"strings"
)

// SanitizeInt reads the leading base-10 integer of s the way a browser's
// parseInt does: leading whitespace and a sign are allowed and trailing
// garbage is ignored. Only positive results are accepted. Values past
// int64 saturate at math.MaxInt64 instead of failing.
func SanitizeInt(s string) (int64, bool) {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}

	// ParseInt already clamps to the int64 bounds on ErrRange.
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	if n <= 0 {
		return 0, false
	}
	return n, true
}

func MapPendingStatusToUnapproved(status string) string {
	if status == "pending" {
		return StatusUnapproved
	}
	return status
}

var queryActions = map[string]string{
	"approve": StatusApproved,
	"trash":   StatusTrash,
	"spam":    StatusSpam,
	"delete":  ActionDelete,
}

// SanitizeQueryAction maps a moderation link action to the status it sets.
// Unknown actions give "".
func SanitizeQueryAction(action string) string {
	return queryActions[strings.ToLower(action)]
}

// SiteFragment pulls the site out of a path: the first segment that looks
// like a domain, or failing that the first positive integer segment.
func SiteFragment(path string) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	for _, seg := range segs {
		if strings.Contains(seg, ".") {
			return seg
		}
	}
	for _, seg := range segs {
		if n, err := strconv.ParseInt(seg, 10, 64); err == nil && n > 0 {
			return seg
		}
	}
	return ""
}
