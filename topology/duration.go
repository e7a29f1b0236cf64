/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package topology

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var timeoutPattern = regexp.MustCompile(`^(\d+)([smhSMH])$`)

// DurationError reports a timeout string that does not match the
// <number><unit> form Microfab accepts, with unit one of s, m or h.
type DurationError struct {
	Value string
}

func (e *DurationError) Error() string {
	return "invalid timeout [" + e.Value + "]"
}

// ParseTimeout parses a Microfab timeout string such as "30s", "2m" or
// "1h" into a duration.
func ParseTimeout(raw string) (time.Duration, error) {
	m := timeoutPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return 0, &DurationError{Value: raw}
	}
	value, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, &DurationError{Value: raw}
	}
	switch strings.ToLower(m[2]) {
	case "s":
		return time.Duration(value) * time.Second, nil
	case "m":
		return time.Duration(value) * time.Minute, nil
	default:
		return time.Duration(value) * time.Hour, nil
	}
}
