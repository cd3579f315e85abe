package provider

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseRetryAfter interprets a rate-limit resume delay header. Services
// report the delay either as a bare number of seconds ("30", "1.5") or as a
// duration with units ("6m0s", "250ms"). Returns zero and an error when the
// value is unintelligible.
func ParseRetryAfter(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty retry delay value")
	}

	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		if seconds < 0 {
			return 0, fmt.Errorf("negative retry delay %q", value)
		}
		return time.Duration(seconds * float64(time.Second)), nil
	}

	if d, err := time.ParseDuration(value); err == nil {
		if d < 0 {
			return 0, fmt.Errorf("negative retry delay %q", value)
		}
		return d, nil
	}

	return 0, fmt.Errorf("unrecognized retry delay %q", value)
}
