package stats

import (
	"strconv"
	"strings"
	"time"

	"vkstats/pkg/errors"
)

// ParseCutoff parses an earliest-date cutoff in yyyy/mm/dd format. An
// all-zero date (0/0/0) or an empty string means no cutoff and yields the
// zero time. A string that is not exactly three numeric slash-separated
// components is a configuration fault, reported before any network
// activity.
func ParseCutoff(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}

	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return time.Time{}, errors.Newf(errors.ErrorTypeConfig, "incorrect date %q: expected yyyy/mm/dd", s)
	}

	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return time.Time{}, errors.Newf(errors.ErrorTypeConfig, "incorrect date %q: expected yyyy/mm/dd", s)
		}
		nums[i] = n
	}

	if nums[0] == 0 && nums[1] == 0 && nums[2] == 0 {
		return time.Time{}, nil
	}

	return time.Date(nums[0], time.Month(nums[1]), nums[2], 0, 0, 0, 0, time.Local), nil
}
