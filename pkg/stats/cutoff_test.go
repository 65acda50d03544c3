package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vkstats/pkg/errors"
)

func TestParseCutoffNoLimit(t *testing.T) {
	for _, input := range []string{"", "0/0/0"} {
		cutoff, err := ParseCutoff(input)
		require.NoError(t, err, "input %q", input)
		assert.True(t, cutoff.IsZero(), "input %q should mean no cutoff", input)
	}
}

func TestParseCutoffValidDate(t *testing.T) {
	cutoff, err := ParseCutoff("2015/06/01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2015, time.June, 1, 0, 0, 0, 0, time.Local), cutoff)
}

func TestParseCutoffMalformed(t *testing.T) {
	for _, input := range []string{"2015-06-01", "2015/06", "2015/06/01/02", "yyyy/mm/dd", "2015/6/"} {
		_, err := ParseCutoff(input)
		require.Error(t, err, "input %q", input)

		var appErr *errors.Error
		require.ErrorAs(t, err, &appErr, "input %q", input)
		assert.Equal(t, errors.ErrorTypeConfig, appErr.Type, "input %q", input)
	}
}
