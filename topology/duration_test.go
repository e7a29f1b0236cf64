/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package topology

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeout(t *testing.T) {
	testCases := []struct {
		raw      string
		expected time.Duration
	}{
		{"30s", 30 * time.Second},
		{"5m", 5 * time.Minute},
		{"1h", time.Hour},
		{"2H", 2 * time.Hour},
		{" 10S ", 10 * time.Second},
	}
	for _, tc := range testCases {
		d, err := ParseTimeout(tc.raw)
		require.NoError(t, err, "value %q", tc.raw)
		assert.Equal(t, tc.expected, d, "value %q", tc.raw)
	}
}

func TestParseTimeoutRejectsBadValues(t *testing.T) {
	for _, raw := range []string{"", "30", "s", "30x", "-5s", "1.5h", "30 s"} {
		_, err := ParseTimeout(raw)
		require.Error(t, err, "value %q", raw)
		var durationErr *DurationError
		require.ErrorAs(t, err, &durationErr)
		assert.Equal(t, raw, durationErr.Value)
	}
}
