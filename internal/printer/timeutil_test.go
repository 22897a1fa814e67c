package printer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		time     time.Time
		expected string
	}{
		"Same instant should be zero seconds.": {
			time:     now,
			expected: "0 seconds ago (UTC)",
		},
		"One second.": {
			time:     now.Add(-1 * time.Second),
			expected: "1 second ago (UTC)",
		},
		"Seconds.": {
			time:     now.Add(-59 * time.Second),
			expected: "59 seconds ago (UTC)",
		},
		"Minutes should be truncated.": {
			time:     now.Add(-150 * time.Second),
			expected: "2 minutes ago (UTC)",
		},
		"One hour.": {
			time:     now.Add(-1 * time.Hour),
			expected: "1 hour ago (UTC)",
		},
		"Days.": {
			time:     now.Add(-72 * time.Hour),
			expected: "3 days ago (UTC)",
		},
		"Future times.": {
			time:     now.Add(time.Minute),
			expected: "in the future (UTC)",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expected, timeAgo(now, test.time))
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 30, 0, 0, time.FixedZone("CEST", 2*60*60))
	assert.Equal(t, "2024-05-01 10:30:00 UTC", FormatTimestamp(ts))
}
