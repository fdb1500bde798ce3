package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gbvolkov/shipment-data-maintenance-bot/internal/clock"
)

func TestRealClockIsUTC(t *testing.T) {
	now := clock.RealClock{}.Now()
	assert.False(t, now.IsZero())
	assert.Equal(t, time.UTC, now.Location())
}

func TestFixed(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 30, 0, 0, time.FixedZone("MSK", 3*60*60))
	c := clock.Fixed(at)

	assert.True(t, at.Equal(c.Now()))
	assert.Equal(t, time.UTC, c.Now().Location())
}

func TestFormatAndParseRFC3339Nano(t *testing.T) {
	at := time.Date(2024, 5, 1, 7, 30, 0, 123456789, time.UTC)

	s := clock.FormatRFC3339Nano(at)
	assert.Equal(t, "2024-05-01T07:30:00.123456789Z", s)

	parsed, err := clock.ParseRFC3339Nano(s)
	require.NoError(t, err)
	assert.True(t, at.Equal(parsed))
}
