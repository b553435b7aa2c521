package models

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFrequencyDuration(t *testing.T) {
	require.Equal(t, 2*time.Hour, Frequency{Interval: 2, Unit: FrequencyUnitHours}.Duration())
	require.Equal(t, 72*time.Hour, Frequency{Interval: 3, Unit: FrequencyUnitDays}.Duration())

	// Unknown units fall back to a daily cycle instead of a zero duration,
	// which would make every schedule due immediately.
	require.Equal(t, 24*time.Hour, Frequency{Interval: 5, Unit: "weeks"}.Duration())
	require.Equal(t, 24*time.Hour, Frequency{}.Duration())
}

func TestFrequencyNextFrom(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	f := Frequency{Interval: 6, Unit: FrequencyUnitHours}

	require.Equal(t, now.Add(6*time.Hour), f.NextFrom(now))
	// Pure: same inputs, same output.
	require.Equal(t, f.NextFrom(now), f.NextFrom(now))
}

func TestPublishedInCycle(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s := Schedule{Frequency: Frequency{Interval: 2, Unit: FrequencyUnitHours}}

	t.Run("never published", func(t *testing.T) {
		require.False(t, s.PublishedInCycle(now))
	})

	t.Run("published within the window", func(t *testing.T) {
		s.LastPublishedAt = sql.NullTime{Time: now.Add(-1 * time.Hour), Valid: true}
		require.True(t, s.PublishedInCycle(now))
	})

	t.Run("inside the jitter margin", func(t *testing.T) {
		// 2h cycle with 10% margin covers up to 2h12m since last publish.
		s.LastPublishedAt = sql.NullTime{Time: now.Add(-2*time.Hour - 6*time.Minute), Valid: true}
		require.True(t, s.PublishedInCycle(now))
	})

	t.Run("past the margin", func(t *testing.T) {
		s.LastPublishedAt = sql.NullTime{Time: now.Add(-3 * time.Hour), Valid: true}
		require.False(t, s.PublishedInCycle(now))
	})
}

func TestReachedPublicationLimit(t *testing.T) {
	unlimited := Schedule{}
	require.False(t, unlimited.ReachedPublicationLimit(1000))

	capped := Schedule{MaxPublications: sql.NullInt64{Int64: 3, Valid: true}}
	require.False(t, capped.ReachedPublicationLimit(2))
	require.True(t, capped.ReachedPublicationLimit(3))
	require.True(t, capped.ReachedPublicationLimit(4))
}
