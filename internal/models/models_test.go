package models_test

import (
	"testing"
	"time"

	"taskbot/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePriority(t *testing.T) {
	assert.Equal(t, "URGENT", models.NormalizePriority("urgent"))
	assert.Equal(t, "LOW", models.NormalizePriority("Low"))
	assert.Equal(t, "MEDIUM", models.NormalizePriority(""))
	assert.Equal(t, "MEDIUM", models.NormalizePriority("whatever"))
}

func TestPriorityRank(t *testing.T) {
	assert.Less(t, models.PriorityRank("URGENT"), models.PriorityRank("HIGH"))
	assert.Less(t, models.PriorityRank("HIGH"), models.PriorityRank("MEDIUM"))
	assert.Less(t, models.PriorityRank("MEDIUM"), models.PriorityRank("LOW"))
	assert.Less(t, models.PriorityRank("LOW"), models.PriorityRank("garbage"))
}

func TestParseRecurrence(t *testing.T) {
	r := models.ParseRecurrence("weekly")
	if assert.NotNil(t, r) {
		assert.Equal(t, models.RecurrenceWeekly, *r)
	}
	assert.Nil(t, models.ParseRecurrence("fortnightly"))
	assert.Nil(t, models.ParseRecurrence(""))
}

func TestParseTaskStatus(t *testing.T) {
	status, ok := models.ParseTaskStatus("completed")
	assert.True(t, ok)
	assert.Equal(t, models.TaskStatusCompleted, status)

	_, ok = models.ParseTaskStatus("done")
	assert.False(t, ok)
}

func TestParseTimeFilter(t *testing.T) {
	assert.Equal(t, models.TimeFilterWeek, models.ParseTimeFilter("week"))
	assert.Equal(t, models.TimeFilterAll, models.ParseTimeFilter(""))
	assert.Equal(t, models.TimeFilterAll, models.ParseTimeFilter("someday"))
}

func TestTimeFilterCutoff(t *testing.T) {
	now := time.Date(2025, time.March, 10, 14, 30, 0, 0, time.UTC)

	cutoff, bounded := models.TimeFilterToday.Cutoff(now)
	assert.True(t, bounded)
	assert.Equal(t, 23, cutoff.Hour())
	assert.Equal(t, now.Day(), cutoff.Day())

	cutoff, bounded = models.TimeFilterWeek.Cutoff(now)
	assert.True(t, bounded)
	assert.Equal(t, now.AddDate(0, 0, 7), cutoff)

	_, bounded = models.TimeFilterAll.Cutoff(now)
	assert.False(t, bounded)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "alice", (&models.User{Username: "alice", FirstName: "Alice"}).DisplayName())
	assert.Equal(t, "Alice", (&models.User{FirstName: "Alice"}).DisplayName())
	assert.Equal(t, "Unknown", (&models.User{}).DisplayName())
}
