package services

import (
	"time"

	"taskbot/backend/internal/models"

	"gorm.io/gorm"
)

// NextDeadline advances a deadline by one recurrence unit with calendar-aware
// arithmetic: months clamp to the last valid day of the target month
// (Jan 31 -> Feb 28/29) and Feb 29 clamps to Feb 28 in non-leap target years.
// The clock time is preserved.
func NextDeadline(deadline time.Time, recurrence models.Recurrence) time.Time {
	switch recurrence {
	case models.RecurrenceDaily:
		return deadline.AddDate(0, 0, 1)
	case models.RecurrenceWeekly:
		return deadline.AddDate(0, 0, 7)
	case models.RecurrenceMonthly:
		return addMonthsClamped(deadline, 1)
	case models.RecurrenceYearly:
		return addYearsClamped(deadline, 1)
	default:
		return deadline
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	// Normalize the target month before clamping the day; time.Date would
	// otherwise roll Jan 31 + 1 month over into March.
	firstOfTarget := time.Date(year, month, 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	targetYear, targetMonth, _ := firstOfTarget.Date()

	if last := lastDayOfMonth(targetYear, targetMonth); day > last {
		day = last
	}

	hour, min, sec := t.Clock()
	return time.Date(targetYear, targetMonth, day, hour, min, sec, t.Nanosecond(), t.Location())
}

func addYearsClamped(t time.Time, years int) time.Time {
	year, month, day := t.Date()
	targetYear := year + years

	if last := lastDayOfMonth(targetYear, month); day > last {
		day = last
	}

	hour, min, sec := t.Clock()
	return time.Date(targetYear, month, day, hour, min, sec, t.Nanosecond(), t.Location())
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// spawnSuccessor inserts the next occurrence of a recurring task: same title,
// description, priority, recurrence and list membership, status PENDING, due
// one recurrence unit after the source deadline (or after now when the source
// had none). Callers must only invoke it on a source task that was not yet
// COMPLETED; that guard is what keeps re-completion from duplicating.
func spawnSuccessor(tx *gorm.DB, source *models.Task, now time.Time) error {
	base := now
	if source.Deadline != nil {
		base = *source.Deadline
	}
	next := NextDeadline(base, *source.Recurrence)

	successor := models.Task{
		UserID:      source.UserID,
		ListID:      source.ListID,
		Title:       source.Title,
		Description: source.Description,
		Priority:    source.Priority,
		Deadline:    &next,
		Status:      models.TaskStatusPending,
		Recurrence:  source.Recurrence,
		Position:    source.Position + 1,
	}

	return tx.Create(&successor).Error
}
