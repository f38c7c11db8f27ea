package models

import (
	"strings"
	"time"
)

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "PENDING"
	TaskStatusCompleted TaskStatus = "COMPLETED"
	TaskStatusCancelled TaskStatus = "CANCELLED"
)

const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

type Recurrence string

const (
	RecurrenceDaily   Recurrence = "DAILY"
	RecurrenceWeekly  Recurrence = "WEEKLY"
	RecurrenceMonthly Recurrence = "MONTHLY"
	RecurrenceYearly  Recurrence = "YEARLY"
)

type Task struct {
	ID     uint  `json:"id" gorm:"primaryKey"`
	UserID uint  `json:"user_id" gorm:"index;not null"`
	ListID *uint `json:"list_id" gorm:"index"`

	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description"`
	Priority    string `json:"priority" gorm:"not null;default:'MEDIUM'"`

	Deadline *time.Time `json:"deadline"`
	Status   TaskStatus `json:"status" gorm:"not null;default:'PENDING'"`

	ReminderSent bool        `json:"reminder_sent" gorm:"not null;default:false"`
	Recurrence   *Recurrence `json:"recurrence"`

	// Position orders the task inside the owner's merged dashboard; it is only
	// meaningful for list-less tasks.
	Position int `json:"position" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User      `json:"-" gorm:"foreignKey:UserID"`
	List *TaskList `json:"-" gorm:"foreignKey:ListID"`
}

// PriorityRank maps a priority to its sort rank, urgent first. Unknown values
// sort after every known one.
func PriorityRank(priority string) int {
	switch priority {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 99
	}
}

// NormalizePriority upper-cases the input and falls back to MEDIUM for
// anything that is not a known priority. Malformed input is never an error.
func NormalizePriority(priority string) string {
	switch normalized := strings.ToUpper(priority); normalized {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return normalized
	default:
		return PriorityMedium
	}
}

// ParseTaskStatus maps free text onto a task status, case-insensitively.
func ParseTaskStatus(value string) (TaskStatus, bool) {
	switch status := TaskStatus(strings.ToUpper(value)); status {
	case TaskStatusPending, TaskStatusCompleted, TaskStatusCancelled:
		return status, true
	default:
		return "", false
	}
}

// ParseRecurrence returns the recurrence class for the input, or nil when the
// input names no valid class.
func ParseRecurrence(value string) *Recurrence {
	switch r := Recurrence(strings.ToUpper(value)); r {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return &r
	default:
		return nil
	}
}
