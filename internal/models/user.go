package models

import (
	"strings"
	"time"
)

type UserStatus string

const (
	UserStatusPending     UserStatus = "PENDING"
	UserStatusWhitelisted UserStatus = "WHITELISTED"
	UserStatusBlacklisted UserStatus = "BLACKLISTED"
)

// User is a chat-platform identity seen by the bot or the web app. Rows are
// created on first contact and only removed by an explicit admin purge.
type User struct {
	ID         uint  `json:"id" gorm:"primaryKey"`
	ExternalID int64 `json:"external_id" gorm:"uniqueIndex;not null"`

	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	Status UserStatus `json:"status" gorm:"not null;default:'PENDING'"`

	// NotificationTime is the daily summary time in "HH:MM" local form.
	NotificationTime    string `json:"notification_time" gorm:"not null;default:'09:00'"`
	ReminderLeadMinutes int    `json:"reminder_lead_minutes" gorm:"not null;default:60"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName is how the user is referred to in notifications: username when
// set, first name otherwise.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return "Unknown"
}

// ParseUserStatus maps free text onto a user status, case-insensitively.
func ParseUserStatus(value string) (UserStatus, bool) {
	switch status := UserStatus(strings.ToUpper(value)); status {
	case UserStatusPending, UserStatusWhitelisted, UserStatusBlacklisted:
		return status, true
	default:
		return "", false
	}
}

func (u *User) IsWhitelisted() bool {
	return u.Status == UserStatusWhitelisted
}

func (u *User) IsBlacklisted() bool {
	return u.Status == UserStatusBlacklisted
}
