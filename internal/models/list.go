package models

import (
	"time"
)

type AccessStatus string

const (
	AccessStatusPending  AccessStatus = "PENDING"
	AccessStatusAccepted AccessStatus = "ACCEPTED"
)

type TaskList struct {
	ID      uint `json:"id" gorm:"primaryKey"`
	OwnerID uint `json:"owner_id" gorm:"index;not null"`

	Title string `json:"title" gorm:"not null"`
	Color string `json:"color" gorm:"not null;default:'#6C7B7F'"`

	// Position orders the list inside the owner's merged dashboard. Accepted
	// members keep their own position on the SharedAccess row instead.
	Position int `json:"position" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Owner User   `json:"-" gorm:"foreignKey:OwnerID"`
	Tasks []Task `json:"-" gorm:"foreignKey:ListID"`
}

// SharedAccess links a user to a list they were invited to. One row per
// (user, list) pair; the pair check happens before insert, not in the store.
// The row is PENDING from invite until the target accepts (promoted to
// ACCEPTED) or rejects/leaves (deleted).
type SharedAccess struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	UserID uint `json:"user_id" gorm:"index;not null"`
	ListID uint `json:"list_id" gorm:"index;not null"`

	Status   AccessStatus `json:"status" gorm:"not null;default:'PENDING'"`
	Position int          `json:"position" gorm:"not null;default:0"`

	JoinedAt time.Time `json:"joined_at" gorm:"autoCreateTime"`

	User User     `json:"-" gorm:"foreignKey:UserID"`
	List TaskList `json:"-" gorm:"foreignKey:ListID"`
}
