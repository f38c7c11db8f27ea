package services

import (
	"errors"

	"taskbot/backend/internal/models"

	"gorm.io/gorm"
)

// canAccessTask is the single write-access predicate for tasks: the owner may
// always act; if the task sits in a list, so may the list owner and every
// ACCEPTED member. A PENDING invitee has no access.
//
// List-level mutations (rename, recolor, delete, share) do NOT use this
// predicate; they stay owner-only.
func canAccessTask(tx *gorm.DB, userID uint, task *models.Task) (bool, error) {
	if task.UserID == userID {
		return true, nil
	}
	if task.ListID == nil {
		return false, nil
	}
	return userInList(tx, userID, *task.ListID)
}

// userInList reports whether the user is the list owner or an ACCEPTED
// member. A missing list is plain false, never an error.
func userInList(tx *gorm.DB, userID, listID uint) (bool, error) {
	var list models.TaskList
	err := tx.Select("id", "owner_id").First(&list, listID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	if list.OwnerID == userID {
		return true, nil
	}

	var count int64
	err = tx.Model(&models.SharedAccess{}).
		Where("user_id = ? AND list_id = ? AND status = ?", userID, listID, models.AccessStatusAccepted).
		Count(&count).Error

	return count > 0, err
}
