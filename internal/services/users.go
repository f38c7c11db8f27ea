package services

import (
	"context"
	"errors"
	"log"

	"taskbot/backend/internal/models"

	"gorm.io/gorm"
)

// UserDirectory owns the user lifecycle: create-or-update on first sight,
// status transitions via explicit admin action, notification preferences.
// Every lookup-style mutation fails silently (returns false) when the user
// does not exist; only store failures surface as errors.
type UserDirectory interface {
	GetOrCreateUser(ctx context.Context, externalID int64, username, firstName, lastName string) (*models.User, error)
	GetByExternalID(ctx context.Context, externalID int64) (*models.User, error)
	UpdateStatus(ctx context.Context, externalID int64, status models.UserStatus) (bool, error)
	ListPending(ctx context.Context) ([]models.User, error)
	UpdateNotificationTime(ctx context.Context, externalID int64, hhmm string) (bool, error)
	UpdateReminderLead(ctx context.Context, externalID int64, minutes int) (bool, error)
	DeleteUser(ctx context.Context, externalID int64) (bool, error)
}

type UserDirectoryImpl struct {
	db        *gorm.DB
	whitelist map[int64]bool
}

func NewUserDirectory(db *gorm.DB, whitelistedIDs []int64) UserDirectory {
	whitelist := make(map[int64]bool, len(whitelistedIDs))
	for _, id := range whitelistedIDs {
		whitelist[id] = true
	}
	return &UserDirectoryImpl{db: db, whitelist: whitelist}
}

// GetOrCreateUser is an idempotent upsert keyed by the external chat
// identity. New users start PENDING unless the configured whitelist names
// them; known users get only their changed display fields persisted. The
// configured whitelist also re-promotes an existing user on sight, so a
// config change wins over stale database state.
func (s *UserDirectoryImpl) GetOrCreateUser(ctx context.Context, externalID int64, username, firstName, lastName string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			ExternalID: externalID,
			Username:   username,
			FirstName:  firstName,
			LastName:   lastName,
			Status:     models.UserStatusPending,
		}
		if s.whitelist[externalID] {
			user.Status = models.UserStatusWhitelisted
		}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, err
		}
		log.Printf("User created: external_id=%d (@%s)", externalID, username)
		return &user, nil
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if username != "" && user.Username != username {
		updates["username"] = username
		user.Username = username
	}
	if firstName != "" && user.FirstName != firstName {
		updates["first_name"] = firstName
		user.FirstName = firstName
	}
	if lastName != "" && user.LastName != lastName {
		updates["last_name"] = lastName
		user.LastName = lastName
	}
	if s.whitelist[externalID] && user.Status != models.UserStatusWhitelisted {
		updates["status"] = models.UserStatusWhitelisted
		user.Status = models.UserStatusWhitelisted
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.User{}).
			Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	return &user, nil
}

func (s *UserDirectoryImpl) GetByExternalID(ctx context.Context, externalID int64) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserDirectoryImpl) UpdateStatus(ctx context.Context, externalID int64, status models.UserStatus) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("external_id = ?", externalID).
		Update("status", status)
	return result.RowsAffected > 0, result.Error
}

func (s *UserDirectoryImpl) ListPending(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("status = ?", models.UserStatusPending).
		Order("id").Find(&users).Error
	return users, err
}

func (s *UserDirectoryImpl) UpdateNotificationTime(ctx context.Context, externalID int64, hhmm string) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("external_id = ?", externalID).
		Update("notification_time", hhmm)
	return result.RowsAffected > 0, result.Error
}

// UpdateReminderLead stores the lead in minutes. Leads beyond 24 hours are
// rejected because the reminder poll only looks that far ahead; a stored
// larger value would never fire.
func (s *UserDirectoryImpl) UpdateReminderLead(ctx context.Context, externalID int64, minutes int) (bool, error) {
	if minutes < 1 || minutes > 1440 {
		return false, nil
	}
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("external_id = ?", externalID).
		Update("reminder_lead_minutes", minutes)
	return result.RowsAffected > 0, result.Error
}

// DeleteUser is the admin purge: it removes the user together with their
// owned tasks, owned lists (cascading member grants and list tasks) and their
// own membership rows, all in one transaction.
func (s *UserDirectoryImpl) DeleteUser(ctx context.Context, externalID int64) (bool, error) {
	deleted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("external_id = ?", externalID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		var ownedListIDs []uint
		if err := tx.Model(&models.TaskList{}).Where("owner_id = ?", user.ID).
			Pluck("id", &ownedListIDs).Error; err != nil {
			return err
		}

		if len(ownedListIDs) > 0 {
			if err := tx.Where("list_id IN ?", ownedListIDs).Delete(&models.Task{}).Error; err != nil {
				return err
			}
			if err := tx.Where("list_id IN ?", ownedListIDs).Delete(&models.SharedAccess{}).Error; err != nil {
				return err
			}
			if err := tx.Where("owner_id = ?", user.ID).Delete(&models.TaskList{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.SharedAccess{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.User{}, user.ID).Error; err != nil {
			return err
		}

		deleted = true
		return nil
	})
	return deleted, err
}
