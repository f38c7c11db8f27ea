package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"taskbot/backend/internal/models"
	"taskbot/backend/internal/notify"

	"gorm.io/gorm"
)

// PendingInvite describes one outstanding invitation from the invitee's
// point of view.
type PendingInvite struct {
	ListID    uint   `json:"list_id"`
	ListName  string `json:"list_name"`
	OwnerName string `json:"owner_name"`
}

// SharingService drives the invite state machine: no row -> PENDING ->
// ACCEPTED, or back to no row on reject/leave. All notifications are
// best-effort; a failed delivery never rolls back the transition.
type SharingService interface {
	ShareList(ctx context.Context, callerID, listID uint, targetQuery string) (bool, string, error)
	RespondToInvite(ctx context.Context, userID, listID uint, accept bool) (bool, string, error)
	LeaveList(ctx context.Context, userID, listID uint) (bool, string, error)
	GetListMembers(ctx context.Context, listID uint) ([]models.User, error)
	GetPendingInvites(ctx context.Context, userID uint) ([]PendingInvite, error)
}

type SharingServiceImpl struct {
	db   *gorm.DB
	sink notify.Sink
}

func NewSharingService(db *gorm.DB, sink notify.Sink) SharingService {
	return &SharingServiceImpl{db: db, sink: sink}
}

// ShareList invites a user, found by exact username or fuzzy name search, to
// a list the caller owns. Ambiguity is an explicit failure listing up to
// three candidates; an existing PENDING or ACCEPTED grant is a conflict.
func (s *SharingServiceImpl) ShareList(ctx context.Context, callerID, listID uint, targetQuery string) (bool, string, error) {
	db := s.db.WithContext(ctx)

	var list models.TaskList
	if err := db.Preload("Owner").First(&list, listID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, "List not found.", nil
		}
		return false, "", err
	}
	if list.OwnerID != callerID {
		return false, "Only the list owner can share it.", nil
	}

	target, failure, err := s.resolveTarget(db, targetQuery)
	if err != nil {
		return false, "", err
	}
	if target == nil {
		return false, failure, nil
	}

	// The store has no unique index on (user, list), so the guard and the
	// insert must share a transaction to keep the pair unique under
	// concurrent invites.
	alreadyShared := false
	err = db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		err := tx.Model(&models.SharedAccess{}).
			Where("list_id = ? AND user_id = ?", listID, target.ID).
			Count(&existing).Error
		if err != nil {
			return err
		}
		if existing > 0 {
			alreadyShared = true
			return nil
		}
		return tx.Create(&models.SharedAccess{
			UserID: target.ID,
			ListID: listID,
			Status: models.AccessStatusPending,
		}).Error
	})
	if err != nil {
		return false, "", err
	}
	if alreadyShared {
		return false, fmt.Sprintf("The list is already shared with @%s.", target.DisplayName()), nil
	}

	s.notifyOne(ctx, target.ExternalID, fmt.Sprintf(
		"You have been invited by @%s to join the list '%s'.", list.Owner.DisplayName(), list.Title))

	return true, fmt.Sprintf("Invitation sent to @%s.", target.DisplayName()), nil
}

// resolveTarget finds the invite target: exact username match first, then a
// case-insensitive substring search over username and name fields. Several
// substring hits collapse to a single exact first-name match when there is
// one; otherwise the failure message enumerates up to three candidates,
// elided with "..." beyond that.
func (s *SharingServiceImpl) resolveTarget(db *gorm.DB, targetQuery string) (*models.User, string, error) {
	query := strings.ReplaceAll(strings.TrimSpace(targetQuery), "@", "")

	var exact models.User
	err := db.Where("username = ?", query).First(&exact).Error
	if err == nil {
		return &exact, "", nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	pattern := "%" + strings.ToLower(query) + "%"
	var candidates []models.User
	err = db.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(username) LIKE ?",
		pattern, pattern, pattern).
		Order("id").Find(&candidates).Error
	if err != nil {
		return nil, "", err
	}

	switch len(candidates) {
	case 0:
		return nil, fmt.Sprintf("User '%s' not found.", targetQuery), nil
	case 1:
		return &candidates[0], "", nil
	}

	var exactFirstName []models.User
	for _, candidate := range candidates {
		if strings.EqualFold(candidate.FirstName, query) {
			exactFirstName = append(exactFirstName, candidate)
		}
	}
	if len(exactFirstName) == 1 {
		return &exactFirstName[0], "", nil
	}

	names := make([]string, 0, 3)
	for _, candidate := range candidates[:min(3, len(candidates))] {
		username := candidate.Username
		if username == "" {
			username = "-"
		}
		names = append(names, strings.TrimSpace(fmt.Sprintf("%s %s (@%s)",
			candidate.FirstName, candidate.LastName, username)))
	}
	listing := strings.Join(names, ", ")
	if len(candidates) > 3 {
		listing += "..."
	}
	return nil, fmt.Sprintf("Found several users: %s. Please be more specific.", listing), nil
}

// RespondToInvite promotes or removes a PENDING grant. Accepting places the
// list after everything the user already sees (owned and accepted positions
// share the ordinal space); both outcomes notify the other members.
func (s *SharingServiceImpl) RespondToInvite(ctx context.Context, userID, listID uint, accept bool) (bool, string, error) {
	db := s.db.WithContext(ctx)

	var access models.SharedAccess
	err := db.Where("user_id = ? AND list_id = ? AND status = ?",
		userID, listID, models.AccessStatusPending).First(&access).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, "You have no pending invitation for this list.", nil
		}
		return false, "", err
	}

	var list models.TaskList
	if err := db.First(&list, listID).Error; err != nil {
		return false, "", err
	}
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return false, "", err
	}

	if accept {
		err := db.Transaction(func(tx *gorm.DB) error {
			position, err := nextSharedPosition(tx, userID)
			if err != nil {
				return err
			}
			return tx.Model(&models.SharedAccess{}).Where("id = ?", access.ID).
				Updates(map[string]interface{}{
					"status":   models.AccessStatusAccepted,
					"position": position,
				}).Error
		})
		if err != nil {
			return false, "", err
		}

		s.notifyMembers(ctx, listID, userID, fmt.Sprintf(
			"@%s joined the list '%s'.", user.DisplayName(), list.Title))
		return true, fmt.Sprintf("You joined the list '%s'.", list.Title), nil
	}

	if err := db.Delete(&models.SharedAccess{}, access.ID).Error; err != nil {
		return false, "", err
	}

	s.notifyMembers(ctx, listID, userID, fmt.Sprintf(
		"@%s declined the invitation to '%s'.", user.DisplayName(), list.Title))
	return true, fmt.Sprintf("You declined the invitation to '%s'.", list.Title), nil
}

// LeaveList removes the caller's grant. The owner can never leave their own
// list; deleting it is the only way out for them.
func (s *SharingServiceImpl) LeaveList(ctx context.Context, userID, listID uint) (bool, string, error) {
	db := s.db.WithContext(ctx)

	var list models.TaskList
	if err := db.First(&list, listID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, "List not found.", nil
		}
		return false, "", err
	}
	if list.OwnerID == userID {
		return false, "You own this list; delete it instead of leaving.", nil
	}

	var access models.SharedAccess
	err := db.Where("user_id = ? AND list_id = ?", userID, listID).First(&access).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, "You are not a member of this list.", nil
		}
		return false, "", err
	}

	if err := db.Delete(&models.SharedAccess{}, access.ID).Error; err != nil {
		return false, "", err
	}

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return false, "", err
	}

	s.notifyMembers(ctx, listID, userID, fmt.Sprintf(
		"@%s left the list '%s'.", user.DisplayName(), list.Title))
	return true, fmt.Sprintf("You left the list '%s'.", list.Title), nil
}

// GetListMembers returns the owner first, then every ACCEPTED member.
func (s *SharingServiceImpl) GetListMembers(ctx context.Context, listID uint) ([]models.User, error) {
	db := s.db.WithContext(ctx)

	var list models.TaskList
	if err := db.Preload("Owner").First(&list, listID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var members []models.User
	err := db.Joins("JOIN shared_accesses ON shared_accesses.user_id = users.id").
		Where("shared_accesses.list_id = ? AND shared_accesses.status = ?",
			listID, models.AccessStatusAccepted).
		Order("shared_accesses.id").Find(&members).Error
	if err != nil {
		return nil, err
	}

	return append([]models.User{list.Owner}, members...), nil
}

func (s *SharingServiceImpl) GetPendingInvites(ctx context.Context, userID uint) ([]PendingInvite, error) {
	var accesses []models.SharedAccess
	err := s.db.WithContext(ctx).Preload("List.Owner").
		Where("user_id = ? AND status = ?", userID, models.AccessStatusPending).
		Order("id").Find(&accesses).Error
	if err != nil {
		return nil, err
	}

	invites := make([]PendingInvite, 0, len(accesses))
	for _, access := range accesses {
		invites = append(invites, PendingInvite{
			ListID:    access.List.ID,
			ListName:  access.List.Title,
			OwnerName: access.List.Owner.DisplayName(),
		})
	}
	return invites, nil
}

// nextSharedPosition places a newly accepted list after everything the user
// already sees: owned list positions and accepted membership positions form
// one ordinal space.
func nextSharedPosition(tx *gorm.DB, userID uint) (int, error) {
	maxOwned := -1
	err := tx.Model(&models.TaskList{}).
		Where("owner_id = ?", userID).
		Select("COALESCE(MAX(position), -1)").Scan(&maxOwned).Error
	if err != nil {
		return 0, err
	}

	maxAccepted := -1
	err = tx.Model(&models.SharedAccess{}).
		Where("user_id = ? AND status = ?", userID, models.AccessStatusAccepted).
		Select("COALESCE(MAX(position), -1)").Scan(&maxAccepted).Error
	if err != nil {
		return 0, err
	}

	if maxAccepted > maxOwned {
		return maxAccepted + 1, nil
	}
	return maxOwned + 1, nil
}

// notifyMembers tells every current member except the actor. Failures are
// logged and swallowed; state already changed and must stay changed.
func (s *SharingServiceImpl) notifyMembers(ctx context.Context, listID, actorID uint, message string) {
	members, err := s.GetListMembers(ctx, listID)
	if err != nil {
		log.Printf("Failed to enumerate members of list %d for notification: %v", listID, err)
		return
	}
	for _, member := range members {
		if member.ID == actorID {
			continue
		}
		s.notifyOne(ctx, member.ExternalID, message)
	}
}

func (s *SharingServiceImpl) notifyOne(ctx context.Context, externalID int64, message string) {
	if err := s.sink.Notify(ctx, externalID, message); err != nil {
		log.Printf("Failed to notify user %d: %v", externalID, err)
	}
}
