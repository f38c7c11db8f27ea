package services

import (
	"context"
	"errors"
	"sort"

	"taskbot/backend/internal/models"

	"gorm.io/gorm"
)

// ListService owns list structure. Every structural mutation (rename,
// recolor, delete, reorder) is owner-only; membership alone never grants it.
type ListService interface {
	CreateList(ctx context.Context, userID uint, title string) (*models.TaskList, error)
	FindListByName(ctx context.Context, userID uint, query string) (*models.TaskList, error)
	GetLists(ctx context.Context, userID uint) ([]models.TaskList, error)
	GetListByID(ctx context.Context, listID uint) (*models.TaskList, error)
	DeleteList(ctx context.Context, userID, listID uint) (bool, error)
	DeleteAllLists(ctx context.Context, userID uint) (int64, error)
	EditList(ctx context.Context, userID, listID uint, title string) (bool, error)
	EditListColor(ctx context.Context, userID, listID uint, color string) (bool, error)
	ReorderLists(ctx context.Context, userID uint, orderedListIDs []uint) (bool, error)
	IsUserInList(ctx context.Context, userID, listID uint) (bool, error)
}

type ListServiceImpl struct {
	db *gorm.DB
}

func NewListService(db *gorm.DB) ListService {
	return &ListServiceImpl{db: db}
}

// CreateList appends the new list after the user's currently highest-placed
// owned list.
func (s *ListServiceImpl) CreateList(ctx context.Context, userID uint, title string) (*models.TaskList, error) {
	var list *models.TaskList

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		position := 0
		err := tx.Model(&models.TaskList{}).
			Where("owner_id = ?", userID).
			Select("COALESCE(MAX(position) + 1, 0)").
			Scan(&position).Error
		if err != nil {
			return err
		}

		list = &models.TaskList{
			OwnerID:  userID,
			Title:    title,
			Position: position,
		}
		return tx.Create(list).Error
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (s *ListServiceImpl) FindListByName(ctx context.Context, userID uint, query string) (*models.TaskList, error) {
	return findListByName(s.db.WithContext(ctx), userID, query)
}

// GetLists enumerates the lists the user can see in the user's own order:
// owned lists by their position, shared lists by the caller's membership
// position. Ties break by creation time.
func (s *ListServiceImpl) GetLists(ctx context.Context, userID uint) ([]models.TaskList, error) {
	db := s.db.WithContext(ctx)

	lists, err := visibleLists(db, userID)
	if err != nil {
		return nil, err
	}

	positions := make(map[uint]int, len(lists))
	for _, list := range lists {
		positions[list.ID] = list.Position
	}
	var accesses []models.SharedAccess
	err = db.Where("user_id = ? AND status = ?", userID, models.AccessStatusAccepted).
		Find(&accesses).Error
	if err != nil {
		return nil, err
	}
	for _, access := range accesses {
		positions[access.ListID] = access.Position
	}

	sort.SliceStable(lists, func(i, j int) bool {
		pi, pj := positions[lists[i].ID], positions[lists[j].ID]
		if pi != pj {
			return pi < pj
		}
		return lists[i].CreatedAt.Before(lists[j].CreatedAt)
	})
	return lists, nil
}

func (s *ListServiceImpl) GetListByID(ctx context.Context, listID uint) (*models.TaskList, error) {
	var list models.TaskList
	err := s.db.WithContext(ctx).Preload("Owner").First(&list, listID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &list, nil
}

// DeleteList removes an owned list with an explicit transactional cascade:
// tasks in the list, member grants, then the list row itself. Non-owners get
// a plain false, indistinguishable from a missing list.
func (s *ListServiceImpl) DeleteList(ctx context.Context, userID, listID uint) (bool, error) {
	deleted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var list models.TaskList
		if err := tx.First(&list, listID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if list.OwnerID != userID {
			return nil
		}

		if err := tx.Where("list_id = ?", listID).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("list_id = ?", listID).Delete(&models.SharedAccess{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.TaskList{}, listID).Error; err != nil {
			return err
		}

		deleted = true
		return nil
	})
	return deleted, err
}

// DeleteAllLists cascades away every list the user owns and reports the
// count. Shared lists owned by others are untouched.
func (s *ListServiceImpl) DeleteAllLists(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ownedIDs []uint
		if err := tx.Model(&models.TaskList{}).Where("owner_id = ?", userID).
			Pluck("id", &ownedIDs).Error; err != nil {
			return err
		}
		if len(ownedIDs) == 0 {
			return nil
		}

		if err := tx.Where("list_id IN ?", ownedIDs).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("list_id IN ?", ownedIDs).Delete(&models.SharedAccess{}).Error; err != nil {
			return err
		}

		result := tx.Where("owner_id = ?", userID).Delete(&models.TaskList{})
		if result.Error != nil {
			return result.Error
		}
		count = result.RowsAffected
		return nil
	})
	return count, err
}

func (s *ListServiceImpl) EditList(ctx context.Context, userID, listID uint, title string) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.TaskList{}).
		Where("id = ? AND owner_id = ?", listID, userID).
		Update("title", title)
	return result.RowsAffected > 0, result.Error
}

func (s *ListServiceImpl) EditListColor(ctx context.Context, userID, listID uint, color string) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.TaskList{}).
		Where("id = ? AND owner_id = ?", listID, userID).
		Update("color", color)
	return result.RowsAffected > 0, result.Error
}

// ReorderLists persists an explicit ordering: index in the slice becomes the
// position. Each id is tried as an owned list first; when that touches no
// row, it is the caller's membership position on a shared list instead. The
// whole rewrite is one transaction so a crash cannot leave a half-applied
// order.
func (s *ListServiceImpl) ReorderLists(ctx context.Context, userID uint, orderedListIDs []uint) (bool, error) {
	if len(orderedListIDs) == 0 {
		return false, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for index, listID := range orderedListIDs {
			result := tx.Model(&models.TaskList{}).
				Where("id = ? AND owner_id = ?", listID, userID).
				Update("position", index)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				if err := tx.Model(&models.SharedAccess{}).
					Where("list_id = ? AND user_id = ?", listID, userID).
					Update("position", index).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	return err == nil, err
}

func (s *ListServiceImpl) IsUserInList(ctx context.Context, userID, listID uint) (bool, error) {
	return userInList(s.db.WithContext(ctx), userID, listID)
}
