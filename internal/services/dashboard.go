package services

import (
	"context"
	"sort"
	"time"

	"taskbot/backend/internal/models"

	"gorm.io/gorm"
)

// Dashboard item kinds. The dashboard interleaves loose tasks and lists in
// one user-controlled ordering.
const (
	ItemKindTask = "task"
	ItemKindList = "list"
)

// DashboardItem is one entry of the mixed top-level view. Exactly one of
// Task and List is set, matching Kind.
type DashboardItem struct {
	Kind string           `json:"kind"`
	Task *models.Task     `json:"task,omitempty"`
	List *models.TaskList `json:"list,omitempty"`
}

// ItemRef identifies a dashboard item in a reorder request.
type ItemRef struct {
	Kind string `json:"kind"`
	ID   uint   `json:"id"`
}

// DashboardService assembles the mixed top-level view: the user's tasks that
// live outside any list, interleaved with every list they can see, ordered by
// the shared position ordinal.
type DashboardService interface {
	GetDashboardItems(ctx context.Context, userID uint) ([]DashboardItem, error)
	ReorderItems(ctx context.Context, userID uint, refs []ItemRef) (bool, error)
}

type DashboardServiceImpl struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) DashboardService {
	return &DashboardServiceImpl{db: db}
}

// GetDashboardItems merges list-less non-cancelled tasks with visible lists
// and sorts by (position, creation time). Positions of tasks and lists share
// one ordinal space, so ties across kinds resolve by age.
func (s *DashboardServiceImpl) GetDashboardItems(ctx context.Context, userID uint) ([]DashboardItem, error) {
	db := s.db.WithContext(ctx)

	var tasks []models.Task
	err := db.Where("user_id = ? AND list_id IS NULL AND status <> ?",
		userID, models.TaskStatusCancelled).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	lists, err := visibleLists(db, userID)
	if err != nil {
		return nil, err
	}

	// Shared lists carry the viewer's membership position, not the owner's.
	listPositions := make(map[uint]int, len(lists))
	for _, list := range lists {
		listPositions[list.ID] = list.Position
	}
	var accesses []models.SharedAccess
	err = db.Where("user_id = ? AND status = ?", userID, models.AccessStatusAccepted).
		Find(&accesses).Error
	if err != nil {
		return nil, err
	}
	for _, access := range accesses {
		listPositions[access.ListID] = access.Position
	}

	type keyed struct {
		item      DashboardItem
		position  int
		createdAt time.Time
	}
	entries := make([]keyed, 0, len(tasks)+len(lists))
	for i := range tasks {
		entries = append(entries, keyed{
			item:      DashboardItem{Kind: ItemKindTask, Task: &tasks[i]},
			position:  tasks[i].Position,
			createdAt: tasks[i].CreatedAt,
		})
	}
	for i := range lists {
		entries = append(entries, keyed{
			item:      DashboardItem{Kind: ItemKindList, List: &lists[i]},
			position:  listPositions[lists[i].ID],
			createdAt: lists[i].CreatedAt,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].position != entries[j].position {
			return entries[i].position < entries[j].position
		}
		return entries[i].createdAt.Before(entries[j].createdAt)
	})

	items := make([]DashboardItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, entry.item)
	}
	return items, nil
}

// ReorderItems persists a mixed ordering in one transaction: the slice index
// becomes the position. Task refs update the task row (only the caller's own
// list-less tasks), list refs update the owned list row or, failing that, the
// caller's membership position on a shared list.
func (s *DashboardServiceImpl) ReorderItems(ctx context.Context, userID uint, refs []ItemRef) (bool, error) {
	if len(refs) == 0 {
		return false, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for index, ref := range refs {
			switch ref.Kind {
			case ItemKindTask:
				if err := tx.Model(&models.Task{}).
					Where("id = ? AND user_id = ? AND list_id IS NULL", ref.ID, userID).
					Update("position", index).Error; err != nil {
					return err
				}
			case ItemKindList:
				result := tx.Model(&models.TaskList{}).
					Where("id = ? AND owner_id = ?", ref.ID, userID).
					Update("position", index)
				if result.Error != nil {
					return result.Error
				}
				if result.RowsAffected == 0 {
					if err := tx.Model(&models.SharedAccess{}).
						Where("list_id = ? AND user_id = ?", ref.ID, userID).
						Update("position", index).Error; err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
	return err == nil, err
}
