package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"taskbot/backend/internal/models"

	"gorm.io/gorm"
)

// ErrDuplicateTitle rejects a new task whose title collides, case
// insensitively, with a PENDING task of the same owner. Different owners or a
// COMPLETED task never collide.
var ErrDuplicateTitle = errors.New("a pending task with this title already exists")

// NewTask carries the caller-supplied fields for task creation. ListName is
// free text resolved through the list resolver; an unresolved name is
// silently ignored and the task created list-less.
type NewTask struct {
	Title       string
	Description string
	Priority    string
	Deadline    *time.Time
	Recurrence  string
	ListName    string
}

// TaskUpdate is a partial update: a nil pointer means "leave untouched", a
// set pointer overwrites, and the Clear flags express an explicit null (for
// example removing a deadline) that a pointer alone cannot distinguish from
// absence.
type TaskUpdate struct {
	Title           *string
	Description     *string
	Priority        *string
	Deadline        *time.Time
	ClearDeadline   bool
	Status          *models.TaskStatus
	Recurrence      *models.Recurrence
	ClearRecurrence bool
}

type TaskService interface {
	AddTask(ctx context.Context, userID uint, input NewTask) (*models.Task, error)
	GetPendingTasks(ctx context.Context, userID uint, filter models.TimeFilter, priorityFilter string) ([]models.Task, error)
	GetUserTasks(ctx context.Context, userID uint) ([]models.Task, error)
	GetTaskByID(ctx context.Context, taskID uint) (*models.Task, error)
	UpdateTaskStatus(ctx context.Context, callerID, taskID uint, status models.TaskStatus) (bool, error)
	EditTask(ctx context.Context, callerID, taskID uint, update TaskUpdate) (bool, error)
	DeleteTask(ctx context.Context, callerID, taskID uint) (bool, error)
	DeleteAllPendingTasks(ctx context.Context, userID uint, filter models.TimeFilter) (int64, error)
	FindTasksByKeyword(ctx context.Context, userID uint, keyword string, listID *uint) ([]models.Task, error)
	GetTasksInList(ctx context.Context, callerID, listID uint) ([]models.Task, error)
	GetDatedItems(ctx context.Context, userID uint) ([]models.Task, error)

	// Reminder primitives polled by the external scheduler.
	DueReminders(ctx context.Context, now time.Time) ([]models.Task, error)
	MarkReminderSent(ctx context.Context, taskID uint) error
}

type TaskServiceImpl struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTaskService(db *gorm.DB) TaskService {
	return &TaskServiceImpl{db: db, now: time.Now}
}

// AddTask creates a PENDING task for the user. The duplicate guard and the
// position assignment run inside one transaction so two concurrent adds
// cannot race past each other. List-less tasks take the next position after
// the user's current maximum; tasks placed into a list take position 0.
func (s *TaskServiceImpl) AddTask(ctx context.Context, userID uint, input NewTask) (*models.Task, error) {
	var task *models.Task

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var listID *uint
		if input.ListName != "" {
			found, err := findListByName(tx, userID, input.ListName)
			if err != nil {
				return err
			}
			if found != nil {
				listID = &found.ID
			}
		}

		var count int64
		err := tx.Model(&models.Task{}).
			Where("user_id = ? AND status = ? AND LOWER(title) = ?",
				userID, models.TaskStatusPending, strings.ToLower(input.Title)).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateTitle
		}

		position := 0
		if listID == nil {
			err := tx.Model(&models.Task{}).
				Where("user_id = ? AND list_id IS NULL", userID).
				Select("COALESCE(MAX(position) + 1, 0)").
				Scan(&position).Error
			if err != nil {
				return err
			}
		}

		task = &models.Task{
			UserID:      userID,
			ListID:      listID,
			Title:       input.Title,
			Description: input.Description,
			Priority:    models.NormalizePriority(input.Priority),
			Deadline:    input.Deadline,
			Status:      models.TaskStatusPending,
			Recurrence:  models.ParseRecurrence(input.Recurrence),
			Position:    position,
		}
		return tx.Create(task).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Task created: id=%d user=%d title=%q", task.ID, userID, task.Title)
	return task, nil
}

// GetPendingTasks returns the user's list-less PENDING tasks inside the
// deadline window, soonest deadline first (no deadline sorts last), then by
// priority rank.
func (s *TaskServiceImpl) GetPendingTasks(ctx context.Context, userID uint, filter models.TimeFilter, priorityFilter string) ([]models.Task, error) {
	query := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND list_id IS NULL", userID, models.TaskStatusPending)

	if cutoff, bounded := filter.Cutoff(s.now()); bounded {
		query = query.Where("deadline IS NOT NULL AND deadline <= ?", cutoff)
	}
	if priorityFilter != "" {
		query = query.Where("priority = ?", strings.ToUpper(priorityFilter))
	}

	var tasks []models.Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, err
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		if c := compareDeadlines(tasks[i].Deadline, tasks[j].Deadline); c != 0 {
			return c < 0
		}
		return models.PriorityRank(tasks[i].Priority) < models.PriorityRank(tasks[j].Priority)
	})

	return tasks, nil
}

// GetUserTasks returns all list-less non-CANCELLED tasks: PENDING before
// COMPLETED, then by deadline and priority.
func (s *TaskServiceImpl) GetUserTasks(ctx context.Context, userID uint) ([]models.Task, error) {
	var tasks []models.Task
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND list_id IS NULL AND status <> ?", userID, models.TaskStatusCancelled).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		si, sj := statusRank(tasks[i].Status), statusRank(tasks[j].Status)
		if si != sj {
			return si < sj
		}
		if c := compareDeadlines(tasks[i].Deadline, tasks[j].Deadline); c != 0 {
			return c < 0
		}
		return models.PriorityRank(tasks[i].Priority) < models.PriorityRank(tasks[j].Priority)
	})

	return tasks, nil
}

func (s *TaskServiceImpl) GetTaskByID(ctx context.Context, taskID uint) (*models.Task, error) {
	var task models.Task
	err := s.db.WithContext(ctx).Preload("List").First(&task, taskID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

// UpdateTaskStatus sets the task status for any caller the access predicate
// admits. Completing a recurring task that was not COMPLETED yet spawns its
// successor; the spawn is best-effort and its failure never aborts the status
// update. The guard sits on the source status, so re-completing an already
// COMPLETED task spawns nothing.
func (s *TaskServiceImpl) UpdateTaskStatus(ctx context.Context, callerID, taskID uint, status models.TaskStatus) (bool, error) {
	updated := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.First(&task, taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		allowed, err := canAccessTask(tx, callerID, &task)
		if err != nil {
			return err
		}
		if !allowed {
			return nil
		}

		shouldSpawn := status == models.TaskStatusCompleted &&
			task.Recurrence != nil &&
			task.Status != models.TaskStatusCompleted

		if err := tx.Model(&models.Task{}).Where("id = ?", taskID).
			Update("status", status).Error; err != nil {
			return err
		}
		updated = true

		if shouldSpawn {
			if err := spawnSuccessor(tx, &task, s.now()); err != nil {
				log.Printf("Failed to spawn successor for recurring task %d: %v", taskID, err)
			}
		}
		return nil
	})

	return updated, err
}

// EditTask applies only the fields the update explicitly carries. Absent
// task or denied access both come back as a plain false.
func (s *TaskServiceImpl) EditTask(ctx context.Context, callerID, taskID uint, update TaskUpdate) (bool, error) {
	updates := map[string]interface{}{}
	if update.Title != nil {
		updates["title"] = *update.Title
	}
	if update.Description != nil {
		updates["description"] = *update.Description
	}
	if update.Priority != nil {
		updates["priority"] = models.NormalizePriority(*update.Priority)
	}
	if update.Deadline != nil {
		updates["deadline"] = *update.Deadline
	} else if update.ClearDeadline {
		updates["deadline"] = nil
	}
	if update.Status != nil {
		updates["status"] = *update.Status
	}
	if update.Recurrence != nil {
		updates["recurrence"] = *update.Recurrence
	} else if update.ClearRecurrence {
		updates["recurrence"] = nil
	}

	if len(updates) == 0 {
		return false, nil
	}

	edited := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.First(&task, taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		allowed, err := canAccessTask(tx, callerID, &task)
		if err != nil {
			return err
		}
		if !allowed {
			return nil
		}

		if err := tx.Model(&models.Task{}).Where("id = ?", taskID).
			Updates(updates).Error; err != nil {
			return err
		}
		edited = true
		return nil
	})

	return edited, err
}

func (s *TaskServiceImpl) DeleteTask(ctx context.Context, callerID, taskID uint) (bool, error) {
	deleted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.First(&task, taskID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		allowed, err := canAccessTask(tx, callerID, &task)
		if err != nil {
			return err
		}
		if !allowed {
			return nil
		}

		if err := tx.Delete(&models.Task{}, taskID).Error; err != nil {
			return err
		}
		deleted = true
		return nil
	})
	return deleted, err
}

// DeleteAllPendingTasks bulk-deletes the owner's list-less PENDING tasks
// inside the window and reports how many went away.
func (s *TaskServiceImpl) DeleteAllPendingTasks(ctx context.Context, userID uint, filter models.TimeFilter) (int64, error) {
	query := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND list_id IS NULL", userID, models.TaskStatusPending)

	if cutoff, bounded := filter.Cutoff(s.now()); bounded {
		query = query.Where("deadline IS NOT NULL AND deadline <= ?", cutoff)
	}

	result := query.Delete(&models.Task{})
	return result.RowsAffected, result.Error
}

// FindTasksByKeyword searches PENDING tasks whose title or description
// contains the keyword, case-insensitively. With a list id the caller must
// be able to see the list (owner or accepted member) or the result is empty;
// without one the search covers the caller's own list-less tasks.
func (s *TaskServiceImpl) FindTasksByKeyword(ctx context.Context, userID uint, keyword string, listID *uint) ([]models.Task, error) {
	db := s.db.WithContext(ctx)
	pattern := "%" + strings.ToLower(keyword) + "%"

	query := db.Where("status = ?", models.TaskStatusPending).
		Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)

	if listID != nil {
		visible, err := userInList(db, userID, *listID)
		if err != nil {
			return nil, err
		}
		if !visible {
			return []models.Task{}, nil
		}
		query = query.Where("list_id = ?", *listID)
	} else {
		query = query.Where("user_id = ? AND list_id IS NULL", userID)
	}

	var tasks []models.Task
	err := query.Order("id").Find(&tasks).Error
	return tasks, err
}

// GetTasksInList returns a visible list's tasks, pending before completed,
// oldest first within a status. Callers without access get an empty result.
func (s *TaskServiceImpl) GetTasksInList(ctx context.Context, callerID, listID uint) ([]models.Task, error) {
	db := s.db.WithContext(ctx)

	visible, err := userInList(db, callerID, listID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return []models.Task{}, nil
	}

	var tasks []models.Task
	err = db.Where("list_id = ?", listID).
		Order("status").Order("created_at").Order("id").
		Find(&tasks).Error
	return tasks, err
}

// GetDatedItems returns every non-CANCELLED task with a deadline the user
// can see: their own tasks plus tasks in lists they own or are accepted
// members of, soonest deadline first.
func (s *TaskServiceImpl) GetDatedItems(ctx context.Context, userID uint) ([]models.Task, error) {
	db := s.db.WithContext(ctx)

	lists, err := visibleLists(db, userID)
	if err != nil {
		return nil, err
	}
	listIDs := make([]uint, 0, len(lists))
	for _, list := range lists {
		listIDs = append(listIDs, list.ID)
	}

	query := db.Preload("List").
		Where("deadline IS NOT NULL AND status <> ?", models.TaskStatusCancelled)
	if len(listIDs) > 0 {
		query = query.Where("user_id = ? OR list_id IN ?", userID, listIDs)
	} else {
		query = query.Where("user_id = ?", userID)
	}

	var tasks []models.Task
	err = query.Order("deadline").Find(&tasks).Error
	return tasks, err
}

// DueReminders returns PENDING tasks whose deadline falls inside the owner's
// reminder lead window and that were not reminded about yet. The per-user
// lead time makes the window user-dependent, so the final cut happens in
// memory over a candidate set bounded by the largest supported lead.
func (s *TaskServiceImpl) DueReminders(ctx context.Context, now time.Time) ([]models.Task, error) {
	const maxLead = 24 * time.Hour

	var candidates []models.Task
	err := s.db.WithContext(ctx).Preload("User").
		Where("status = ? AND reminder_sent = ? AND deadline IS NOT NULL", models.TaskStatusPending, false).
		Where("deadline > ? AND deadline <= ?", now, now.Add(maxLead)).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	due := make([]models.Task, 0, len(candidates))
	for _, task := range candidates {
		lead := time.Duration(task.User.ReminderLeadMinutes) * time.Minute
		if lead <= 0 {
			lead = time.Hour
		}
		if !task.Deadline.After(now.Add(lead)) {
			due = append(due, task)
		}
	}
	return due, nil
}

func (s *TaskServiceImpl) MarkReminderSent(ctx context.Context, taskID uint) error {
	return s.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ?", taskID).
		Update("reminder_sent", true).Error
}

func statusRank(status models.TaskStatus) int {
	if status == models.TaskStatusPending {
		return 0
	}
	return 1
}

// compareDeadlines orders deadlines ascending with nil treated as infinitely
// far in the future.
func compareDeadlines(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Before(*b):
		return -1
	case a.After(*b):
		return 1
	default:
		return 0
	}
}
