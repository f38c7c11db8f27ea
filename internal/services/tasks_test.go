package services_test

import (
	"context"
	"testing"
	"time"

	"taskbot/backend/internal/models"
	"taskbot/backend/internal/services"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type TaskServiceSuite struct {
	suite.Suite
	db    *gorm.DB
	tasks services.TaskService
	lists services.ListService
	user  *models.User
	ctx   context.Context
}

func (s *TaskServiceSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.tasks = services.NewTaskService(s.db)
	s.lists = services.NewListService(s.db)
	s.user = createUser(s.T(), s.db, 100, "alice", "Alice")
	s.ctx = context.Background()
}

func TestTaskServiceSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceSuite))
}

func (s *TaskServiceSuite) TestAddTaskAssignsPositions() {
	for i, title := range []string{"First", "Second", "Third"} {
		task, err := s.tasks.AddTask(s.ctx, s.user.ID, services.NewTask{Title: title})
		s.Require().NoError(err)
		s.Equal(i, task.Position)
		s.Equal(models.TaskStatusPending, task.Status)
	}
}

func (s *TaskServiceSuite) TestAddTaskNormalizesPriority() {
	task, err := s.tasks.AddTask(s.ctx, s.user.ID, services.NewTask{Title: "A", Priority: "urgent"})
	s.Require().NoError(err)
	s.Equal("URGENT", task.Priority)

	task, err = s.tasks.AddTask(s.ctx, s.user.ID, services.NewTask{Title: "B", Priority: "bogus"})
	s.Require().NoError(err)
	s.Equal("MEDIUM", task.Priority)
}

func (s *TaskServiceSuite) TestAddTaskDuplicateTitle() {
	_, err := s.tasks.AddTask(s.ctx, s.user.ID, services.NewTask{Title: "Buy milk"})
	s.Require().NoError(err)

	_, err = s.tasks.AddTask(s.ctx, s.user.ID, services.NewTask{Title: "buy MILK"})
	s.ErrorIs(err, services.ErrDuplicateTitle)

	// Another user's identical title never collides.
	other := createUser(s.T(), s.db, 200, "bob", "Bob")
	_, err = s.tasks.AddTask(s.ctx, other.ID, services.NewTask{Title: "Buy milk"})
	s.NoError(err)
}

func (s *TaskServiceSuite) TestDuplicateGuardIgnoresCompletedTasks() {
	task, err := s.tasks.AddTask(s.ctx, s.user.ID, services.NewTask{Title: "Buy milk"})
	s.Require().NoError(err)

	ok, err := s.tasks.UpdateTaskStatus(s.ctx, s.user.ID, task.ID, models.TaskStatusCompleted)
	s.Require().NoError(err)
	s.True(ok)

	_, err = s.tasks.AddTask(s.ctx, s.user.ID, services.NewTask{Title: "Buy milk"})
	s.NoError(err)
}

func (s *TaskServiceSuite) TestAddTaskResolvesListName() {
	list, err := s.lists.CreateList(s.ctx, s.user.ID, "Compra")
	s.Require().NoError(err)

	task, err := s.tasks.AddTask(s.ctx, s.user.ID, services.NewTask{
		Title:    "Tomatoes",
		ListName: "lista de la compra",
	})
	s.Require().NoError(err)
	s.Require().NotNil(task.ListID)
	s.Equal(list.ID, *task.ListID)
	s.Equal(0, task.Position)
}

func (s *TaskServiceSuite) TestAddTaskUnresolvedListNameIsIgnored() {
	task, err := s.tasks.AddTask(s.ctx, s.user.ID, services.NewTask{
		Title:    "Loose end",
		ListName: "no such list",
	})
	s.Require().NoError(err)
	s.Nil(task.ListID)
}

func (s *TaskServiceSuite) TestGetPendingTasksTimeFilters() {
	now := time.Now()
	add := func(title string, deadline *time.Time) {
		_, err := s.tasks.AddTask(s.ctx, s.user.ID, services.NewTask{Title: title, Deadline: deadline})
		s.Require().NoError(err)
	}
	add("overdue", timePtr(now.Add(-time.Hour)))
	add("this week", timePtr(now.Add(3*24*time.Hour)))
	add("this year", timePtr(now.Add(60*24*time.Hour)))
	add("undated", nil)

	count := func(filter models.TimeFilter) int {
		tasks, err := s.tasks.GetPendingTasks(s.ctx, s.user.ID, filter, "")
		s.Require().NoError(err)
		return len(tasks)
	}

	s.Equal(1, count(models.TimeFilterToday))
	s.Equal(2, count(models.TimeFilterWeek))
	s.Equal(2, count(models.TimeFilterMonth))
	s.Equal(3, count(models.TimeFilterYear))
	s.Equal(4, count(models.TimeFilterAll))
}

func (s *TaskServiceSuite) TestGetPendingTasksOrdering() {
	now := time.Now()
	add := func(title, priority string, deadline *time.Time) {
		_, err := s.tasks.AddTask(s.ctx, s.user.ID, services.NewTask{
			Title: title, Priority: priority, Deadline: deadline,
		})
		s.Require().NoError(err)
	}
	add("undated low", "LOW", nil)
	add("undated urgent", "URGENT", nil)
	add("soon medium", "MEDIUM", timePtr(now.Add(time.Hour)))
	add("soon high", "HIGH", timePtr(now.Add(time.Hour)))
	add("later urgent", "URGENT", timePtr(now.Add(2*time.Hour)))

	tasks, err := s.tasks.GetPendingTasks(s.ctx, s.user.ID, models.TimeFilterAll, "")
	s.Require().NoError(err)
	s.Require().Len(tasks, 5)

	titles := make([]string, len(tasks))
	for i, task := range tasks {
		titles[i] = task.Title
	}
	s.Equal([]string{"soon high", "soon medium", "later urgent", "undated urgent", "undated low"}, titles)
}

func (s *TaskServiceSuite) TestGetPendingTasksPriorityFilter() {
	_, err := s.tasks.AddTask(s.ctx, s.user.ID, services.NewTask{Title: "A", Priority: "HIGH"})
	s.Require().NoError(err)
	_, err = s.tasks.AddTask(s.ctx, s.user.ID, services.NewTask{Title: "B", Priority: "LOW"})
	s.Require().NoError(err)

	tasks, err := s.tasks.GetPendingTasks(s.ctx, s.user.ID, models.TimeFilterAll, "high")
	s.Require().NoError(err)
	s.Require().Len(tasks, 1)
	s.Equal("A", tasks[0].Title)
}

func (s *TaskServiceSuite) TestCompletingRecurringTaskSpawnsSuccessor() {
	deadline := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	task, err := s.tasks.AddTask(s.ctx, s.user.ID, services.NewTask{
		Title:      "Water plants",
		Deadline:   &deadline,
		Recurrence: "WEEKLY",
	})
	s.Require().NoError(err)

	ok, err := s.tasks.UpdateTaskStatus(s.ctx, s.user.ID, task.ID, models.TaskStatusCompleted)
	s.Require().NoError(err)
	s.True(ok)

	var all []models.Task
	s.Require().NoError(s.db.Order("id").Find(&all).Error)
	s.Require().Len(all, 2)

	successor := all[1]
	s.Equal("Water plants", successor.Title)
	s.Equal(models.TaskStatusPending, successor.Status)
	s.Require().NotNil(successor.Deadline)
	s.Equal(deadline.AddDate(0, 0, 7), successor.Deadline.UTC())
	s.Require().NotNil(successor.Recurrence)
	s.Equal(models.RecurrenceWeekly, *successor.Recurrence)
}

func (s *TaskServiceSuite) TestRecompletingSpawnsNothing() {
	deadline := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	task, err := s.tasks.AddTask(s.ctx, s.user.ID, services.NewTask{
		Title: "Water plants", Deadline: &deadline, Recurrence: "DAILY",
	})
	s.Require().NoError(err)

	_, err = s.tasks.UpdateTaskStatus(s.ctx, s.user.ID, task.ID, models.TaskStatusCompleted)
	s.Require().NoError(err)
	_, err = s.tasks.UpdateTaskStatus(s.ctx, s.user.ID, task.ID, models.TaskStatusCompleted)
	s.Require().NoError(err)

	var count int64
	s.Require().NoError(s.db.Model(&models.Task{}).Count(&count).Error)
	s.EqualValues(2, count)
}

func (s *TaskServiceSuite) TestEditTaskPartialUpdate() {
	deadline := time.Now().Add(time.Hour)
	task, err := s.tasks.AddTask(s.ctx, s.user.ID, services.NewTask{
		Title: "Original", Description: "keep me", Deadline: &deadline,
	})
	s.Require().NoError(err)

	newTitle := "Renamed"
	ok, err := s.tasks.EditTask(s.ctx, s.user.ID, task.ID, services.TaskUpdate{
		Title:         &newTitle,
		ClearDeadline: true,
	})
	s.Require().NoError(err)
	s.True(ok)

	got, err := s.tasks.GetTaskByID(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal("Renamed", got.Title)
	s.Equal("keep me", got.Description)
	s.Nil(got.Deadline)
}

func (s *TaskServiceSuite) TestEditTaskEmptyUpdateIsNoop() {
	task, err := s.tasks.AddTask(s.ctx, s.user.ID, services.NewTask{Title: "A"})
	s.Require().NoError(err)

	ok, err := s.tasks.EditTask(s.ctx, s.user.ID, task.ID, services.TaskUpdate{})
	s.Require().NoError(err)
	s.False(ok)
}

func (s *TaskServiceSuite) TestSharedListAccessControl() {
	member := createUser(s.T(), s.db, 200, "bob", "Bob")
	invitee := createUser(s.T(), s.db, 300, "carol", "Carol")
	stranger := createUser(s.T(), s.db, 400, "dave", "Dave")

	list, err := s.lists.CreateList(s.ctx, s.user.ID, "Household")
	s.Require().NoError(err)
	s.Require().NoError(s.db.Create(&models.SharedAccess{
		UserID: member.ID, ListID: list.ID, Status: models.AccessStatusAccepted,
	}).Error)
	s.Require().NoError(s.db.Create(&models.SharedAccess{
		UserID: invitee.ID, ListID: list.ID, Status: models.AccessStatusPending,
	}).Error)

	task, err := s.tasks.AddTask(s.ctx, s.user.ID, services.NewTask{Title: "Vacuum", ListName: "Household"})
	s.Require().NoError(err)

	ok, err := s.tasks.UpdateTaskStatus(s.ctx, member.ID, task.ID, models.TaskStatusCompleted)
	s.Require().NoError(err)
	s.True(ok, "accepted member may complete")

	ok, err = s.tasks.UpdateTaskStatus(s.ctx, invitee.ID, task.ID, models.TaskStatusPending)
	s.Require().NoError(err)
	s.False(ok, "pending invitee has no access")

	ok, err = s.tasks.DeleteTask(s.ctx, stranger.ID, task.ID)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *TaskServiceSuite) TestDeleteAllPendingTasks() {
	_, err := s.tasks.AddTask(s.ctx, s.user.ID, services.NewTask{Title: "A"})
	s.Require().NoError(err)
	task, err := s.tasks.AddTask(s.ctx, s.user.ID, services.NewTask{Title: "B"})
	s.Require().NoError(err)
	_, err = s.tasks.UpdateTaskStatus(s.ctx, s.user.ID, task.ID, models.TaskStatusCompleted)
	s.Require().NoError(err)

	count, err := s.tasks.DeleteAllPendingTasks(s.ctx, s.user.ID, models.TimeFilterAll)
	s.Require().NoError(err)
	s.EqualValues(1, count)

	remaining, err := s.tasks.GetUserTasks(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Require().Len(remaining, 1)
	s.Equal(models.TaskStatusCompleted, remaining[0].Status)
}

func (s *TaskServiceSuite) TestFindTasksByKeyword() {
	_, err := s.tasks.AddTask(s.ctx, s.user.ID, services.NewTask{Title: "Call dentist"})
	s.Require().NoError(err)
	_, err = s.tasks.AddTask(s.ctx, s.user.ID, services.NewTask{
		Title: "Errand", Description: "pick up the DENTAL records",
	})
	s.Require().NoError(err)
	_, err = s.tasks.AddTask(s.ctx, s.user.ID, services.NewTask{Title: "Unrelated"})
	s.Require().NoError(err)

	found, err := s.tasks.FindTasksByKeyword(s.ctx, s.user.ID, "dent", nil)
	s.Require().NoError(err)
	s.Len(found, 2)
}

func (s *TaskServiceSuite) TestFindTasksByKeywordInListRequiresVisibility() {
	stranger := createUser(s.T(), s.db, 200, "bob", "Bob")
	list, err := s.lists.CreateList(s.ctx, s.user.ID, "Private")
	s.Require().NoError(err)
	_, err = s.tasks.AddTask(s.ctx, s.user.ID, services.NewTask{Title: "Secret plan", ListName: "Private"})
	s.Require().NoError(err)

	found, err := s.tasks.FindTasksByKeyword(s.ctx, stranger.ID, "secret", &list.ID)
	s.Require().NoError(err)
	s.Empty(found)

	found, err = s.tasks.FindTasksByKeyword(s.ctx, s.user.ID, "secret", &list.ID)
	s.Require().NoError(err)
	s.Len(found, 1)
}

func (s *TaskServiceSuite) TestDueReminders() {
	now := time.Now()
	s.Require().NoError(s.db.Model(&models.User{}).Where("id = ?", s.user.ID).
		Update("reminder_lead_minutes", 60).Error)

	soon, err := s.tasks.AddTask(s.ctx, s.user.ID, services.NewTask{
		Title: "Soon", Deadline: timePtr(now.Add(30 * time.Minute)),
	})
	s.Require().NoError(err)
	_, err = s.tasks.AddTask(s.ctx, s.user.ID, services.NewTask{
		Title: "Far", Deadline: timePtr(now.Add(3 * time.Hour)),
	})
	s.Require().NoError(err)

	due, err := s.tasks.DueReminders(s.ctx, now)
	s.Require().NoError(err)
	s.Require().Len(due, 1)
	s.Equal(soon.ID, due[0].ID)

	s.Require().NoError(s.tasks.MarkReminderSent(s.ctx, soon.ID))
	due, err = s.tasks.DueReminders(s.ctx, now)
	s.Require().NoError(err)
	s.Empty(due)
}
