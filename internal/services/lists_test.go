package services_test

import (
	"context"
	"testing"

	"taskbot/backend/internal/models"
	"taskbot/backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateListAssignsPositions(t *testing.T) {
	db := newTestDB(t)
	lists := services.NewListService(db)
	user := createUser(t, db, 100, "alice", "Alice")
	ctx := context.Background()

	for i, title := range []string{"Inbox", "Work", "Home"} {
		list, err := lists.CreateList(ctx, user.ID, title)
		require.NoError(t, err)
		assert.Equal(t, i, list.Position)

		stored, err := lists.GetListByID(ctx, list.ID)
		require.NoError(t, err)
		assert.Equal(t, "#6C7B7F", stored.Color, "color falls back to the stored default")
	}
}

func TestDeleteListCascades(t *testing.T) {
	db := newTestDB(t)
	lists := services.NewListService(db)
	tasks := services.NewTaskService(db)
	owner := createUser(t, db, 100, "alice", "Alice")
	member := createUser(t, db, 200, "bob", "Bob")
	ctx := context.Background()

	list, err := lists.CreateList(ctx, owner.ID, "Doomed")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.SharedAccess{
		UserID: member.ID, ListID: list.ID, Status: models.AccessStatusAccepted,
	}).Error)
	_, err = tasks.AddTask(ctx, owner.ID, services.NewTask{Title: "Inside", ListName: "Doomed"})
	require.NoError(t, err)

	ok, err := lists.DeleteList(ctx, member.ID, list.ID)
	require.NoError(t, err)
	assert.False(t, ok, "members cannot delete")

	ok, err = lists.DeleteList(ctx, owner.ID, list.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	var taskCount, accessCount, listCount int64
	require.NoError(t, db.Model(&models.Task{}).Count(&taskCount).Error)
	require.NoError(t, db.Model(&models.SharedAccess{}).Count(&accessCount).Error)
	require.NoError(t, db.Model(&models.TaskList{}).Count(&listCount).Error)
	assert.EqualValues(t, 0, taskCount)
	assert.EqualValues(t, 0, accessCount)
	assert.EqualValues(t, 0, listCount)
}

func TestDeleteAllListsLeavesForeignListsAlone(t *testing.T) {
	db := newTestDB(t)
	lists := services.NewListService(db)
	alice := createUser(t, db, 100, "alice", "Alice")
	bob := createUser(t, db, 200, "bob", "Bob")
	ctx := context.Background()

	_, err := lists.CreateList(ctx, alice.ID, "A1")
	require.NoError(t, err)
	_, err = lists.CreateList(ctx, alice.ID, "A2")
	require.NoError(t, err)
	_, err = lists.CreateList(ctx, bob.ID, "B1")
	require.NoError(t, err)

	count, err := lists.DeleteAllLists(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	remaining, err := lists.GetLists(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestEditListOwnerOnly(t *testing.T) {
	db := newTestDB(t)
	lists := services.NewListService(db)
	owner := createUser(t, db, 100, "alice", "Alice")
	member := createUser(t, db, 200, "bob", "Bob")
	ctx := context.Background()

	list, err := lists.CreateList(ctx, owner.ID, "Original")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.SharedAccess{
		UserID: member.ID, ListID: list.ID, Status: models.AccessStatusAccepted,
	}).Error)

	ok, err := lists.EditList(ctx, member.ID, list.ID, "Hijacked")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = lists.EditListColor(ctx, member.ID, list.ID, "#FF0000")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = lists.EditList(ctx, owner.ID, list.ID, "Renamed")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lists.EditListColor(ctx, owner.ID, list.ID, "#FF0000")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := lists.GetListByID(ctx, list.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, "#FF0000", got.Color)
}

func TestReorderOwnedLists(t *testing.T) {
	db := newTestDB(t)
	lists := services.NewListService(db)
	user := createUser(t, db, 100, "alice", "Alice")
	ctx := context.Background()

	l1, err := lists.CreateList(ctx, user.ID, "One")
	require.NoError(t, err)
	l2, err := lists.CreateList(ctx, user.ID, "Two")
	require.NoError(t, err)
	l3, err := lists.CreateList(ctx, user.ID, "Three")
	require.NoError(t, err)

	ok, err := lists.ReorderLists(ctx, user.ID, []uint{l2.ID, l3.ID, l1.ID})
	require.NoError(t, err)
	assert.True(t, ok)

	positions := map[uint]int{}
	var all []models.TaskList
	require.NoError(t, db.Find(&all).Error)
	for _, list := range all {
		positions[list.ID] = list.Position
	}
	assert.Equal(t, 0, positions[l2.ID])
	assert.Equal(t, 1, positions[l3.ID])
	assert.Equal(t, 2, positions[l1.ID])

	got, err := lists.GetLists(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []uint{l2.ID, l3.ID, l1.ID},
		[]uint{got[0].ID, got[1].ID, got[2].ID}, "reads back in the reordered order")
}

func TestReorderFallsBackToMembershipPosition(t *testing.T) {
	db := newTestDB(t)
	lists := services.NewListService(db)
	owner := createUser(t, db, 100, "alice", "Alice")
	member := createUser(t, db, 200, "bob", "Bob")
	ctx := context.Background()

	shared, err := lists.CreateList(ctx, owner.ID, "Shared")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.SharedAccess{
		UserID: member.ID, ListID: shared.ID, Status: models.AccessStatusAccepted,
	}).Error)
	own, err := lists.CreateList(ctx, member.ID, "Mine")
	require.NoError(t, err)

	ok, err := lists.ReorderLists(ctx, member.ID, []uint{shared.ID, own.ID})
	require.NoError(t, err)
	assert.True(t, ok)

	var access models.SharedAccess
	require.NoError(t, db.Where("user_id = ? AND list_id = ?", member.ID, shared.ID).
		First(&access).Error)
	assert.Equal(t, 0, access.Position, "shared list reorders via the membership row")

	var ownerCopy models.TaskList
	require.NoError(t, db.First(&ownerCopy, shared.ID).Error)
	assert.Equal(t, 0, ownerCopy.Position, "the owner's own ordering is untouched")

	var mine models.TaskList
	require.NoError(t, db.First(&mine, own.ID).Error)
	assert.Equal(t, 1, mine.Position)

	got, err := lists.GetLists(ctx, member.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, shared.ID, got[0].ID, "membership position orders the shared list")
	assert.Equal(t, own.ID, got[1].ID)
}
