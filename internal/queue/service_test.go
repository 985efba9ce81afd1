package queue_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/melitools/melisync/internal/db"
	"github.com/melitools/melisync/internal/model"
	"github.com/melitools/melisync/internal/queue"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Init(gdb))
}

func TestEnqueueCreatesPendingTask(t *testing.T) {
	setupDB(t)

	ok := queue.Enqueue(model.TaskBulkEdit, "acme", "MLB123", map[string]any{"price": 10}, 0)
	require.True(t, ok)

	tasks := queue.Fetch(db.TaskFilter{Type: model.TaskBulkEdit})
	require.Len(t, tasks, 1)
	require.Equal(t, model.StatusPending, tasks[0].Status)
	require.Equal(t, 0, tasks[0].RetryCount)
	require.Equal(t, "acme", tasks[0].AccountNickname)
	require.Equal(t, "MLB123", tasks[0].ItemID)
	require.JSONEq(t, `{"price":10}`, tasks[0].PayloadJSON)
}

func TestEnqueueNilPayloadStoresEmptyObject(t *testing.T) {
	setupDB(t)

	require.True(t, queue.Enqueue(model.TaskAdFetch, "acme", "MLB1", nil, 0))
	tasks := queue.Fetch(db.TaskFilter{Type: model.TaskAdFetch})
	require.Len(t, tasks, 1)
	require.Equal(t, "{}", tasks[0].PayloadJSON)
}

func TestFetchDueIsFIFO(t *testing.T) {
	setupDB(t)

	for _, item := range []string{"MLB1", "MLB2", "MLB3"} {
		require.True(t, queue.Enqueue(model.TaskBulkEdit, "acme", item, nil, 0))
	}
	tasks := queue.FetchDue(model.TaskBulkEdit, 10)
	require.Len(t, tasks, 3)
	require.Equal(t, "MLB1", tasks[0].ItemID)
	require.Equal(t, "MLB2", tasks[1].ItemID)
	require.Equal(t, "MLB3", tasks[2].ItemID)
}

func TestFetchDueRespectsLimitAndType(t *testing.T) {
	setupDB(t)

	for i := 0; i < 5; i++ {
		require.True(t, queue.Enqueue(model.TaskBulkEdit, "acme", "MLB1", nil, 0))
	}
	require.True(t, queue.Enqueue(model.TaskPriceCheck, "acme", "MLB9", nil, 0))

	tasks := queue.FetchDue(model.TaskBulkEdit, 3)
	require.Len(t, tasks, 3)
	for _, task := range tasks {
		require.Equal(t, model.TaskBulkEdit, task.TaskType)
	}
}

func TestDelayedTaskIsNotDue(t *testing.T) {
	setupDB(t)

	require.True(t, queue.Enqueue(model.TaskBulkEdit, "acme", "MLB1", nil, 30))
	require.Empty(t, queue.FetchDue(model.TaskBulkEdit, 10))

	// still visible without the due filter
	tasks := queue.Fetch(db.TaskFilter{Type: model.TaskBulkEdit})
	require.Len(t, tasks, 1)
	require.NotNil(t, tasks[0].ScheduledFor)
	require.True(t, tasks[0].ScheduledFor.After(time.Now()))
}

func TestTaskIDsFilterOverridesOtherCriteria(t *testing.T) {
	setupDB(t)

	require.True(t, queue.Enqueue(model.TaskBulkEdit, "acme", "MLB1", nil, 0))
	require.True(t, queue.Enqueue(model.TaskPriceCheck, "acme", "MLB2", nil, 0))

	all := queue.Fetch(db.TaskFilter{})
	require.Len(t, all, 2)

	tasks := queue.Fetch(db.TaskFilter{
		Type:    model.TaskBulkEdit,
		Status:  model.StatusDone,
		TaskIDs: []uint{all[1].TaskID},
	})
	require.Len(t, tasks, 1)
	require.Equal(t, all[1].TaskID, tasks[0].TaskID)
}

func TestUpdateStatusIncrementsRetryOnlyWhenAsked(t *testing.T) {
	setupDB(t)

	require.True(t, queue.Enqueue(model.TaskBulkEdit, "acme", "MLB1", nil, 0))
	id := queue.Fetch(db.TaskFilter{})[0].TaskID

	queue.UpdateStatus(id, model.StatusProcessing, "processing", false)
	task, err := db.GetTaskByID(id)
	require.NoError(t, err)
	require.Equal(t, model.StatusProcessing, task.Status)
	require.Equal(t, 0, task.RetryCount)

	queue.UpdateStatus(id, model.StatusError, "boom", true)
	task, err = db.GetTaskByID(id)
	require.NoError(t, err)
	require.Equal(t, model.StatusError, task.Status)
	require.Equal(t, "boom", task.LastErrorMessage)
	require.Equal(t, 1, task.RetryCount)

	queue.UpdateStatus(id, model.StatusError, "boom again", true)
	task, err = db.GetTaskByID(id)
	require.NoError(t, err)
	require.Equal(t, 2, task.RetryCount)
}

func TestResetReturnsTaskToPristinePending(t *testing.T) {
	setupDB(t)

	require.True(t, queue.Enqueue(model.TaskBulkEdit, "acme", "MLB1", nil, 0))
	id := queue.Fetch(db.TaskFilter{})[0].TaskID
	queue.UpdateStatus(id, model.StatusError, "boom", true)

	n := queue.Reset([]uint{id})
	require.EqualValues(t, 1, n)

	task, err := db.GetTaskByID(id)
	require.NoError(t, err)
	require.Equal(t, model.StatusPending, task.Status)
	require.Equal(t, 0, task.RetryCount)
	require.Empty(t, task.LastErrorMessage)

	require.Len(t, queue.FetchDue(model.TaskBulkEdit, 10), 1)
}

func TestClearOperations(t *testing.T) {
	setupDB(t)

	require.True(t, queue.Enqueue(model.TaskBulkEdit, "acme", "MLB1", nil, 0))
	require.True(t, queue.Enqueue(model.TaskBulkEdit, "acme", "MLB2", nil, 0))
	require.True(t, queue.Enqueue(model.TaskPriceCheck, "acme", "MLB3", nil, 0))

	done := queue.Fetch(db.TaskFilter{Type: model.TaskBulkEdit})[0].TaskID
	queue.UpdateStatus(done, model.StatusDone, "done", false)

	queue.ClearByTypeAndStatus(model.TaskBulkEdit, model.StatusDone)
	require.EqualValues(t, 1, queue.CountByType(model.TaskBulkEdit))

	queue.ClearByType(model.TaskBulkEdit)
	require.EqualValues(t, 0, queue.CountByType(model.TaskBulkEdit))
	require.EqualValues(t, 1, queue.CountByType(model.TaskPriceCheck))

	queue.ClearAll()
	require.Empty(t, queue.Fetch(db.TaskFilter{}))
}

func TestDeleteRemovesRegardlessOfStatus(t *testing.T) {
	setupDB(t)

	require.True(t, queue.Enqueue(model.TaskBulkEdit, "acme", "MLB1", nil, 0))
	id := queue.Fetch(db.TaskFilter{})[0].TaskID
	queue.UpdateStatus(id, model.StatusProcessing, "processing", false)

	queue.Delete([]uint{id})
	require.Empty(t, queue.Fetch(db.TaskFilter{}))
}
