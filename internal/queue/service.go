// Package queue is the typed API over the unified task queue. Storage
// errors never escape it: callers get false/empty/zero results and the
// failure is logged, so a worker loop can never crash on a bad fetch.
package queue

import (
	"time"

	"github.com/melitools/melisync/internal/db"
	"github.com/melitools/melisync/internal/model"
	"github.com/melitools/melisync/pkg/utils"
)

// Enqueue persists one task with status PENDING and retry_count 0.
// The payload must be JSON-serializable; a nil payload is stored as "{}".
// Returns false (and logs) on serialization or storage failure — the
// caller must not assume the task exists in that case.
func Enqueue(taskType model.TaskType, accountNickname, itemID string, payload any, delayMinutes int) bool {
	payloadJSON := "{}"
	if payload != nil {
		s, err := utils.Json.MarshalToString(payload)
		if err != nil {
			utils.Log.Errorf("queue: failed to serialize %s payload for item %q: %+v", taskType, itemID, err)
			return false
		}
		payloadJSON = s
	}
	scheduled := time.Now().Add(time.Duration(delayMinutes) * time.Minute)
	t := model.QueueTask{
		TaskType:        taskType,
		AccountNickname: accountNickname,
		ItemID:          itemID,
		Status:          model.StatusPending,
		PayloadJSON:     payloadJSON,
		ScheduledFor:    &scheduled,
	}
	if err := db.CreateTask(&t); err != nil {
		utils.Log.Errorf("queue: failed to enqueue %s task for item %q: %+v", taskType, itemID, err)
		return false
	}
	utils.Log.Debugf("queue: enqueued %s task %d for item %q (account %s)", taskType, t.TaskID, itemID, accountNickname)
	return true
}

// Fetch returns tasks matching the filter in FIFO order (oldest first).
// An empty slice means either no match or a storage failure; failures are
// logged and must be treated as "nothing to do".
func Fetch(f db.TaskFilter) []model.QueueTask {
	tasks, err := db.GetTasks(f)
	if err != nil {
		utils.Log.Errorf("queue: fetch failed: %+v", err)
		return nil
	}
	return tasks
}

// FetchDue returns the next batch of runnable PENDING tasks for one type.
func FetchDue(taskType model.TaskType, limit int) []model.QueueTask {
	return Fetch(db.TaskFilter{
		Type:    taskType,
		Status:  model.StatusPending,
		Limit:   limit,
		DueOnly: true,
	})
}

func UpdateStatus(id uint, status model.TaskStatus, message string, incrementRetry bool) {
	if err := db.UpdateTaskStatus(id, status, message, incrementRetry); err != nil {
		utils.Log.Errorf("queue: failed to move task %d to %s: %+v", id, status, err)
	}
}

// Reset returns the given tasks to PENDING with retry_count 0, a cleared
// message and an immediate scheduled_for. Returns how many rows changed.
func Reset(ids []uint) int64 {
	n, err := db.ResetTasks(ids)
	if err != nil {
		utils.Log.Errorf("queue: reset failed: %+v", err)
		return 0
	}
	return n
}

// Delete removes tasks unconditionally, regardless of status.
func Delete(ids []uint) {
	if err := db.DeleteTasks(ids); err != nil {
		utils.Log.Errorf("queue: delete failed: %+v", err)
	}
}

func ClearAll() {
	if err := db.ClearAllTasks(); err != nil {
		utils.Log.Errorf("queue: clear all failed: %+v", err)
	}
}

func ClearByType(t model.TaskType) {
	if err := db.ClearTasksByType(t); err != nil {
		utils.Log.Errorf("queue: clear by type %s failed: %+v", t, err)
	}
}

func ClearByTypeAndStatus(t model.TaskType, s model.TaskStatus) {
	if err := db.ClearTasksByTypeAndStatus(t, s); err != nil {
		utils.Log.Errorf("queue: clear %s/%s failed: %+v", t, s, err)
	}
}

func CountByType(t model.TaskType) int64 {
	n, err := db.CountTasksByType(t)
	if err != nil {
		utils.Log.Errorf("queue: count by type %s failed: %+v", t, err)
		return 0
	}
	return n
}

// View is the caller-visible projection of a task, exposed to the HTTP
// status surface. Payload stays private to the owning worker.
type View struct {
	TaskID           uint             `json:"task_id"`
	TaskType         model.TaskType   `json:"task_type"`
	AccountNickname  string           `json:"account_nickname"`
	ItemID           string           `json:"item_id"`
	Status           model.TaskStatus `json:"status"`
	RetryCount       int              `json:"retry_count"`
	LastErrorMessage string           `json:"last_error_message"`
	AddedTimestamp   time.Time        `json:"added_timestamp"`
}

func ToView(t *model.QueueTask) View {
	return View{
		TaskID:           t.TaskID,
		TaskType:         t.TaskType,
		AccountNickname:  t.AccountNickname,
		ItemID:           t.ItemID,
		Status:           t.Status,
		RetryCount:       t.RetryCount,
		LastErrorMessage: t.LastErrorMessage,
		AddedTimestamp:   t.AddedTimestamp,
	}
}

func ToViews(tasks []model.QueueTask) []View {
	views := make([]View, 0, len(tasks))
	for i := range tasks {
		views = append(views, ToView(&tasks[i]))
	}
	return views
}
