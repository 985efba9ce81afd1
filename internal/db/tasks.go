package db

import (
	"time"

	"github.com/melitools/melisync/internal/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// TaskFilter combines with AND. TaskIDs takes precedence and ignores the
// type/status filters. Limit <= 0 means unbounded. DueOnly additionally
// restricts results to rows whose scheduled_for has passed; worker drains
// set it so deferred tasks stay invisible until due.
type TaskFilter struct {
	Type    model.TaskType
	Status  model.TaskStatus
	TaskIDs []uint
	Limit   int
	DueOnly bool
}

func CreateTask(t *model.QueueTask) error {
	return errors.WithStack(db.Create(t).Error)
}

func GetTasks(f TaskFilter) ([]model.QueueTask, error) {
	tx := db.Model(&model.QueueTask{})
	if len(f.TaskIDs) > 0 {
		tx = tx.Where("task_id IN ?", f.TaskIDs)
	} else {
		if f.Type != "" {
			tx = tx.Where("task_type = ?", f.Type)
		}
		if f.Status != "" {
			tx = tx.Where("status = ?", f.Status)
		}
		if f.DueOnly {
			tx = tx.Where("scheduled_for IS NULL OR scheduled_for <= ?", time.Now())
		}
	}
	tx = tx.Order("added_timestamp ASC").Order("task_id ASC")
	if f.Limit > 0 {
		tx = tx.Limit(f.Limit)
	}
	var tasks []model.QueueTask
	err := tx.Find(&tasks).Error
	return tasks, errors.WithStack(err)
}

func GetTaskByID(id uint) (*model.QueueTask, error) {
	var t model.QueueTask
	if err := db.First(&t, "task_id = ?", id).Error; err != nil {
		return nil, errors.Wrapf(err, "failed find task %d", id)
	}
	return &t, nil
}

// UpdateTaskStatus always overwrites the message; the retry counter is
// incremented only when the transition represents a failed attempt.
func UpdateTaskStatus(id uint, status model.TaskStatus, message string, incrementRetry bool) error {
	updates := map[string]any{
		"status":             status,
		"last_error_message": message,
	}
	if incrementRetry {
		updates["retry_count"] = gorm.Expr("retry_count + 1")
	}
	return errors.WithStack(db.Model(&model.QueueTask{}).Where("task_id = ?", id).Updates(updates).Error)
}

// ResetTasks returns ERROR (or stale PROCESSING) rows to PENDING, clearing
// the retry counter and error message and making them due immediately.
func ResetTasks(ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := db.Model(&model.QueueTask{}).Where("task_id IN ?", ids).Updates(map[string]any{
		"status":             model.StatusPending,
		"retry_count":        0,
		"last_error_message": "",
		"scheduled_for":      time.Now(),
	})
	return res.RowsAffected, errors.WithStack(res.Error)
}

func DeleteTasks(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return errors.WithStack(db.Where("task_id IN ?", ids).Delete(&model.QueueTask{}).Error)
}

func ClearAllTasks() error {
	return errors.WithStack(db.Where("1 = 1").Delete(&model.QueueTask{}).Error)
}

func ClearTasksByType(t model.TaskType) error {
	return errors.WithStack(db.Where("task_type = ?", t).Delete(&model.QueueTask{}).Error)
}

func ClearTasksByTypeAndStatus(t model.TaskType, s model.TaskStatus) error {
	return errors.WithStack(db.Where("task_type = ? AND status = ?", t, s).Delete(&model.QueueTask{}).Error)
}

func CountTasksByType(t model.TaskType) (int64, error) {
	var total int64
	err := db.Model(&model.QueueTask{}).Where("task_type = ?", t).Count(&total).Error
	return total, errors.WithStack(err)
}

// ItemStatus is the latest outcome recorded for one item within a task type.
type ItemStatus struct {
	ItemID  string           `json:"item_id"`
	Status  model.TaskStatus `json:"status"`
	Message string           `json:"message"`
}

// LatestStatusByItem returns, for each item that ever had a task of the
// given type, the status of its most recent task. Used for per-listing
// status display.
func LatestStatusByItem(t model.TaskType) (map[string]ItemStatus, error) {
	rows := []struct {
		ItemID           string
		Status           model.TaskStatus
		LastErrorMessage string
	}{}
	err := db.Raw(`
		WITH latest AS (
			SELECT item_id, status, last_error_message,
			       ROW_NUMBER() OVER (PARTITION BY item_id ORDER BY added_timestamp DESC, task_id DESC) AS rn
			FROM unified_task_queue
			WHERE task_type = ? AND item_id IS NOT NULL AND item_id != ''
		)
		SELECT item_id, status, last_error_message FROM latest WHERE rn = 1`, t).Scan(&rows).Error
	if err != nil {
		return nil, errors.WithStack(err)
	}
	out := make(map[string]ItemStatus, len(rows))
	for _, r := range rows {
		out[r.ItemID] = ItemStatus{ItemID: r.ItemID, Status: r.Status, Message: r.LastErrorMessage}
	}
	return out, nil
}
