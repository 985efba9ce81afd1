package handles

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/melitools/melisync/internal/bootstrap"
	"github.com/melitools/melisync/internal/db"
	"github.com/melitools/melisync/internal/model"
	"github.com/melitools/melisync/internal/queue"
	"github.com/melitools/melisync/server/common"
)

type EnqueueReq struct {
	TaskType     string `json:"task_type" binding:"required"`
	Account      string `json:"account_nickname" binding:"required"`
	ItemID       string `json:"item_id"`
	Payload      any    `json:"payload"`
	DelayMinutes int    `json:"delay_minutes"`
}

// Enqueue adds one task and wakes the owning worker loop so it is picked
// up without waiting for the next periodic pass.
func Enqueue(c *gin.Context) {
	var req EnqueueReq
	if err := c.ShouldBind(&req); err != nil {
		common.ErrorResp(c, err, 400)
		return
	}
	taskType := model.TaskType(strings.ToUpper(strings.TrimSpace(req.TaskType)))
	if !model.IsKnownTaskType(taskType) {
		common.ErrorStrResp(c, "unknown task type: "+req.TaskType, 400)
		return
	}
	if !queue.Enqueue(taskType, req.Account, req.ItemID, req.Payload, req.DelayMinutes) {
		common.ErrorStrResp(c, "failed to enqueue task", 500)
		return
	}
	if req.DelayMinutes <= 0 {
		bootstrap.Workers.Wake(taskType)
	}
	common.SuccessResp(c)
}

// ListTasks returns task views filtered by type, status, explicit ids
// and limit. An ids filter overrides the other criteria.
func ListTasks(c *gin.Context) {
	f := db.TaskFilter{
		Type:   model.TaskType(strings.ToUpper(c.Query("task_type"))),
		Status: model.TaskStatus(strings.ToUpper(c.Query("status"))),
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			common.ErrorStrResp(c, "invalid limit", 400)
			return
		}
		f.Limit = n
	}
	if ids := c.Query("task_ids"); ids != "" {
		parsed, err := parseIDs(ids)
		if err != nil {
			common.ErrorStrResp(c, "invalid task_ids", 400)
			return
		}
		f.TaskIDs = parsed
	}
	common.SuccessResp(c, queue.ToViews(queue.Fetch(f)))
}

func CountTasks(c *gin.Context) {
	taskType := model.TaskType(strings.ToUpper(c.Query("task_type")))
	if !model.IsKnownTaskType(taskType) {
		common.ErrorStrResp(c, "unknown task type: "+c.Query("task_type"), 400)
		return
	}
	common.SuccessResp(c, gin.H{"count": queue.CountByType(taskType)})
}

type idsReq struct {
	TaskIDs []uint `json:"task_ids" binding:"required"`
}

// ResetTasks puts the named tasks back to PENDING with a cleared retry
// count and error message, making them eligible immediately.
func ResetTasks(c *gin.Context) {
	var req idsReq
	if err := c.ShouldBind(&req); err != nil {
		common.ErrorResp(c, err, 400)
		return
	}
	common.SuccessResp(c, gin.H{"reset": queue.Reset(req.TaskIDs)})
}

func DeleteTasks(c *gin.Context) {
	var req idsReq
	if err := c.ShouldBind(&req); err != nil {
		common.ErrorResp(c, err, 400)
		return
	}
	queue.Delete(req.TaskIDs)
	common.SuccessResp(c)
}

func ClearTasks(c *gin.Context) {
	queue.ClearAll()
	common.SuccessResp(c)
}

func ClearTasksByType(c *gin.Context) {
	taskType := model.TaskType(strings.ToUpper(c.Query("task_type")))
	if !model.IsKnownTaskType(taskType) {
		common.ErrorStrResp(c, "unknown task type: "+c.Query("task_type"), 400)
		return
	}
	queue.ClearByType(taskType)
	common.SuccessResp(c)
}

func ClearTasksByTypeAndStatus(c *gin.Context) {
	taskType := model.TaskType(strings.ToUpper(c.Query("task_type")))
	if !model.IsKnownTaskType(taskType) {
		common.ErrorStrResp(c, "unknown task type: "+c.Query("task_type"), 400)
		return
	}
	status := model.TaskStatus(strings.ToUpper(c.Query("status")))
	switch status {
	case model.StatusPending, model.StatusProcessing, model.StatusDone, model.StatusError:
	default:
		common.ErrorStrResp(c, "unknown status: "+c.Query("status"), 400)
		return
	}
	queue.ClearByTypeAndStatus(taskType, status)
	common.SuccessResp(c)
}

// WakeWorker signals the loop for a type to drain now.
func WakeWorker(c *gin.Context) {
	taskType := model.TaskType(strings.ToUpper(c.Query("task_type")))
	if !bootstrap.Workers.Wake(taskType) {
		common.ErrorStrResp(c, "no worker registered for type: "+c.Query("task_type"), 404)
		return
	}
	common.SuccessResp(c)
}

// PriceCheckStatus returns the latest price-check outcome per item.
func PriceCheckStatus(c *gin.Context) {
	statuses, err := db.LatestStatusByItem(model.TaskPriceCheck)
	if err != nil {
		common.ErrorResp(c, err, 500)
		return
	}
	common.SuccessResp(c, statuses)
}

func parseIDs(s string) ([]uint, error) {
	parts := strings.Split(s, ",")
	ids := make([]uint, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, uint(n))
	}
	return ids, nil
}
