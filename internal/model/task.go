package model

import "time"

type TaskType string

const (
	TaskBulkEdit        TaskType = "BULK_EDIT"
	TaskPriceCheck      TaskType = "PRICE_CHECK"
	TaskAutoPromo       TaskType = "AUTO_PROMO"
	TaskPromoActivation TaskType = "PROMO_ACTIVATION"
	TaskAdFetch         TaskType = "AD_FETCH"
	TaskAdReprocess     TaskType = "AD_REPROCESS"
	TaskTechSpecsScan   TaskType = "TECH_SPECS_SCAN"
	TaskTechSpecsPatch  TaskType = "TECH_SPECS_PATCH"
	TaskStockDivergence TaskType = "STOCK_DIVERGENCE"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "PENDING"
	StatusProcessing TaskStatus = "PROCESSING"
	StatusDone       TaskStatus = "DONE"
	StatusError      TaskStatus = "ERROR"
)

// KnownTaskTypes lists every type the enqueue surface accepts.
var KnownTaskTypes = []TaskType{
	TaskBulkEdit, TaskPriceCheck, TaskAutoPromo, TaskPromoActivation,
	TaskAdFetch, TaskAdReprocess, TaskTechSpecsScan, TaskTechSpecsPatch,
	TaskStockDivergence,
}

func IsKnownTaskType(t TaskType) bool {
	for _, k := range KnownTaskTypes {
		if k == t {
			return true
		}
	}
	return false
}

// QueueTask is one row of the unified task queue. Payload is opaque text,
// deserialized only by the worker that owns the task type.
type QueueTask struct {
	TaskID           uint       `gorm:"column:task_id;primaryKey;autoIncrement" json:"task_id"`
	TaskType         TaskType   `gorm:"column:task_type;size:64;not null;index:idx_unified_queue_tasktype" json:"task_type"`
	ItemID           string     `gorm:"column:item_id;size:64" json:"item_id"`
	AccountNickname  string     `gorm:"column:account_nickname;size:255;not null" json:"account_nickname"`
	Status           TaskStatus `gorm:"column:status;size:32;default:'PENDING';index:idx_unified_queue_status" json:"status"`
	PayloadJSON      string     `gorm:"column:payload_json;type:text" json:"payload_json"`
	RetryCount       int        `gorm:"column:retry_count;default:0" json:"retry_count"`
	LastErrorMessage string     `gorm:"column:last_error_message;size:2048" json:"last_error_message"`
	ScheduledFor     *time.Time `gorm:"column:scheduled_for" json:"scheduled_for"`
	AddedTimestamp   time.Time  `gorm:"column:added_timestamp;autoCreateTime" json:"added_timestamp"`
	UpdatedTimestamp time.Time  `gorm:"column:updated_timestamp;autoUpdateTime" json:"updated_timestamp"`
}

func (QueueTask) TableName() string {
	return "unified_task_queue"
}
