package handles_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/melitools/melisync/internal/db"
	"github.com/melitools/melisync/internal/model"
	"github.com/melitools/melisync/internal/queue"
	"github.com/melitools/melisync/pkg/utils"
	"github.com/melitools/melisync/server"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupAPI(t *testing.T) *gin.Engine {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Init(gdb))

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	server.Init(engine)
	return engine
}

type apiResp struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, body string) apiResp {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp apiResp
	require.NoError(t, utils.Json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestEnqueueEndpointCreatesTask(t *testing.T) {
	engine := setupAPI(t)

	resp := doJSON(t, engine, http.MethodPost, "/api/task/enqueue",
		`{"task_type":"bulk_edit","account_nickname":"acme","item_id":"MLB1","payload":{"actions_to_perform":{"price":{"source":"manual","value":10}}}}`)
	require.Equal(t, 200, resp.Code)

	tasks := queue.Fetch(db.TaskFilter{Type: model.TaskBulkEdit})
	require.Len(t, tasks, 1)
	require.Equal(t, model.StatusPending, tasks[0].Status)
	require.Contains(t, tasks[0].PayloadJSON, "actions_to_perform")
}

func TestEnqueueEndpointRejectsUnknownType(t *testing.T) {
	engine := setupAPI(t)

	resp := doJSON(t, engine, http.MethodPost, "/api/task/enqueue",
		`{"task_type":"NOT_A_TYPE","account_nickname":"acme"}`)
	require.Equal(t, 400, resp.Code)
	require.Contains(t, resp.Message, "unknown task type")
	require.Empty(t, queue.Fetch(db.TaskFilter{}))
}

func TestListEndpointFiltersAndProjects(t *testing.T) {
	engine := setupAPI(t)

	require.True(t, queue.Enqueue(model.TaskBulkEdit, "acme", "MLB1", map[string]any{"secret": 1}, 0))
	require.True(t, queue.Enqueue(model.TaskPriceCheck, "acme", "MLB2", nil, 0))

	resp := doJSON(t, engine, http.MethodGet, "/api/task/list?task_type=bulk_edit", "")
	require.Equal(t, 200, resp.Code)
	views, isSlice := resp.Data.([]any)
	require.True(t, isSlice)
	require.Len(t, views, 1)
	view := views[0].(map[string]any)
	require.Equal(t, "MLB1", view["item_id"])
	// payload stays private to the worker
	require.NotContains(t, view, "payload_json")
}

func TestCountEndpoint(t *testing.T) {
	engine := setupAPI(t)

	require.True(t, queue.Enqueue(model.TaskBulkEdit, "acme", "MLB1", nil, 0))
	require.True(t, queue.Enqueue(model.TaskBulkEdit, "acme", "MLB2", nil, 0))

	resp := doJSON(t, engine, http.MethodGet, "/api/task/count?task_type=BULK_EDIT", "")
	require.Equal(t, 200, resp.Code)
	data := resp.Data.(map[string]any)
	require.EqualValues(t, 2, data["count"])
}

func TestResetEndpoint(t *testing.T) {
	engine := setupAPI(t)

	require.True(t, queue.Enqueue(model.TaskBulkEdit, "acme", "MLB1", nil, 0))
	id := queue.Fetch(db.TaskFilter{})[0].TaskID
	queue.UpdateStatus(id, model.StatusError, "boom", true)

	resp := doJSON(t, engine, http.MethodPost, "/api/task/reset",
		fmt.Sprintf(`{"task_ids":[%d]}`, id))
	require.Equal(t, 200, resp.Code)

	task, err := db.GetTaskByID(id)
	require.NoError(t, err)
	require.Equal(t, model.StatusPending, task.Status)
	require.Equal(t, 0, task.RetryCount)
}
