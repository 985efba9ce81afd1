package worker

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/melitools/melisync/internal/bulk"
	"github.com/melitools/melisync/internal/db"
	"github.com/melitools/melisync/internal/mlapi"
	"github.com/melitools/melisync/internal/model"
	"github.com/melitools/melisync/pkg/utils"
	"github.com/pkg/errors"
)

// bulkPayload is the persisted task payload for a bulk edit: the action
// map plus an optional listing snapshot taken at enqueue time.
type bulkPayload struct {
	Actions  json.RawMessage `json:"actions_to_perform"`
	Original *mlapi.Item     `json:"original_item_data"`
}

// BulkHandler runs one bulk listing edit per task.
type BulkHandler struct {
	Orchestrator *bulk.Orchestrator
	ML           *mlapi.Client
}

func (h *BulkHandler) TaskType() model.TaskType {
	return model.TaskBulkEdit
}

func (h *BulkHandler) Handle(ctx context.Context, t *model.QueueTask) (string, error) {
	var p bulkPayload
	if err := utils.Json.Unmarshal([]byte(t.PayloadJSON), &p); err != nil {
		return "", errors.Wrap(err, "malformed bulk payload")
	}
	raw := p.Actions
	if raw == nil {
		raw = json.RawMessage(t.PayloadJSON)
	}
	actions, err := bulk.ParseActionSet(raw)
	if err != nil {
		return "", err
	}
	if len(actions.Directives) == 0 {
		return "", errors.New("bulk payload contained no actionable keys")
	}

	original := p.Original
	if original == nil {
		account, aerr := db.GetAccount(t.AccountNickname)
		if aerr != nil || account == nil {
			return "", errors.Errorf("account %q not found", t.AccountNickname)
		}
		original, err = h.ML.GetItem(ctx, account.AccessToken, t.ItemID)
		if err != nil {
			return "", errors.Wrap(err, "fetch listing snapshot")
		}
		if original == nil {
			return "", errors.Errorf("listing %s not found", t.ItemID)
		}
	}

	ok, log := h.Orchestrator.Execute(ctx, t.ItemID, actions, t.AccountNickname, original)
	joined := strings.Join(log, "; ")
	if !ok {
		return "", errors.Errorf("bulk edit failed: %s", joined)
	}
	return joined, nil
}
