package worker_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/melitools/melisync/internal/db"
	"github.com/melitools/melisync/internal/mlapi"
	"github.com/melitools/melisync/internal/model"
	"github.com/melitools/melisync/internal/worker"
	"github.com/stretchr/testify/require"
)

func TestBulkHandlerRejectsMalformedPayload(t *testing.T) {
	setupDB(t)

	h := &worker.BulkHandler{}
	_, err := h.Handle(context.Background(), &model.QueueTask{
		TaskType:    model.TaskBulkEdit,
		PayloadJSON: `{"actions_to_perform":`,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "malformed")
}

func TestBulkHandlerRejectsEmptyActionSet(t *testing.T) {
	setupDB(t)

	h := &worker.BulkHandler{}
	_, err := h.Handle(context.Background(), &model.QueueTask{
		TaskType:    model.TaskBulkEdit,
		PayloadJSON: `{"actions_to_perform":{},"original_item_data":{"id":"MLB1"}}`,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no actionable keys")
}

func TestAutoPromoSkipsWhenAlreadyCompetitive(t *testing.T) {
	setupDB(t)
	require.NoError(t, db.SaveAccount(&model.Account{Nickname: "acme", AccessToken: "tok"}))

	var updates int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			updates++
		}
		fmt.Fprint(w, `{"id":"MLB1","price":40}`)
	}))
	defer srv.Close()

	h := &worker.AutoPromoHandler{ML: mlapi.NewClient(srv.URL, "test-agent")}
	msg, err := h.Handle(context.Background(), &model.QueueTask{
		TaskType:        model.TaskAutoPromo,
		AccountNickname: "acme",
		ItemID:          "MLB1",
		PayloadJSON:     `{"competitor_price":50,"adjustment":-1}`,
	})
	require.NoError(t, err)
	require.Contains(t, msg, "skipped")
	require.Zero(t, updates)
}

func TestAutoPromoUndercutsCompetitor(t *testing.T) {
	setupDB(t)
	require.NoError(t, db.SaveAccount(&model.Account{Nickname: "acme", AccessToken: "tok"}))

	var lastPut mlapi.Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			lastPut = mlapi.Payload{}
			require.NoError(t, jsonDecode(r, &lastPut))
		}
		fmt.Fprint(w, `{"id":"MLB1","price":60}`)
	}))
	defer srv.Close()

	h := &worker.AutoPromoHandler{ML: mlapi.NewClient(srv.URL, "test-agent")}
	msg, err := h.Handle(context.Background(), &model.QueueTask{
		TaskType:        model.TaskAutoPromo,
		AccountNickname: "acme",
		ItemID:          "MLB1",
		PayloadJSON:     `{"competitor_price":50,"adjustment":-0.5}`,
	})
	require.NoError(t, err)
	require.Contains(t, msg, "49.50")
	require.Equal(t, 49.5, lastPut["price"])

	history, err := db.ListModifiedAds()
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "MLB1", history[0].ItemID)
}

func TestAutoPromoFloorsTargetAtOne(t *testing.T) {
	setupDB(t)
	require.NoError(t, db.SaveAccount(&model.Account{Nickname: "acme", AccessToken: "tok"}))

	var lastPut mlapi.Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			lastPut = mlapi.Payload{}
			require.NoError(t, jsonDecode(r, &lastPut))
		}
		fmt.Fprint(w, `{"id":"MLB1","price":10}`)
	}))
	defer srv.Close()

	h := &worker.AutoPromoHandler{ML: mlapi.NewClient(srv.URL, "test-agent")}
	_, err := h.Handle(context.Background(), &model.QueueTask{
		TaskType:        model.TaskAutoPromo,
		AccountNickname: "acme",
		ItemID:          "MLB1",
		PayloadJSON:     `{"competitor_price":2,"adjustment":-5}`,
	})
	require.NoError(t, err)
	require.Equal(t, 1.0, lastPut["price"])
}

func TestPromoActivationRequiresPromotionID(t *testing.T) {
	setupDB(t)

	h := &worker.PromoActivationHandler{}
	_, err := h.Handle(context.Background(), &model.QueueTask{
		TaskType:    model.TaskPromoActivation,
		PayloadJSON: `{"deal_price":9.9}`,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "promotion_id")
}

func jsonDecode(r *http.Request, out any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}
