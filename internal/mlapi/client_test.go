package mlapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/melitools/melisync/internal/mlapi"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestGetItemSendsAuthAndUserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		fmt.Fprint(w, `{"id":"MLB1","title":"Widget","price":19.9}`)
	}))
	defer srv.Close()

	item, err := mlapi.NewClient(srv.URL, "test-agent").GetItem(context.Background(), "tok", "MLB1")
	require.NoError(t, err)
	require.NotNil(t, item)
	require.Equal(t, "MLB1", item.ID)
	require.Equal(t, 19.9, item.Price)
}

func TestGetItemNotFoundReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Item with id MLB1 not found","error":"not_found","status":404}`)
	}))
	defer srv.Close()

	item, err := mlapi.NewClient(srv.URL, "test-agent").GetItem(context.Background(), "tok", "MLB1")
	require.NoError(t, err)
	require.Nil(t, item)
}

func TestUpdateItemParsesStructuredErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"message":"price must be positive","error":"validation_error","status":400}`)
	}))
	defer srv.Close()

	err := mlapi.NewClient(srv.URL, "test-agent").UpdateItem(context.Background(), "tok", "MLB1", mlapi.Payload{"price": -1})
	require.Error(t, err)

	var apiErr *mlapi.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, 400, apiErr.StatusCode)
	require.Equal(t, "price must be positive", apiErr.Message)
	require.Equal(t, "validation_error", apiErr.ErrorCode)
}

func TestRateLimitedRequestIsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"id":"MLB1"}`)
	}))
	defer srv.Close()

	item, err := mlapi.NewClient(srv.URL, "test-agent").GetItem(context.Background(), "tok", "MLB1")
	require.NoError(t, err)
	require.NotNil(t, item)
	require.EqualValues(t, 2, calls.Load())
}

func TestUpdateSellerSKUSendsAttributePayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/items/MLB1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	err := mlapi.NewClient(srv.URL, "test-agent").UpdateSellerSKU(context.Background(), "tok", "MLB1", "NEW-SKU")
	require.NoError(t, err)

	attrs := got["attributes"].([]any)
	require.Len(t, attrs, 1)
	attr := attrs[0].(map[string]any)
	require.Equal(t, "SELLER_SKU", attr["id"])
	require.Equal(t, "NEW-SKU", attr["value_name"])
}

func TestCompatibilityEndpoints(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	c := mlapi.NewClient(srv.URL, "test-agent")
	require.NoError(t, c.UpdateCompatibilities(context.Background(), "tok", "MLB1", []map[string]any{{"id": 1}}))
	require.NoError(t, c.UpdateCompatibilityPositions(context.Background(), "tok", "MLB1", "front"))
	require.Equal(t, []string{
		"POST /items/MLB1/compatibilities",
		"POST /items/MLB1/compatibilities/positions",
	}, paths)
}
