// Package mlapi is the marketplace REST client. Every call attaches the
// account bearer token and the application user agent; HTTP 429 is retried
// with the server-suggested wait or exponential backoff up to a fixed cap,
// and error bodies come back as structured *APIError values instead of
// crossing into the worker loops as panics.
package mlapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/melitools/melisync/pkg/utils"
	"github.com/pkg/errors"
)

const maxRateLimitRetries = 3

// APIError is the marketplace's structured error body.
type APIError struct {
	StatusCode int    `json:"status"`
	Message    string `json:"message"`
	ErrorCode  string `json:"error"`
	Cause      any    `json:"cause,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("marketplace error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("marketplace error %d: %s", e.StatusCode, e.ErrorCode)
}

type Client struct {
	rc *resty.Client
}

func NewClient(baseURL, userAgent string) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", userAgent).
		SetHeader("Content-Type", "application/json").
		SetTimeout(25 * time.Second).
		SetRetryCount(maxRateLimitRetries).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err == nil && r.StatusCode() == http.StatusTooManyRequests
		}).
		SetRetryAfter(func(c *resty.Client, r *resty.Response) (time.Duration, error) {
			if ra := r.Header().Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
					return time.Duration(secs) * time.Second, nil
				}
			}
			return time.Duration(1<<r.Request.Attempt) * time.Second, nil
		})
	return &Client{rc: rc}
}

func (c *Client) execute(ctx context.Context, token, method, path string, body, out any) (*resty.Response, error) {
	req := c.rc.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetError(&APIError{})
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, errors.Wrapf(err, "marketplace request failed: %s %s", method, path)
	}
	if resp.IsError() {
		apiErr, ok := resp.Error().(*APIError)
		if !ok || (apiErr.Message == "" && apiErr.ErrorCode == "") {
			apiErr = &APIError{Message: string(resp.Body())}
		}
		apiErr.StatusCode = resp.StatusCode()
		return resp, apiErr
	}
	return resp, nil
}

// GetItem fetches a full listing snapshot. A 404 is "listing absent" and
// returns (nil, nil).
func (c *Client) GetItem(ctx context.Context, token, itemID string) (*Item, error) {
	var item Item
	resp, err := c.execute(ctx, token, http.MethodGet, "/items/"+itemID, nil, &item)
	if resp != nil && resp.StatusCode() == http.StatusNotFound {
		utils.Log.Debugf("mlapi: item %s not found", itemID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem issues the main PUT carrying the merged bulk payload.
func (c *Client) UpdateItem(ctx context.Context, token, itemID string, payload Payload) error {
	_, err := c.execute(ctx, token, http.MethodPut, "/items/"+itemID, payload, nil)
	return err
}

// UpdateSellerSKU rewrites the listing's SELLER_SKU attribute in a
// dedicated follow-up call.
func (c *Client) UpdateSellerSKU(ctx context.Context, token, itemID, sku string) error {
	payload := Payload{
		"attributes": []Attribute{{ID: "SELLER_SKU", ValueName: sku}},
	}
	_, err := c.execute(ctx, token, http.MethodPut, "/items/"+itemID, payload, nil)
	return err
}

func (c *Client) UpdateCompatibilities(ctx context.Context, token, itemID string, compatibilities []map[string]any) error {
	payload := Payload{"products_families": compatibilities}
	_, err := c.execute(ctx, token, http.MethodPost, "/items/"+itemID+"/compatibilities", payload, nil)
	return err
}

func (c *Client) UpdateCompatibilityPositions(ctx context.Context, token, itemID, position string) error {
	payload := Payload{"position": position}
	_, err := c.execute(ctx, token, http.MethodPost, "/items/"+itemID+"/compatibilities/positions", payload, nil)
	return err
}

// ApplyPromotion enrolls a listing into a seller promotion.
func (c *Client) ApplyPromotion(ctx context.Context, token, itemID, promotionID, promotionType string, dealPrice float64) error {
	payload := Payload{
		"promotion_id":   promotionID,
		"promotion_type": promotionType,
	}
	if dealPrice > 0 {
		payload["deal_price"] = dealPrice
	}
	_, err := c.execute(ctx, token, http.MethodPost, "/seller-promotions/items/"+itemID, payload, nil)
	return err
}
