// Package erp talks to the Tiny-style ERP v3 REST API: product lookup by
// SKU, product details with variations, and per-deposit stock balances.
// Network-level failures are retried a bounded number of times with a
// fixed delay; a 404 means "absent" and yields an empty result.
package erp

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	retry "github.com/avast/retry-go"
	"github.com/go-resty/resty/v2"
	"github.com/melitools/melisync/pkg/utils"
	"github.com/pkg/errors"
)

type Prices struct {
	Price            float64 `json:"preco"`
	PromotionalPrice float64 `json:"precoPromocional"`
}

type Product struct {
	ID         int64     `json:"id"`
	SKU        string    `json:"codigo"`
	Name       string    `json:"descricao"`
	Prices     Prices    `json:"precos"`
	Variations []Product `json:"variacoes"`
}

type Deposit struct {
	ID        int64    `json:"id"`
	Name      string   `json:"nome"`
	Balance   *float64 `json:"saldo"`
	Available *float64 `json:"disponivel"`
}

type StockResponse struct {
	Deposits []Deposit `json:"depositos"`
}

type searchResponse struct {
	Items []Product `json:"itens"`
}

type Client struct {
	rc        *resty.Client
	depositID int64
	cache     *ProductCache
}

func NewClient(baseURL, token, userAgent string, depositID int64) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(token).
		SetHeader("User-Agent", userAgent).
		SetTimeout(25 * time.Second).
		SetRetryCount(3).
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
	return &Client{rc: rc, depositID: depositID, cache: NewProductCache()}
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, out any) error {
	var resp *resty.Response
	err := retry.Do(
		func() error {
			var rerr error
			resp, rerr = c.rc.R().
				SetContext(ctx).
				SetQueryParams(params).
				SetResult(out).
				Get(path)
			return rerr
		},
		retry.Attempts(3),
		retry.Delay(2*time.Second),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err != nil {
		return errors.Wrapf(err, "erp request failed: GET %s", path)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.IsError() {
		return errors.Errorf("erp error %d on GET %s: %s", resp.StatusCode(), path, truncate(string(resp.Body()), 500))
	}
	return nil
}

var ErrNotFound = errors.New("erp: resource not found")

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// FindProductIDBySKU resolves a SKU to the ERP product id. Returns 0 when
// no product carries the SKU.
func (c *Client) FindProductIDBySKU(ctx context.Context, sku string) (int64, error) {
	var res searchResponse
	err := c.get(ctx, "/produtos", map[string]string{"codigo": sku, "limit": "1"}, &res)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(res.Items) == 0 {
		return 0, nil
	}
	return res.Items[0].ID, nil
}

// GetProduct fetches full product details including variations.
func (c *Client) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var p Product
	err := c.get(ctx, fmt.Sprintf("/produtos/%d", id), map[string]string{"incluir": "variacoes"}, &p)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

// ProductBySKU returns cached product details for a SKU, fetching and
// caching on miss.
func (c *Client) ProductBySKU(ctx context.Context, sku string) (*Product, error) {
	if p, ok := c.cache.Get(sku); ok {
		return p, nil
	}
	id, err := c.FindProductIDBySKU(ctx, sku)
	if err != nil || id == 0 {
		return nil, err
	}
	p, err := c.GetProduct(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}
	c.cache.Put(sku, p)
	return p, nil
}

// CostBySKU returns the cost basis for price recalculation: the
// promotional price when set, otherwise the list price. ok is false when
// the product or a positive price cannot be found.
func (c *Client) CostBySKU(ctx context.Context, sku string) (float64, bool, error) {
	p, err := c.ProductBySKU(ctx, sku)
	if err != nil || p == nil {
		return 0, false, err
	}
	cost := p.Prices.PromotionalPrice
	if cost <= 0 {
		cost = p.Prices.Price
	}
	if cost <= 0 {
		return 0, false, nil
	}
	return cost, true, nil
}

// AvailableStockBySKU resolves the stock balance behind a SKU:
//   - simple product or child variation: direct stock lookup;
//   - parent with exactly one variation: the lookup redirects to that
//     child's id;
//   - parent with multiple variations: ambiguous, ok=false without error.
//
// sumReserves selects the physical balance instead of the available one.
func (c *Client) AvailableStockBySKU(ctx context.Context, sku string, sumReserves bool) (float64, bool, error) {
	id, err := c.FindProductIDBySKU(ctx, sku)
	if err != nil {
		return 0, false, err
	}
	if id == 0 {
		utils.Log.Debugf("erp: sku %q not found", sku)
		return 0, false, nil
	}
	product, err := c.GetProduct(ctx, id)
	if err != nil {
		return 0, false, err
	}
	if product == nil {
		return 0, false, nil
	}

	targetID := product.ID
	if n := len(product.Variations); n > 0 {
		if n == 1 {
			targetID = product.Variations[0].ID
			utils.Log.Debugf("erp: sku %q is a parent with one variation, reading stock from child %d", sku, targetID)
		} else {
			utils.Log.Warnf("erp: sku %q is a parent with %d variations, stock is ambiguous", sku, n)
			return 0, false, nil
		}
	}

	var stock StockResponse
	err = c.get(ctx, fmt.Sprintf("/estoque/%d", targetID), nil, &stock)
	if errors.Is(err, ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	for _, d := range stock.Deposits {
		if d.ID != c.depositID {
			continue
		}
		if sumReserves {
			if d.Balance != nil {
				return *d.Balance, true, nil
			}
		} else if d.Available != nil {
			return *d.Available, true, nil
		}
		return 0, false, nil
	}
	utils.Log.Warnf("erp: deposit %d not present in stock response for product %d", c.depositID, targetID)
	return 0, false, nil
}
