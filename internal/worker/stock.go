package worker

import (
	"context"
	"fmt"

	"github.com/melitools/melisync/internal/bulk"
	"github.com/melitools/melisync/internal/db"
	"github.com/melitools/melisync/internal/erp"
	"github.com/melitools/melisync/internal/mlapi"
	"github.com/melitools/melisync/internal/model"
	"github.com/pkg/errors"
)

// StockDivergenceHandler compares the listing's published quantity with
// the ERP balance and reports the difference. It never writes to either
// side.
type StockDivergenceHandler struct {
	ML          *mlapi.Client
	ERP         *erp.Client
	SumReserves bool
}

func (h *StockDivergenceHandler) TaskType() model.TaskType {
	return model.TaskStockDivergence
}

func (h *StockDivergenceHandler) Handle(ctx context.Context, t *model.QueueTask) (string, error) {
	account, err := db.GetAccount(t.AccountNickname)
	if err != nil || account == nil {
		return "", errors.Errorf("account %q not found", t.AccountNickname)
	}
	item, err := h.ML.GetItem(ctx, account.AccessToken, t.ItemID)
	if err != nil {
		return "", errors.Wrap(err, "fetch listing")
	}
	if item == nil {
		return "", errors.Errorf("listing %s not found", t.ItemID)
	}
	sku := bulk.SKUFromItem(item)
	if sku == "" {
		return "", errors.Errorf("listing %s has no resolvable sku", t.ItemID)
	}

	erpStock, ok, err := h.ERP.AvailableStockBySKU(ctx, sku, h.SumReserves)
	if err != nil {
		return "", errors.Wrap(err, "erp stock lookup")
	}
	if !ok {
		return "", errors.Errorf("erp stock for sku %s unavailable or ambiguous", sku)
	}

	listed := item.AvailableQuantity
	if len(item.Variations) > 0 {
		listed = 0
		for _, v := range item.Variations {
			listed += v.AvailableQuantity
		}
	}

	delta := int(erpStock) - listed
	if delta == 0 {
		return fmt.Sprintf("sku %s in sync at %d units", sku, listed), nil
	}
	return fmt.Sprintf("sku %s diverges: listing %d, erp %.0f (delta %+d)", sku, listed, erpStock, delta), nil
}
