package worker

import (
	"context"
	"fmt"

	"github.com/melitools/melisync/internal/bulk"
	"github.com/melitools/melisync/internal/db"
	"github.com/melitools/melisync/internal/erp"
	"github.com/melitools/melisync/internal/mlapi"
	"github.com/melitools/melisync/internal/model"
	"github.com/melitools/melisync/internal/pricing"
	"github.com/melitools/melisync/pkg/utils"
	"github.com/pkg/errors"
)

// PriceCheckHandler evaluates a pricing rule against the ERP cost basis
// and reports the computed target next to the listing's current price.
// It never writes to the marketplace.
type PriceCheckHandler struct {
	ML  *mlapi.Client
	ERP *erp.Client
}

func (h *PriceCheckHandler) TaskType() model.TaskType {
	return model.TaskPriceCheck
}

func (h *PriceCheckHandler) Handle(ctx context.Context, t *model.QueueTask) (string, error) {
	var params pricing.RuleParams
	if err := utils.Json.Unmarshal([]byte(t.PayloadJSON), &params); err != nil {
		return "", errors.Wrap(err, "malformed price check payload")
	}

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

	current := item.Price
	if current == 0 && len(item.Variations) > 0 {
		current = item.Variations[0].Price
	}

	sku := bulk.SKUFromItem(item)
	if sku == "" {
		return "", errors.Errorf("listing %s has no resolvable sku", t.ItemID)
	}
	cost, ok, err := h.ERP.CostBySKU(ctx, sku)
	if err != nil {
		return "", errors.Wrap(err, "erp cost lookup")
	}
	if !ok {
		return "", errors.Errorf("no cost basis found for sku %s", sku)
	}

	res, err := pricing.Evaluate(params, cost, 0)
	if err != nil {
		return "", err
	}

	diff := pricing.Round2(current - res.FinalPrice)
	verdict := "matches"
	if diff > 0 {
		verdict = fmt.Sprintf("%.2f above target", diff)
	} else if diff < 0 {
		verdict = fmt.Sprintf("%.2f below target", -diff)
	}
	return fmt.Sprintf("sku %s: current %.2f, target %.2f (%s)", sku, current, res.FinalPrice, verdict), nil
}
