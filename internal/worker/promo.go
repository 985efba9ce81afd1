package worker

import (
	"context"
	"fmt"

	"github.com/melitools/melisync/internal/db"
	"github.com/melitools/melisync/internal/mlapi"
	"github.com/melitools/melisync/internal/model"
	"github.com/melitools/melisync/internal/pricing"
	"github.com/melitools/melisync/pkg/utils"
	"github.com/pkg/errors"
)

type autoPromoPayload struct {
	CompetitorPrice float64 `json:"competitor_price"`
	GroupID         int64   `json:"group_id"`
	Adjustment      float64 `json:"adjustment"`
}

// AutoPromoHandler undercuts a competitor price: the target is the
// competitor price plus a (usually negative) adjustment, floored at 1.
// The reference price comes from the payload, or from the cheapest
// tracked competitor of the linked group when the payload carries none.
// The listing is only written when the target is below the current
// price.
type AutoPromoHandler struct {
	ML *mlapi.Client
}

func (h *AutoPromoHandler) TaskType() model.TaskType {
	return model.TaskAutoPromo
}

func (h *AutoPromoHandler) Handle(ctx context.Context, t *model.QueueTask) (string, error) {
	var p autoPromoPayload
	if err := utils.Json.Unmarshal([]byte(t.PayloadJSON), &p); err != nil {
		return "", errors.Wrap(err, "malformed auto promo payload")
	}
	lowest := p.CompetitorPrice
	if lowest <= 0 {
		competitors, err := db.GetCompetitorsForGroup(p.GroupID)
		if err != nil {
			return "", err
		}
		for _, c := range competitors {
			if c.LastKnownPrice <= 0 {
				continue
			}
			if lowest <= 0 || c.LastKnownPrice < lowest {
				lowest = c.LastKnownPrice
			}
		}
		if lowest <= 0 {
			return "", errors.Errorf("no competitor price available for group %d", p.GroupID)
		}
	}

	target := pricing.Round2(lowest + p.Adjustment)
	if target < 1 {
		target = 1
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
	if target >= item.Price && item.Price > 0 {
		return fmt.Sprintf("target %.2f not below current %.2f, skipped", target, item.Price), nil
	}
	if err := h.ML.UpdateItem(ctx, account.AccessToken, t.ItemID, mlapi.Payload{"price": target}); err != nil {
		return "", errors.Wrap(err, "apply promo price")
	}
	if err := db.AddModifiedAd(t.ItemID, t.AccountNickname); err != nil {
		utils.Log.Errorf("worker: history record failed for %s: %v", t.ItemID, err)
	}
	return fmt.Sprintf("price lowered %.2f -> %.2f (competitor %.2f%+.2f)", item.Price, target, lowest, p.Adjustment), nil
}

type promoActivationPayload struct {
	PromotionID   string  `json:"promotion_id"`
	PromotionType string  `json:"promotion_type"`
	DealPrice     float64 `json:"deal_price"`
}

// PromoActivationHandler enrolls a listing into a seller promotion.
type PromoActivationHandler struct {
	ML *mlapi.Client
}

func (h *PromoActivationHandler) TaskType() model.TaskType {
	return model.TaskPromoActivation
}

func (h *PromoActivationHandler) Handle(ctx context.Context, t *model.QueueTask) (string, error) {
	var p promoActivationPayload
	if err := utils.Json.Unmarshal([]byte(t.PayloadJSON), &p); err != nil {
		return "", errors.Wrap(err, "malformed promo activation payload")
	}
	if p.PromotionID == "" {
		return "", errors.New("promo activation payload missing promotion_id")
	}
	account, err := db.GetAccount(t.AccountNickname)
	if err != nil || account == nil {
		return "", errors.Errorf("account %q not found", t.AccountNickname)
	}
	if err := h.ML.ApplyPromotion(ctx, account.AccessToken, t.ItemID, p.PromotionID, p.PromotionType, p.DealPrice); err != nil {
		return "", errors.Wrap(err, "apply promotion")
	}
	if err := db.AddModifiedAd(t.ItemID, t.AccountNickname); err != nil {
		utils.Log.Errorf("worker: history record failed for %s: %v", t.ItemID, err)
	}
	return fmt.Sprintf("promotion %s applied at %.2f", p.PromotionID, p.DealPrice), nil
}
