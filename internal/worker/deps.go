package worker

import (
	"context"
	"sort"

	"github.com/melitools/melisync/internal/db"
	"github.com/melitools/melisync/internal/erp"
	"github.com/melitools/melisync/internal/model"
	"github.com/melitools/melisync/internal/pricing"
	"github.com/melitools/melisync/pkg/utils"
	"github.com/pkg/errors"
)

// ERPStock adapts the ERP client to the orchestrator's stock contract,
// fixing the reserve policy at construction.
type ERPStock struct {
	Client      *erp.Client
	SumReserves bool
}

func (s *ERPStock) AvailableStock(ctx context.Context, sku string) (float64, bool, error) {
	return s.Client.AvailableStockBySKU(ctx, sku, s.SumReserves)
}

// RuleCalculator recalculates a price from the ERP cost basis using the
// stored pricing rules. Rules are tried in id order and the first one
// whose threshold comparison matches the cost applies; a rule with no
// operator acts as a catch-all.
type RuleCalculator struct {
	Client *erp.Client
}

func ruleParams(r *model.PricingRule) pricing.RuleParams {
	return pricing.RuleParams{
		BasePriceSource:     r.BasePriceSource,
		FixedValueAdd:       r.FixedValueAdd,
		PercentageMarkup:    r.PercentageMarkup,
		FixedValueDiscount:  r.FixedValueDiscount,
		PercentageDiscount:  r.PercentageDiscount,
		IncludeShippingCost: r.IncludeShippingCost,
		PriceThreshold:      r.PriceThreshold,
		ComparisonOperator:  r.ComparisonOperator,
	}
}

func (c *RuleCalculator) Recalculate(ctx context.Context, sku string) (float64, []string, error) {
	cost, ok, err := c.Client.CostBySKU(ctx, sku)
	if err != nil {
		return 0, nil, err
	}
	if !ok {
		return 0, nil, errors.Errorf("no cost basis found for sku %s", sku)
	}
	rules, err := db.ListPricingRules()
	if err != nil {
		return 0, nil, err
	}
	if len(rules) == 0 {
		return 0, nil, errors.New("no pricing rules configured")
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].RuleID < rules[j].RuleID })
	for i := range rules {
		params := ruleParams(&rules[i])
		if params.ComparisonOperator != "" && !pricing.Compare(params, cost) {
			continue
		}
		res, err := pricing.Evaluate(params, cost, 0)
		if err != nil {
			return 0, nil, errors.Wrapf(err, "rule %s", rules[i].RuleName)
		}
		return res.FinalPrice, res.Details, nil
	}
	return 0, nil, errors.Errorf("no pricing rule matched cost %.2f for sku %s", cost, sku)
}

// DBFixedPrices looks price overrides up in the fixed price table.
type DBFixedPrices struct{}

func (DBFixedPrices) FixedPrice(sku string) (float64, bool) {
	price, ok, err := db.GetFixedPrice(sku)
	if err != nil {
		utils.Log.Errorf("worker: fixed price lookup failed for %s: %v", sku, err)
		return 0, false
	}
	return price, ok
}

// DBProfiles resolves compatibility profiles from storage.
type DBProfiles struct{}

func (DBProfiles) LoadProfile(name string) ([]map[string]any, error) {
	return db.LoadCompatibilityProfile(name)
}

// DBHistory records touched listings into the modified ads history.
type DBHistory struct{}

func (DBHistory) Record(itemID, nickname, note string) {
	if err := db.AddModifiedAd(itemID, nickname); err != nil {
		utils.Log.Errorf("worker: history record failed for %s: %v", itemID, err)
	}
}

// DBAccounts resolves marketplace accounts from storage.
type DBAccounts struct{}

func (DBAccounts) GetAccount(nickname string) (*model.Account, error) {
	return db.GetAccount(nickname)
}
