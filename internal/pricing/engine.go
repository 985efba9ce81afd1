// Package pricing evaluates stored pricing rules against a cost basis to
// produce a final sale price, and compares listing prices against rule
// thresholds.
package pricing

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// RuleParams mirrors the JSON stored in a pricing rule's params column.
type RuleParams struct {
	BasePriceSource     string  `json:"base_price_source"`
	FixedValueAdd       float64 `json:"fixed_value_add"`
	PercentageMarkup    float64 `json:"percentage_markup"`
	FixedValueDiscount  float64 `json:"fixed_value_discount"`
	PercentageDiscount  float64 `json:"percentage_discount"`
	IncludeShippingCost bool    `json:"include_shipping_cost"`
	PriceThreshold      float64 `json:"price_threshold"`
	ComparisonOperator  string  `json:"comparison_operator"`
}

type Result struct {
	FinalPrice float64
	Details    []string
}

// Evaluate computes the final price from the cost basis. Steps apply in a
// fixed order: fixed add, percentage markup, fixed discount, percentage
// discount, then optional shipping cost.
func Evaluate(params RuleParams, cost, shippingCost float64) (Result, error) {
	if cost <= 0 {
		return Result{}, errors.Errorf("pricing: non-positive cost basis %.2f", cost)
	}
	price := cost
	details := []string{fmt.Sprintf("cost basis %.2f", cost)}

	if params.FixedValueAdd != 0 {
		price += params.FixedValueAdd
		details = append(details, fmt.Sprintf("add %.2f -> %.2f", params.FixedValueAdd, price))
	}
	if params.PercentageMarkup != 0 {
		price *= 1 + params.PercentageMarkup/100
		details = append(details, fmt.Sprintf("markup %.2f%% -> %.2f", params.PercentageMarkup, price))
	}
	if params.FixedValueDiscount != 0 {
		price -= params.FixedValueDiscount
		details = append(details, fmt.Sprintf("discount %.2f -> %.2f", params.FixedValueDiscount, price))
	}
	if params.PercentageDiscount != 0 {
		price *= 1 - params.PercentageDiscount/100
		details = append(details, fmt.Sprintf("discount %.2f%% -> %.2f", params.PercentageDiscount, price))
	}
	if params.IncludeShippingCost && shippingCost > 0 {
		price += shippingCost
		details = append(details, fmt.Sprintf("shipping %.2f -> %.2f", shippingCost, price))
	}
	if price <= 0 {
		return Result{}, errors.Errorf("pricing: rule produced non-positive price %.2f", price)
	}
	return Result{FinalPrice: Round2(price), Details: details}, nil
}

// Compare checks a listing price against the rule threshold using the
// rule's comparison operator. Unknown operators report no violation.
func Compare(params RuleParams, listingPrice float64) bool {
	switch params.ComparisonOperator {
	case "<":
		return listingPrice < params.PriceThreshold
	case ">":
		return listingPrice > params.PriceThreshold
	case "<=":
		return listingPrice <= params.PriceThreshold
	case ">=":
		return listingPrice >= params.PriceThreshold
	default:
		return false
	}
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
