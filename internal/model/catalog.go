package model

import "time"

// FixedPrice is an operator-configured per-SKU price that always wins over
// computed price directives. SKUs are stored upper-cased.
type FixedPrice struct {
	SKU   string  `gorm:"column:sku;primaryKey;size:128" json:"sku"`
	Price float64 `gorm:"column:price" json:"price"`
	Notes string  `gorm:"column:notes;size:512" json:"notes"`
}

func (FixedPrice) TableName() string {
	return "fixed_prices"
}

// ModifiedAd records a listing that received at least one successful write,
// for the "recently modified" history view.
type ModifiedAd struct {
	ItemID          string    `gorm:"column:item_id;primaryKey;size:64" json:"item_id"`
	AccountNickname string    `gorm:"column:account_nickname;size:255" json:"account_nickname"`
	Timestamp       time.Time `gorm:"column:timestamp;autoUpdateTime" json:"timestamp"`
}

func (ModifiedAd) TableName() string {
	return "modified_ads_history"
}

// CompatibilityProfile stores a named list of vehicle compatibilities as a
// JSON document, resolved by the bulk orchestrator when a task references
// the profile by name.
type CompatibilityProfile struct {
	ProfileName         string    `gorm:"column:profile_name;primaryKey;size:255" json:"profile_name"`
	CompatibilitiesJSON string    `gorm:"column:compatibilities_json;type:text" json:"compatibilities_json"`
	Description         string    `gorm:"column:description;size:512" json:"description"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (CompatibilityProfile) TableName() string {
	return "compatibility_profiles"
}

// CompetitorAd is a scraped competitor listing linked to a product group.
type CompetitorAd struct {
	MLBID          string    `gorm:"column:mlb_id;primaryKey;size:64" json:"mlb_id"`
	LinkedGroupID  int64     `gorm:"column:linked_group_id;index" json:"linked_group_id"`
	ParentSKU      string    `gorm:"column:parent_sku;size:128" json:"parent_sku"`
	URL            string    `gorm:"column:url;size:1024" json:"url"`
	LastKnownTitle string    `gorm:"column:last_known_title;size:1024" json:"last_known_title"`
	LastKnownPrice float64   `gorm:"column:last_known_price" json:"last_known_price"`
	LastKnownStock int       `gorm:"column:last_known_stock" json:"last_known_stock"`
	LastUpdated    time.Time `gorm:"column:last_updated;autoUpdateTime" json:"last_updated"`
}

func (CompetitorAd) TableName() string {
	return "competitor_ads"
}

// PricingRule is one stored price-recalculation rule. The same parameter
// shape travels inside PRICE_CHECK and recalculate price directives.
type PricingRule struct {
	RuleID              int64   `gorm:"column:rule_id;primaryKey;autoIncrement" json:"rule_id"`
	RuleName            string  `gorm:"column:rule_name;size:255;uniqueIndex" json:"rule_name"`
	AccountNickname     string  `gorm:"column:account_nickname;size:255;not null" json:"account_nickname"`
	ListingType         string  `gorm:"column:listing_type;size:64;not null" json:"listing_type"`
	PriceThreshold      float64 `gorm:"column:price_threshold;not null" json:"price_threshold"`
	ComparisonOperator  string  `gorm:"column:comparison_operator;size:8;not null" json:"comparison_operator"`
	BasePriceSource     string  `gorm:"column:base_price_source;size:64;not null;default:'erp_price'" json:"base_price_source"`
	FixedValueAdd       float64 `gorm:"column:fixed_value_add;not null;default:0" json:"fixed_value_add"`
	PercentageMarkup    float64 `gorm:"column:percentage_markup;not null;default:0" json:"percentage_markup"`
	FixedValueDiscount  float64 `gorm:"column:fixed_value_discount;not null;default:0" json:"fixed_value_discount"`
	PercentageDiscount  float64 `gorm:"column:percentage_discount;not null;default:0" json:"percentage_discount"`
	IncludeShippingCost bool    `gorm:"column:include_shipping_cost;not null;default:false" json:"include_shipping_cost"`
	Description         string  `gorm:"column:description;size:512" json:"description"`
}

func (PricingRule) TableName() string {
	return "pricing_rules"
}
