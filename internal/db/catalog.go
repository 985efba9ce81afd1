package db

import (
	"strings"

	"github.com/melitools/melisync/internal/model"
	"github.com/melitools/melisync/pkg/utils"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// --- fixed prices ---

func SaveFixedPrice(sku string, price float64, notes string) error {
	fp := model.FixedPrice{SKU: strings.ToUpper(strings.TrimSpace(sku)), Price: price, Notes: notes}
	return errors.WithStack(db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sku"}},
		UpdateAll: true,
	}).Create(&fp).Error)
}

func DeleteFixedPrice(sku string) error {
	return errors.WithStack(db.Delete(&model.FixedPrice{}, "sku = ?", strings.ToUpper(strings.TrimSpace(sku))).Error)
}

// GetFixedPrice reports the override for one SKU, if any.
func GetFixedPrice(sku string) (float64, bool, error) {
	var fp model.FixedPrice
	err := db.Where("sku = ?", strings.ToUpper(strings.TrimSpace(sku))).First(&fp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.WithStack(err)
	}
	return fp.Price, true, nil
}

// GetAllFixedPrices loads every fixed price into a map for quick lookups
// during a drain pass.
func GetAllFixedPrices() (map[string]float64, error) {
	var rows []model.FixedPrice
	if err := db.Find(&rows).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	out := make(map[string]float64, len(rows))
	for _, r := range rows {
		out[r.SKU] = r.Price
	}
	return out, nil
}

// --- modification history ---

func AddModifiedAd(itemID, accountNickname string) error {
	rec := model.ModifiedAd{ItemID: itemID, AccountNickname: accountNickname}
	return errors.WithStack(db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_id"}},
		UpdateAll: true,
	}).Create(&rec).Error)
}

func ListModifiedAds() ([]model.ModifiedAd, error) {
	var rows []model.ModifiedAd
	err := db.Order("timestamp DESC").Find(&rows).Error
	return rows, errors.WithStack(err)
}

func ClearModifiedAds() error {
	return errors.WithStack(db.Where("1 = 1").Delete(&model.ModifiedAd{}).Error)
}

// --- compatibility profiles ---

func SaveCompatibilityProfile(name string, compatibilities []map[string]any, description string) error {
	data, err := utils.Json.MarshalToString(compatibilities)
	if err != nil {
		return errors.Wrap(err, "failed to serialize compatibility profile")
	}
	p := model.CompatibilityProfile{ProfileName: name, CompatibilitiesJSON: data, Description: description}
	return errors.WithStack(db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"compatibilities_json", "description", "updated_at"}),
	}).Create(&p).Error)
}

func LoadCompatibilityProfile(name string) ([]map[string]any, error) {
	var p model.CompatibilityProfile
	if err := db.First(&p, "profile_name = ?", name).Error; err != nil {
		return nil, errors.Wrapf(err, "failed find compatibility profile %q", name)
	}
	var list []map[string]any
	if err := utils.Json.UnmarshalFromString(p.CompatibilitiesJSON, &list); err != nil {
		return nil, errors.Wrapf(err, "corrupt compatibility profile %q", name)
	}
	return list, nil
}

func ListCompatibilityProfileNames() ([]string, error) {
	var names []string
	err := db.Model(&model.CompatibilityProfile{}).Order("profile_name ASC").Pluck("profile_name", &names).Error
	return names, errors.WithStack(err)
}

func DeleteCompatibilityProfile(name string) error {
	return errors.WithStack(db.Delete(&model.CompatibilityProfile{}, "profile_name = ?", name).Error)
}

// --- competitor ads ---

func UpsertCompetitorAd(ad *model.CompetitorAd) error {
	return errors.WithStack(db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "mlb_id"}},
		UpdateAll: true,
	}).Create(ad).Error)
}

func GetCompetitorsForGroup(groupID int64) ([]model.CompetitorAd, error) {
	var ads []model.CompetitorAd
	err := db.Where("linked_group_id = ?", groupID).Order("mlb_id ASC").Find(&ads).Error
	return ads, errors.WithStack(err)
}

func DeleteCompetitorAd(mlbID string) error {
	return errors.WithStack(db.Delete(&model.CompetitorAd{}, "mlb_id = ?", mlbID).Error)
}

// --- pricing rules ---

func SavePricingRule(r *model.PricingRule) error {
	if r.RuleID != 0 {
		return errors.WithStack(db.Save(r).Error)
	}
	return errors.WithStack(db.Create(r).Error)
}

func ListPricingRules() ([]model.PricingRule, error) {
	var rules []model.PricingRule
	err := db.Order("rule_name ASC").Find(&rules).Error
	return rules, errors.WithStack(err)
}

func DeletePricingRule(id int64) error {
	return errors.WithStack(db.Delete(&model.PricingRule{}, "rule_id = ?", id).Error)
}
