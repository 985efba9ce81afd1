package handles

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/melitools/melisync/internal/db"
	"github.com/melitools/melisync/internal/model"
	"github.com/melitools/melisync/server/common"
)

type ProfileReq struct {
	Name            string           `json:"name" binding:"required"`
	Compatibilities []map[string]any `json:"compatibilities" binding:"required"`
	Description     string           `json:"description"`
}

func SaveProfile(c *gin.Context) {
	var req ProfileReq
	if err := c.ShouldBind(&req); err != nil {
		common.ErrorResp(c, err, 400)
		return
	}
	if err := db.SaveCompatibilityProfile(req.Name, req.Compatibilities, req.Description); err != nil {
		common.ErrorResp(c, err, 500)
		return
	}
	common.SuccessResp(c)
}

func ListProfiles(c *gin.Context) {
	names, err := db.ListCompatibilityProfileNames()
	if err != nil {
		common.ErrorResp(c, err, 500)
		return
	}
	common.SuccessResp(c, names)
}

func GetProfile(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		common.ErrorStrResp(c, "name is required", 400)
		return
	}
	compatibilities, err := db.LoadCompatibilityProfile(name)
	if err != nil {
		common.ErrorResp(c, err, 404)
		return
	}
	common.SuccessResp(c, compatibilities)
}

func DeleteProfile(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		common.ErrorStrResp(c, "name is required", 400)
		return
	}
	if err := db.DeleteCompatibilityProfile(name); err != nil {
		common.ErrorResp(c, err, 500)
		return
	}
	common.SuccessResp(c)
}

func SavePricingRule(c *gin.Context) {
	var rule model.PricingRule
	if err := c.ShouldBind(&rule); err != nil {
		common.ErrorResp(c, err, 400)
		return
	}
	if rule.RuleName == "" {
		common.ErrorStrResp(c, "rule_name is required", 400)
		return
	}
	if err := db.SavePricingRule(&rule); err != nil {
		common.ErrorResp(c, err, 500)
		return
	}
	common.SuccessResp(c, rule)
}

func ListPricingRules(c *gin.Context) {
	rules, err := db.ListPricingRules()
	if err != nil {
		common.ErrorResp(c, err, 500)
		return
	}
	common.SuccessResp(c, rules)
}

func DeletePricingRule(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("rule_id"), 10, 64)
	if err != nil || id <= 0 {
		common.ErrorStrResp(c, "invalid rule_id", 400)
		return
	}
	if err := db.DeletePricingRule(id); err != nil {
		common.ErrorResp(c, err, 500)
		return
	}
	common.SuccessResp(c)
}

func ListCompetitors(c *gin.Context) {
	groupID, err := strconv.ParseInt(c.Query("group_id"), 10, 64)
	if err != nil {
		common.ErrorStrResp(c, "invalid group_id", 400)
		return
	}
	ads, err := db.GetCompetitorsForGroup(groupID)
	if err != nil {
		common.ErrorResp(c, err, 500)
		return
	}
	common.SuccessResp(c, ads)
}

func DeleteCompetitor(c *gin.Context) {
	mlbID := c.Query("mlb_id")
	if mlbID == "" {
		common.ErrorStrResp(c, "mlb_id is required", 400)
		return
	}
	if err := db.DeleteCompetitorAd(mlbID); err != nil {
		common.ErrorResp(c, err, 500)
		return
	}
	common.SuccessResp(c)
}
