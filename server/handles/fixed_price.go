package handles

import (
	"github.com/gin-gonic/gin"
	"github.com/melitools/melisync/internal/db"
	"github.com/melitools/melisync/server/common"
)

type FixedPriceReq struct {
	SKU   string  `json:"sku" binding:"required"`
	Price float64 `json:"price" binding:"required"`
	Notes string  `json:"notes"`
}

func SaveFixedPrice(c *gin.Context) {
	var req FixedPriceReq
	if err := c.ShouldBind(&req); err != nil {
		common.ErrorResp(c, err, 400)
		return
	}
	if req.Price <= 0 {
		common.ErrorStrResp(c, "price must be positive", 400)
		return
	}
	if err := db.SaveFixedPrice(req.SKU, req.Price, req.Notes); err != nil {
		common.ErrorResp(c, err, 500)
		return
	}
	common.SuccessResp(c)
}

func DeleteFixedPrice(c *gin.Context) {
	sku := c.Query("sku")
	if sku == "" {
		common.ErrorStrResp(c, "sku is required", 400)
		return
	}
	if err := db.DeleteFixedPrice(sku); err != nil {
		common.ErrorResp(c, err, 500)
		return
	}
	common.SuccessResp(c)
}

func ListFixedPrices(c *gin.Context) {
	prices, err := db.GetAllFixedPrices()
	if err != nil {
		common.ErrorResp(c, err, 500)
		return
	}
	common.SuccessResp(c, prices)
}
