package handles

import (
	"github.com/gin-gonic/gin"
	"github.com/melitools/melisync/internal/db"
	"github.com/melitools/melisync/internal/model"
	"github.com/melitools/melisync/server/common"
)

type AccountReq struct {
	Nickname        string `json:"nickname" binding:"required"`
	AccessToken     string `json:"access_token" binding:"required"`
	RefreshToken    string `json:"refresh_token"`
	ExpiresAt       int64  `json:"expires_at"`
	SellerID        string `json:"seller_id"`
	ShippingMode    string `json:"shipping_mode"`
	ShippingType    string `json:"shipping_type"`
	OfficialStoreID int64  `json:"official_store_id"`
}

func SaveAccount(c *gin.Context) {
	var req AccountReq
	if err := c.ShouldBind(&req); err != nil {
		common.ErrorResp(c, err, 400)
		return
	}
	a := model.Account{
		Nickname:        req.Nickname,
		AccessToken:     req.AccessToken,
		RefreshToken:    req.RefreshToken,
		ExpiresAt:       req.ExpiresAt,
		SellerID:        req.SellerID,
		ShippingMode:    req.ShippingMode,
		ShippingType:    req.ShippingType,
		OfficialStoreID: req.OfficialStoreID,
	}
	if err := db.SaveAccount(&a); err != nil {
		common.ErrorResp(c, err, 500)
		return
	}
	common.SuccessResp(c)
}

func ListAccounts(c *gin.Context) {
	accounts, err := db.ListAccounts()
	if err != nil {
		common.ErrorResp(c, err, 500)
		return
	}
	common.SuccessResp(c, accounts)
}

func DeleteAccount(c *gin.Context) {
	nickname := c.Query("nickname")
	if nickname == "" {
		common.ErrorStrResp(c, "nickname is required", 400)
		return
	}
	if err := db.DeleteAccount(nickname); err != nil {
		common.ErrorResp(c, err, 500)
		return
	}
	common.SuccessResp(c)
}
