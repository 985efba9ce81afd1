package handles

import (
	"github.com/gin-gonic/gin"
	"github.com/melitools/melisync/internal/db"
	"github.com/melitools/melisync/server/common"
)

func ListModifiedAds(c *gin.Context) {
	ads, err := db.ListModifiedAds()
	if err != nil {
		common.ErrorResp(c, err, 500)
		return
	}
	common.SuccessResp(c, ads)
}

func ClearModifiedAds(c *gin.Context) {
	if err := db.ClearModifiedAds(); err != nil {
		common.ErrorResp(c, err, 500)
		return
	}
	common.SuccessResp(c)
}
