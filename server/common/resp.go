package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/melitools/melisync/pkg/utils"
)

type Resp[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func ErrorResp(c *gin.Context, err error, code int) {
	utils.Log.Errorf("%+v", err)
	c.JSON(http.StatusOK, Resp[any]{
		Code:    code,
		Message: err.Error(),
		Data:    nil,
	})
	c.Abort()
}

func ErrorStrResp(c *gin.Context, str string, code int) {
	c.JSON(http.StatusOK, Resp[any]{
		Code:    code,
		Message: str,
		Data:    nil,
	})
	c.Abort()
}

func SuccessResp(c *gin.Context, data ...any) {
	if len(data) == 0 {
		c.JSON(http.StatusOK, Resp[any]{
			Code:    200,
			Message: "success",
			Data:    nil,
		})
		return
	}
	c.JSON(http.StatusOK, Resp[any]{
		Code:    200,
		Message: "success",
		Data:    data[0],
	})
}
