package restapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"encoding-service/pkg/errno"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, Response{
		Code:    errno.OK.Code,
		Message: errno.OK.Message,
		Data:    data,
	})
}

// Failed 失败响应，按错误码映射HTTP状态
func Failed(ctx *gin.Context, err error) {
	en := errno.Decode(err)
	ctx.JSON(httpStatus(en), Response{
		Code:    en.Code,
		Message: err.Error(),
	})
}

func httpStatus(en *errno.Errno) int {
	switch {
	case en.Code >= 400 && en.Code < 500:
		return en.Code
	case en.Code >= 500 && en.Code < 600:
		return http.StatusInternalServerError
	case en.Code >= 20000:
		// 业务错误统一按请求错误返回
		return http.StatusBadRequest
	default:
		return http.StatusOK
	}
}
