package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"encoding-service/ddd/application/app"
	"encoding-service/pkg/errno"
	"encoding-service/pkg/manager"
	"encoding-service/pkg/restapi"
)

// 回调载荷上限，服务商的状态回调远小于这个数
const maxNotifyPayload = 1 << 20

// NotifyController 服务商回调入口。
// 路由必须对外开放：调用方是远端编码服务商，没有会话凭证，
// 不能挂认证中间件，合法性由载荷与作业记录的比对保证。
type NotifyController struct {
	encodingApp app.EncodingApp
}

// NewNotifyController 创建回调控制器
func NewNotifyController(encodingApp app.EncodingApp) *NotifyController {
	return &NotifyController{encodingApp: encodingApp}
}

// RegisterRoutes 挂载开放回调路由
func (ctl *NotifyController) RegisterRoutes(engine *gin.Engine) {
	engine.POST("/encode/notify", ctl.HandleNotify)
}

// HandleNotify 接收并处理一次服务商回调
func (ctl *NotifyController) HandleNotify(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxNotifyPayload))
	if err != nil {
		restapi.Failed(c, errno.NewBizError(errno.ErrNotificationInvalid, err))
		return
	}

	ack, err := ctl.encodingApp.HandleNotification(c.Request.Context(), payload)
	if err != nil {
		restapi.Failed(c, err)
		return
	}
	c.JSON(http.StatusOK, ack)
}

// NotifyControllerPlugin 回调控制器插件
type NotifyControllerPlugin struct{}

// Name 插件名
func (p *NotifyControllerPlugin) Name() string {
	return "notify-controller"
}

// MustCreateController 创建控制器
func (p *NotifyControllerPlugin) MustCreateController() manager.Controller {
	return NewNotifyController(app.DefaultEncodingApp())
}
