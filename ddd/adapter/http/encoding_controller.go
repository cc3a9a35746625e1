package http

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"encoding-service/ddd/application/app"
	"encoding-service/ddd/application/cqe"
	"encoding-service/pkg/config"
	"encoding-service/pkg/errno"
	"encoding-service/pkg/manager"
	"encoding-service/pkg/middleware"
	"encoding-service/pkg/restapi"
)

// EncodingController 编码作业管理接口
type EncodingController struct {
	encodingApp app.EncodingApp
	cfg         *config.Config
}

// NewEncodingController 创建编码控制器
func NewEncodingController(encodingApp app.EncodingApp, cfg *config.Config) *EncodingController {
	return &EncodingController{encodingApp: encodingApp, cfg: cfg}
}

// RegisterRoutes 挂载管理路由，整组走Bearer认证
func (ctl *EncodingController) RegisterRoutes(engine *gin.Engine) {
	v1 := engine.Group("/api/v1")
	v1.Use(middleware.JWTAuthMiddleware(ctl.cfg.JWT))
	{
		encodings := v1.Group("/encodings")
		{
			encodings.POST("", ctl.CreateEncoding)
			encodings.GET("/:job_uuid", ctl.GetEncoding)
			encodings.GET("/:job_uuid/sources", ctl.GetRenderableSources)
			encodings.PUT("/:job_uuid/status", ctl.TransitionStatus)
		}

		owners := v1.Group("/owners/:owner_type/:owner_id")
		{
			owners.GET("/encodings/:attribute", ctl.GetOwnerEncoding)
			owners.DELETE("/encodings", ctl.DeleteOwnerEncodings)
		}
	}
}

// requestOwner 把创建请求包装成属主弱引用：
// 服务端不持有属主对象，属性值由调用方随请求带来。
type requestOwner struct {
	ownerType   string
	ownerID     string
	attribute   string
	sourceValue string
}

func (o *requestOwner) Identify() (string, string) {
	return o.ownerType, o.ownerID
}

func (o *requestOwner) ReadAttribute(name string) (string, error) {
	if name != o.attribute {
		return "", fmt.Errorf("attribute %q not present in request", name)
	}
	return o.sourceValue, nil
}

// CreateEncoding 创建编码作业
func (ctl *EncodingController) CreateEncoding(c *gin.Context) {
	var req cqe.CreateEncodingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		restapi.Failed(c, errno.NewBizError(errno.ErrInvalidParam, err))
		return
	}
	if err := req.Validate(); err != nil {
		restapi.Failed(c, err)
		return
	}

	owner := &requestOwner{
		ownerType:   req.OwnerType,
		ownerID:     req.OwnerID,
		attribute:   req.OwnerAttribute,
		sourceValue: req.SourceValue,
	}

	job, err := ctl.encodingApp.CreateEncoding(c.Request.Context(), owner, req.OwnerAttribute, ctl.requestOrigin(c))
	if err != nil {
		restapi.Failed(c, err)
		return
	}
	restapi.Success(c, job)
}

// GetEncoding 查询作业详情
func (ctl *EncodingController) GetEncoding(c *gin.Context) {
	job, err := ctl.encodingApp.GetEncoding(c.Request.Context(), c.Param("job_uuid"))
	if err != nil {
		restapi.Failed(c, err)
		return
	}
	restapi.Success(c, job)
}

// GetRenderableSources 查询作业的可渲染视频源列表
func (ctl *EncodingController) GetRenderableSources(c *gin.Context) {
	sources, err := ctl.encodingApp.RenderableSources(c.Request.Context(), c.Param("job_uuid"))
	if err != nil {
		restapi.Failed(c, err)
		return
	}
	restapi.Success(c, sources)
}

// TransitionStatus 手工状态流转
func (ctl *EncodingController) TransitionStatus(c *gin.Context) {
	var req cqe.TransitionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		restapi.Failed(c, errno.NewBizError(errno.ErrInvalidParam, err))
		return
	}
	req.JobUUID = c.Param("job_uuid")

	if err := ctl.encodingApp.Transition(c.Request.Context(), &req); err != nil {
		restapi.Failed(c, err)
		return
	}
	restapi.Success(c, nil)
}

// GetOwnerEncoding 按属主键查询当前作业
func (ctl *EncodingController) GetOwnerEncoding(c *gin.Context) {
	job, err := ctl.encodingApp.GetOwnerEncoding(c.Request.Context(),
		c.Param("owner_type"), c.Param("owner_id"), c.Param("attribute"))
	if err != nil {
		restapi.Failed(c, err)
		return
	}
	restapi.Success(c, job)
}

// DeleteOwnerEncodings 属主删除时级联清理
func (ctl *EncodingController) DeleteOwnerEncodings(c *gin.Context) {
	req := cqe.DeleteOwnerEncodingsReq{
		OwnerType: c.Param("owner_type"),
		OwnerID:   c.Param("owner_id"),
	}
	if err := req.Validate(); err != nil {
		restapi.Failed(c, err)
		return
	}

	if err := ctl.encodingApp.DeleteForOwner(c.Request.Context(), req.OwnerType, req.OwnerID); err != nil {
		restapi.Failed(c, err)
		return
	}
	restapi.Success(c, nil)
}

// requestOrigin 相对源路径的拼接基准：
// 配置显式给出时用配置值，否则从当前请求推导。
func (ctl *EncodingController) requestOrigin(c *gin.Context) string {
	if ctl.cfg.Public.SiteOrigin != "" {
		return ctl.cfg.Public.SiteOrigin
	}
	scheme := "http"
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

// EncodingControllerPlugin 编码控制器插件
type EncodingControllerPlugin struct{}

// Name 插件名
func (p *EncodingControllerPlugin) Name() string {
	return "encoding-controller"
}

// MustCreateController 创建控制器
func (p *EncodingControllerPlugin) MustCreateController() manager.Controller {
	return NewEncodingController(app.DefaultEncodingApp(), config.GetGlobalConfig())
}
