package manager

import (
	"sync"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"encoding-service/pkg/config"
	"encoding-service/pkg/logger"
)

// Dependencies 依赖注入容器，启动时组装后传给各插件
type Dependencies struct {
	DB                 *gorm.DB
	Config             *config.Config
	EncodingAppService interface{}
}

// Resource 可打开/关闭的外部资源（数据库、缓存、消息队列等）
type Resource interface {
	MustOpen()
	Close()
}

// ResourcePlugin 资源插件，init阶段注册
type ResourcePlugin interface {
	Name() string
	MustCreateResource() Resource
}

// ServicePlugin 应用服务插件
type ServicePlugin interface {
	Name() string
	MustCreateService(deps *Dependencies)
}

// Component 后台组件（消费者、巡检器等）
type Component interface {
	Start() error
	Stop() error
	GetName() string
}

// ComponentPlugin 组件插件
type ComponentPlugin interface {
	Name() string
	MustCreateComponent(deps *Dependencies) Component
}

// Controller HTTP控制器，负责把自己的路由挂到引擎上
type Controller interface {
	RegisterRoutes(engine *gin.Engine)
}

// ControllerPlugin 控制器插件
type ControllerPlugin interface {
	Name() string
	MustCreateController() Controller
}

var (
	mu                sync.Mutex
	resourcePlugins   []ResourcePlugin
	servicePlugins    []ServicePlugin
	componentPlugins  []ComponentPlugin
	controllerPlugins []ControllerPlugin

	openedResources []Resource
	runningParts    []Component
)

// RegisterResourcePlugin 注册资源插件（包init时调用）
func RegisterResourcePlugin(p ResourcePlugin) {
	mu.Lock()
	defer mu.Unlock()
	resourcePlugins = append(resourcePlugins, p)
}

// RegisterServicePlugin 注册服务插件
func RegisterServicePlugin(p ServicePlugin) {
	mu.Lock()
	defer mu.Unlock()
	servicePlugins = append(servicePlugins, p)
}

// RegisterComponentPlugin 注册组件插件
func RegisterComponentPlugin(p ComponentPlugin) {
	mu.Lock()
	defer mu.Unlock()
	componentPlugins = append(componentPlugins, p)
}

// RegisterControllerPlugin 注册控制器插件
func RegisterControllerPlugin(p ControllerPlugin) {
	mu.Lock()
	defer mu.Unlock()
	controllerPlugins = append(controllerPlugins, p)
}

// MustInitResources 按注册顺序打开所有资源，失败直接panic
func MustInitResources() {
	mu.Lock()
	defer mu.Unlock()
	for _, p := range resourcePlugins {
		r := p.MustCreateResource()
		r.MustOpen()
		openedResources = append(openedResources, r)
		logger.Infof("Resource opened name=%s", p.Name())
	}
}

// CloseResources 逆序关闭所有已打开的资源
func CloseResources() {
	mu.Lock()
	defer mu.Unlock()
	for i := len(openedResources) - 1; i >= 0; i-- {
		openedResources[i].Close()
	}
	openedResources = nil
}

// MustInitServices 初始化应用服务
func MustInitServices(deps *Dependencies) {
	mu.Lock()
	defer mu.Unlock()
	for _, p := range servicePlugins {
		p.MustCreateService(deps)
		logger.Infof("Service initialized name=%s", p.Name())
	}
}

// MustInitComponents 创建并启动所有后台组件
func MustInitComponents(deps *Dependencies) {
	mu.Lock()
	defer mu.Unlock()
	for _, p := range componentPlugins {
		c := p.MustCreateComponent(deps)
		if c == nil {
			continue
		}
		if err := c.Start(); err != nil {
			logger.Fatal("Failed to start component " + p.Name() + ": " + err.Error())
		}
		runningParts = append(runningParts, c)
		logger.Infof("Component started name=%s", c.GetName())
	}
}

// RegisterAllRoutes 把所有控制器的路由挂到gin引擎
func RegisterAllRoutes(engine *gin.Engine) {
	mu.Lock()
	defer mu.Unlock()
	for _, p := range controllerPlugins {
		c := p.MustCreateController()
		c.RegisterRoutes(engine)
		logger.Infof("Routes registered controller=%s", p.Name())
	}
}

// Shutdown 逆序停止所有组件
func Shutdown() {
	mu.Lock()
	defer mu.Unlock()
	for i := len(runningParts) - 1; i >= 0; i-- {
		if err := runningParts[i].Stop(); err != nil {
			logger.Errorf("Component stop failed name=%s error=%v", runningParts[i].GetName(), err)
		}
	}
	runningParts = nil
}
