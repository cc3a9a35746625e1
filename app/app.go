package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	httpadapter "encoding-service/ddd/adapter/http"
	app "encoding-service/ddd/application/app"
	"encoding-service/ddd/infrastructure/database/dao"
	"encoding-service/ddd/infrastructure/database/persistence"
	"encoding-service/ddd/infrastructure/sweeper"
	"encoding-service/internal/resource"
	"encoding-service/pkg/config"
	"encoding-service/pkg/logger"
	"encoding-service/pkg/manager"
	"encoding-service/pkg/registry"
)

func Run() {
	// 先使用标准输出确保能看到日志
	fmt.Println("[STARTUP] Starting encoding service...")

	// 加载配置
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("[ERROR] Failed to load config (%s): %v\n", cfgPath, err)
		os.Exit(1)
	}
	// 设置全局配置（必须在资源管理器初始化之前）
	config.SetGlobalConfig(cfg)
	fmt.Printf("[STARTUP] Config file loaded: %s\n", cfgPath)

	// 立即初始化日志服务
	logService := logger.NewLogger(cfg)
	logger.SetGlobalLogger(logService)
	logger.Infof("Encoding service starting provider=%s", cfg.Encode.Provider)

	// 资源管理器初始化
	manager.MustInitResources()
	defer manager.CloseResources()
	logger.Infof("Resource manager initialized")

	// 建表
	encodingDAO := dao.NewEncodingJobDAO()
	if err := encodingDAO.AutoMigrate(); err != nil {
		logger.Fatal("Failed to migrate database: " + err.Error())
	}

	// 初始化应用服务
	encodingAppService := app.DefaultEncodingApp()

	// 创建依赖注入容器
	deps := &manager.Dependencies{
		DB:                 resource.DefaultMysqlResource().MainDB(),
		Config:             cfg,
		EncodingAppService: encodingAppService,
	}

	// 注册组件与控制器插件
	manager.RegisterComponentPlugin(&sweeper.PendingSweeperPlugin{
		Repo: persistence.NewEncodingRepository(),
	})
	manager.RegisterControllerPlugin(&httpadapter.EncodingControllerPlugin{})
	manager.RegisterControllerPlugin(&httpadapter.NotifyControllerPlugin{})

	manager.MustInitServices(deps)
	manager.MustInitComponents(deps)
	logger.Infof("All components initialized")

	// 创建Gin引擎并挂载路由
	engine := httpadapter.SetupEngine()
	manager.RegisterAllRoutes(engine)
	logger.Infof("Routes registered")

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start HTTP server: " + err.Error())
		}
	}()
	logger.Infof("HTTP server started addr=%s notify_url=%s", addr, cfg.Encode.NotifyURL)

	// 注册到etcd，供上游发现API地址与回调端点
	var serviceRegistry *registry.ServiceRegistry
	if cfg.ServiceRegistry.Enabled {
		serviceRegistry = mustRegisterService(cfg, addr)
	}

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Received shutdown signal, shutting down server...")

	if serviceRegistry != nil {
		if err := serviceRegistry.Deregister(); err != nil {
			logger.Errorf("Service deregistration failed error=%v", err)
		}
	}

	// 关闭所有组件
	manager.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to close: " + err.Error())
	}

	logger.Infof("Server exited safely")
	if logService != nil {
		logService.Close()
	}
}

func mustRegisterService(cfg *config.Config, listenAddr string) *registry.ServiceRegistry {
	registerAddr := listenAddr
	if cfg.ServiceRegistry.RegisterHost != "" {
		registerAddr = fmt.Sprintf("%s:%d", cfg.ServiceRegistry.RegisterHost, cfg.Server.Port)
	}

	serviceID := cfg.ServiceRegistry.ServiceID
	if serviceID == "" {
		hostname, _ := os.Hostname()
		serviceID = fmt.Sprintf("%s-%d", hostname, cfg.Server.Port)
	}

	serviceRegistry, err := registry.NewServiceRegistry(
		registry.RegistryConfig{
			Endpoints:   cfg.ServiceRegistry.Endpoints,
			DialTimeout: 5 * time.Second,
		},
		registry.ServiceConfig{
			ServiceName:     cfg.ServiceRegistry.ServiceName,
			ServiceID:       serviceID,
			TTL:             cfg.ServiceRegistry.TTL,
			RefreshInterval: cfg.ServiceRegistry.RefreshInterval,
		},
		registry.Instance{
			Addr:      registerAddr,
			NotifyURL: cfg.Encode.NotifyURL,
		},
	)
	if err != nil {
		logger.Fatal("Failed to create service registry: " + err.Error())
	}
	if err := serviceRegistry.Register(); err != nil {
		logger.Fatal("Failed to register service: " + err.Error())
	}
	return serviceRegistry
}

// resolveConfigPath 根据环境选择配置文件，支持CONFIG_PATH覆盖、CONFIG_ENV区分环境
func resolveConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}

	env := strings.ToLower(strings.TrimSpace(os.Getenv("CONFIG_ENV")))
	if env == "" {
		env = "dev"
	}

	switch env {
	case "prod", "production":
		return "configs/config_prod.yaml"
	case "dev", "development":
		return "configs/config.dev.yaml"
	default:
		return fmt.Sprintf("configs/config.%s.yaml", env)
	}
}
