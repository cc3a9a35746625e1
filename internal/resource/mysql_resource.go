package resource

import (
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"encoding-service/pkg/assert"
	"encoding-service/pkg/config"
	"encoding-service/pkg/logger"
	"encoding-service/pkg/manager"
)

var (
	mysqlResourceOnce      sync.Once
	singletonMysqlResource *MysqlResource
)

// MysqlResource MySQL资源管理器
type MysqlResource struct {
	db *gorm.DB
}

// DefaultMysqlResource 获取MySQL资源单例
func DefaultMysqlResource() *MysqlResource {
	assert.NotCircular()
	mysqlResourceOnce.Do(func() {
		singletonMysqlResource = &MysqlResource{}
	})
	assert.NotNil(singletonMysqlResource)
	return singletonMysqlResource
}

// MustOpen 建立数据库连接
func (r *MysqlResource) MustOpen() {
	cfg := config.GetGlobalConfig()
	if cfg == nil {
		panic("global config not initialized before MysqlResource")
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect database: %v", err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		panic(fmt.Sprintf("failed to get database handle: %v", err))
	}
	if cfg.Database.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	if cfg.Database.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	} else {
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	r.db = db

	logger.Info("MySQL resource initialized", map[string]interface{}{
		"host":     cfg.Database.Host,
		"database": cfg.Database.Database,
	})
}

// MainDB 获取主库连接
func (r *MysqlResource) MainDB() *gorm.DB {
	return r.db
}

// Close 释放数据库连接
func (r *MysqlResource) Close() {
	if r.db == nil {
		return
	}
	if sqlDB, err := r.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// MySqlResourcePlugin MySQL资源插件
type MySqlResourcePlugin struct{}

func (p *MySqlResourcePlugin) Name() string {
	return "mysqlResource"
}

func (p *MySqlResourcePlugin) MustCreateResource() manager.Resource {
	return DefaultMysqlResource()
}
