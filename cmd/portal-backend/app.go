package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ashwinyue/tool-portal/internal/config"
	"github.com/ashwinyue/tool-portal/internal/database"
	"github.com/ashwinyue/tool-portal/internal/logger"
	"github.com/ashwinyue/tool-portal/internal/repository"
	"github.com/ashwinyue/tool-portal/internal/service/tool"
)

// app 启动阶段构建的共享组件
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	db    *database.DB
	repos *repository.Repositories
}

// initApp 加载配置、连接数据库、建表并执行初始化数据写入
// 任一步骤失败都直接返回，进程不会进入服务状态
func initApp(ctx context.Context, bootstrap *zap.Logger, envFile string) (*app, error) {
	bootstrap.Debug("loading config", zap.String("env_file", envFile))
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	log.Info("config loaded",
		zap.Bool("auth_enabled", cfg.Auth.Enabled),
		zap.String("cors_origin", cfg.CORS.Origin),
	)

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := db.EnsureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("schema ready", zap.String("dialect", string(db.Dialect())))

	repos := repository.NewRepositories(db.DB)
	if _, err := tool.NewService(repos.Tool, log).Seed(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to seed tools: %w", err)
	}

	return &app{cfg: cfg, log: log, db: db, repos: repos}, nil
}

// close 释放数据库连接并刷新日志
func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.log.Warn("failed to close database", zap.Error(err))
	}
	_ = a.log.Sync()
}
