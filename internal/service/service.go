package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ashwinyue/tool-portal/internal/config"
	"github.com/ashwinyue/tool-portal/internal/metrics"
	"github.com/ashwinyue/tool-portal/internal/repository"
	"github.com/ashwinyue/tool-portal/internal/service/auth"
	"github.com/ashwinyue/tool-portal/internal/service/tool"
)

// Pinger 存储健康检查
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services 服务集合
type Services struct {
	Tool    *tool.Service
	Auth    auth.Authorizer
	Metrics *metrics.HTTPMetrics
	Storage Pinger

	Config *config.Config
	Logger *zap.Logger
}

// NewServices 创建所有服务
// ctx 控制签名公钥后台刷新的生命周期
func NewServices(ctx context.Context, repos *repository.Repositories, storage Pinger, cfg *config.Config, log *zap.Logger) (*Services, error) {
	authorizer, err := auth.New(ctx, &cfg.Auth, log.Named("auth"))
	if err != nil {
		return nil, fmt.Errorf("failed to init auth: %w", err)
	}

	return &Services{
		Tool:    tool.NewService(repos.Tool, log),
		Auth:    authorizer,
		Metrics: metrics.New(),
		Storage: storage,
		Config:  cfg,
		Logger:  log,
	}, nil
}
