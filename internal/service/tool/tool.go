package tool

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ashwinyue/tool-portal/internal/model"
	"github.com/ashwinyue/tool-portal/internal/repository"
)

// Service 工具服务
type Service struct {
	store repository.ToolStore
	log   *zap.Logger
}

// NewService 创建工具服务
func NewService(store repository.ToolStore, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log.Named("tool")}
}

// List 列出全部工具
func (s *Service) List(ctx context.Context) ([]*model.Tool, error) {
	tools, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	return tools, nil
}
