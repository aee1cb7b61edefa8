// Package repository 定义数据访问接口
// 接口抽象使依赖注入和单元测试成为可能
package repository

import (
	"context"

	"github.com/ashwinyue/tool-portal/internal/model"
)

// ToolStore 工具数据访问接口
type ToolStore interface {
	ListAll(ctx context.Context) ([]*model.Tool, error)
	Exists(ctx context.Context) (bool, error)
	Create(ctx context.Context, tool *model.Tool) error
	CreateBatch(ctx context.Context, tools []*model.Tool) error

	// Transaction 在单个事务中执行 fn，fn 返回 nil 时提交，返回错误或 panic 时回滚
	Transaction(ctx context.Context, fn func(tx ToolStore) error) error
}

// 确保 ToolRepository 实现了接口
var _ ToolStore = (*ToolRepository)(nil)
