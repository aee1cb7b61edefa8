package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/ashwinyue/tool-portal/internal/model"
)

// ErrDuplicateSlug slug 已存在
var ErrDuplicateSlug = errors.New("tool slug already exists")

// ToolRepository 工具数据访问
type ToolRepository struct {
	db *gorm.DB
}

// NewToolRepository 创建工具仓库
func NewToolRepository(db *gorm.DB) *ToolRepository {
	return &ToolRepository{db: db}
}

// WithTx 返回绑定到指定事务的仓库
func (r *ToolRepository) WithTx(tx *gorm.DB) *ToolRepository {
	return &ToolRepository{db: tx}
}

// Transaction 在事务中执行
func (r *ToolRepository) Transaction(ctx context.Context, fn func(tx ToolStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

// ListAll 列出全部工具，按 ID 升序
func (r *ToolRepository) ListAll(ctx context.Context) ([]*model.Tool, error) {
	tools := make([]*model.Tool, 0)
	err := r.db.WithContext(ctx).Order("id ASC").Find(&tools).Error
	return tools, err
}

// Exists 是否至少存在一条工具记录
func (r *ToolRepository) Exists(ctx context.Context) (bool, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.Tool{}).Limit(1).Pluck("id", &ids).Error
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

// Create 创建工具
func (r *ToolRepository) Create(ctx context.Context, tool *model.Tool) error {
	return translateError(r.db.WithContext(ctx).Create(tool).Error)
}

// CreateBatch 批量创建工具
func (r *ToolRepository) CreateBatch(ctx context.Context, tools []*model.Tool) error {
	if len(tools) == 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).Create(tools).Error)
}

// translateError 将唯一约束冲突统一为 ErrDuplicateSlug
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key value") {
		return fmt.Errorf("%w: %v", ErrDuplicateSlug, err)
	}
	return err
}
