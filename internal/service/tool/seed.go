package tool

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ashwinyue/tool-portal/internal/model"
	"github.com/ashwinyue/tool-portal/internal/repository"
)

// SeedResult 初始化结果
type SeedResult struct {
	Seeded   bool // 本次是否写入了默认数据
	Inserted int
}

// DefaultTools 返回首次启动时写入的默认工具
func DefaultTools() []*model.Tool {
	return []*model.Tool{
		{
			Slug:        "bx-website",
			Name:        "BlueXPRT Website",
			Description: "BlueXPRT Website",
			TargetPath:  "https://www.blue-expert.com",
		},
		{
			Slug:        "notion",
			Name:        "Notion",
			Description: "Notion",
			TargetPath:  "https://www.notion.so",
		},
	}
}

// Seed 表为空时写入默认工具，否则不做任何写入
// 判断与写入在同一事务内完成
func (s *Service) Seed(ctx context.Context) (SeedResult, error) {
	var result SeedResult

	err := s.store.Transaction(ctx, func(tx repository.ToolStore) error {
		exists, err := tx.Exists(ctx)
		if err != nil {
			return fmt.Errorf("failed to check existing tools: %w", err)
		}
		if exists {
			return nil
		}

		defaults := DefaultTools()
		if err := tx.CreateBatch(ctx, defaults); err != nil {
			return fmt.Errorf("failed to insert default tools: %w", err)
		}
		result = SeedResult{Seeded: true, Inserted: len(defaults)}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}

	if result.Seeded {
		s.log.Info("database was empty, default tools added", zap.Int("inserted", result.Inserted))
	} else {
		s.log.Info("database already populated, seeding skipped")
	}
	return result, nil
}
