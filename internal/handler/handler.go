package handler

import (
	"github.com/ashwinyue/tool-portal/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	System *SystemHandler
	Tool   *ToolHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		System: NewSystemHandler(svc),
		Tool:   NewToolHandler(svc),
	}
}
