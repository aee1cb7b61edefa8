package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ashwinyue/tool-portal/internal/model"
	"github.com/ashwinyue/tool-portal/internal/service"
)

// ToolResponse 工具对外响应结构，与存储模型分离
type ToolResponse struct {
	ID          uint   `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TargetPath  string `json:"target_path"`
}

// NewToolResponse 由存储模型转换
func NewToolResponse(t *model.Tool) ToolResponse {
	return ToolResponse{
		ID:          t.ID,
		Slug:        t.Slug,
		Name:        t.Name,
		Description: t.Description,
		TargetPath:  t.TargetPath,
	}
}

// ToolHandler 工具处理器
type ToolHandler struct {
	svc *service.Services
}

// NewToolHandler 创建工具处理器
func NewToolHandler(svc *service.Services) *ToolHandler {
	return &ToolHandler{svc: svc}
}

// ListTools 列出全部工具
// GET /api/tools
func (h *ToolHandler) ListTools(c *gin.Context) {
	tools, err := h.svc.Tool.List(c.Request.Context())
	if err != nil {
		h.svc.Logger.Error("failed to list tools", zap.Error(err))
		_ = c.Error(err)
		InternalServerError(c, "failed to list tools")
		return
	}

	resp := make([]ToolResponse, 0, len(tools))
	for _, t := range tools {
		resp = append(resp, NewToolResponse(t))
	}
	c.JSON(http.StatusOK, resp)
}
