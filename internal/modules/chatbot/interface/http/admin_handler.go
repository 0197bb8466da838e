package http

import (
	"alphabot/internal/modules/chatbot/application/dto/request"
	"alphabot/internal/modules/chatbot/application/service"
	"alphabot/pkg/back"
	"alphabot/pkg/xerr"

	"github.com/gin-gonic/gin"
)

// AdminHandler 知识库管理接口
type AdminHandler struct {
	ingestService service.IngestService
	asyncIngest   service.AsyncIngestService // kafka 未启用时为空
}

func NewAdminHandler(ingestService service.IngestService, asyncIngest service.AsyncIngestService) *AdminHandler {
	return &AdminHandler{ingestService: ingestService, asyncIngest: asyncIngest}
}

// IngestDocument POST /admin/documents
func (h *AdminHandler) IngestDocument(c *gin.Context) {
	var req request.IngestDocRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		back.Result(c, nil, xerr.ErrParam)
		return
	}

	data, err := h.ingestService.Ingest(c.Request.Context(), &req)
	back.Result(c, data, err)
}

// IngestDocumentAsync POST /admin/documents/async
func (h *AdminHandler) IngestDocumentAsync(c *gin.Context) {
	if h.asyncIngest == nil {
		back.Result(c, nil, xerr.New(xerr.BadRequest, "async ingest is not enabled"))
		return
	}

	var req request.IngestDocRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		back.Result(c, nil, xerr.ErrParam)
		return
	}

	data, err := h.asyncIngest.Submit(c.Request.Context(), &req)
	back.Result(c, data, err)
}

// ListDocuments GET /admin/documents
func (h *AdminHandler) ListDocuments(c *gin.Context) {
	var req request.ListDocsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		back.Result(c, nil, xerr.ErrParam)
		return
	}

	data, err := h.ingestService.ListDocuments(c.Request.Context(), req.Page, req.PageSize)
	back.Result(c, data, err)
}

// DeleteDocument DELETE /admin/documents/:docId
func (h *AdminHandler) DeleteDocument(c *gin.Context) {
	err := h.ingestService.DeleteDocument(c.Request.Context(), c.Param("docId"))
	back.Result(c, nil, err)
}
