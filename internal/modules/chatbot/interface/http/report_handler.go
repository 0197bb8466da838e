package http

import (
	"time"

	"alphabot/internal/modules/report"
	"alphabot/pkg/back"
	"alphabot/pkg/xerr"

	"github.com/gin-gonic/gin"
)

// ReportHandler 报表参数校验接口, 客户端拿到路由描述后可先行确认参数合法
type ReportHandler struct {
	registry *report.Registry
}

func NewReportHandler(registry *report.Registry) *ReportHandler {
	return &ReportHandler{registry: registry}
}

type reportRequest struct {
	ReportType string `json:"report_type" binding:"required"`
	FromDate   string `json:"from_date" binding:"required"`
	ToDate     string `json:"to_date" binding:"required"`
	Product    string `json:"product"`
	Sport      string `json:"sport"`
	BetType    string `json:"bettype"`
}

// Validate POST /report
func (h *ReportHandler) Validate(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		back.Result(c, nil, xerr.ErrParam)
		return
	}

	def, ok := h.registry.Get(req.ReportType)
	if !ok {
		back.Result(c, nil, xerr.New(xerr.BadRequest, "unknown report type: "+req.ReportType))
		return
	}

	for _, d := range []string{req.FromDate, req.ToDate} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			back.Result(c, nil, xerr.New(xerr.BadRequest, "invalid date "+d+", expected YYYY-MM-DD"))
			return
		}
	}
	if req.FromDate > req.ToDate {
		back.Result(c, nil, xerr.New(xerr.BadRequest, "from_date must not be after to_date"))
		return
	}

	params := map[string]string{
		"report_type": def.Name,
		"from_date":   req.FromDate,
		"to_date":     req.ToDate,
		"product":     orAll(req.Product),
		"sport":       orAll(req.Sport),
		"bettype":     orAll(req.BetType),
	}
	back.Success(c, gin.H{"endpoint": def.Endpoint, "params": params})
}

func orAll(v string) string {
	if v == "" {
		return "All"
	}
	return v
}
