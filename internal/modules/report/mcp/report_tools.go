package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"alphabot/internal/modules/report"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer 构建报表 MCP 服务, 暴露报表清单与路由描述两个工具
func NewServer(name, version string, registry *report.Registry) *server.MCPServer {
	s := server.NewMCPServer(name, version,
		server.WithToolCapabilities(true),
	)

	listTool := mcp.NewTool("list_reports",
		mcp.WithDescription("List all available report types with their endpoints and required fields"),
	)
	s.AddTool(listTool, listReportsHandler(registry))

	genTool := mcp.NewTool("generate_report",
		mcp.WithDescription("Resolve a report request into an endpoint descriptor with routed parameters"),
		mcp.WithString("report_type",
			mcp.Required(),
			mcp.Description("Report type name, see list_reports"),
		),
		mcp.WithString("from_date",
			mcp.Required(),
			mcp.Description("Start date in YYYY-MM-DD format"),
		),
		mcp.WithString("to_date",
			mcp.Required(),
			mcp.Description("End date in YYYY-MM-DD format"),
		),
		mcp.WithString("product",
			mcp.Description("Product filter, defaults to All"),
		),
		mcp.WithString("sport",
			mcp.Description("Sport filter, defaults to All"),
		),
		mcp.WithString("bettype",
			mcp.Description("Bet type filter, defaults to All"),
		),
	)
	s.AddTool(genTool, generateReportHandler(registry))

	return s
}

func listReportsHandler(registry *report.Registry) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		type item struct {
			Name           string   `json:"name"`
			Endpoint       string   `json:"endpoint"`
			RequiredFields []string `json:"required_fields"`
			MinLevel       int      `json:"min_level"`
		}
		defs := registry.All()
		items := make([]item, len(defs))
		for i, d := range defs {
			items[i] = item{
				Name:           d.Name,
				Endpoint:       d.Endpoint,
				RequiredFields: d.RequiredFields,
				MinLevel:       d.MinLevel,
			}
		}
		b, err := json.Marshal(items)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(b)), nil
	}
}

func generateReportHandler(registry *report.Registry) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, ok := req.Params.Arguments.(map[string]any)
		if !ok {
			return mcp.NewToolResultError("invalid arguments"), nil
		}

		reportType, _ := args["report_type"].(string)
		def, found := registry.Get(reportType)
		if !found {
			return mcp.NewToolResultError(fmt.Sprintf("unknown report type: %s", reportType)), nil
		}

		fromDate, _ := args["from_date"].(string)
		toDate, _ := args["to_date"].(string)
		for _, d := range []string{fromDate, toDate} {
			if _, err := time.Parse("2006-01-02", d); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", d)), nil
			}
		}
		if fromDate > toDate {
			return mcp.NewToolResultError("from_date must not be after to_date"), nil
		}

		params := map[string]string{
			"report_type": def.Name,
			"from_date":   fromDate,
			"to_date":     toDate,
			"product":     stringArg(args, "product", "All"),
			"sport":       stringArg(args, "sport", "All"),
			"bettype":     stringArg(args, "bettype", "All"),
		}

		out, err := json.Marshal(map[string]any{
			"endpoint": def.Endpoint,
			"params":   params,
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}

func stringArg(args map[string]any, key, def string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return def
}
