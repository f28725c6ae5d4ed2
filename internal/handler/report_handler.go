package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"contapos/internal/middleware"
	"contapos/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	dashboardService service.DashboardService
	reportService    service.ReportService
}

func NewReportHandler(dashboardService service.DashboardService, reportService service.ReportService) *ReportHandler {
	return &ReportHandler{dashboardService: dashboardService, reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	dashboard := router.Group("/dashboard")
	dashboard.Use(middleware.RequirePermission("dashboard.read"))
	{
		dashboard.GET("/stats", h.Stats)
		dashboard.GET("/low-stock", h.LowStock)
		dashboard.GET("/top-products", h.DashboardTopProducts)
		dashboard.GET("/recent-sales", h.RecentSales)
	}

	reports := router.Group("/reports")
	reports.Use(middleware.RequirePermission("reports.read"))
	{
		reports.GET("/sales", h.SalesSummary)
		reports.GET("/top-products", h.TopProducts)
		reports.GET("/inventory", h.InventoryValuation)
		reports.GET("/customers", h.CustomerReport)
		reports.GET("/profit", h.ProfitReport)
		reports.GET("/export/inventory.csv", h.ExportInventory)
		reports.GET("/export/sales.csv", h.ExportSales)
	}
}

func queryInt(c *gin.Context, key string) int {
	n, _ := strconv.Atoi(c.Query(key))
	return n
}

// Stats
// @Summary      Dashboard counters
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.DashboardStats}
// @Router       /dashboard/stats [get]
func (h *ReportHandler) Stats(c *gin.Context) {
	stats, err := h.dashboardService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, stats)
}

// LowStock
// @Summary      Rows at or below minimum stock
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Param        limit  query     int  false  "Max rows"
// @Success      200    {object}  response.Response{data=[]model.Inventory}
// @Router       /dashboard/low-stock [get]
func (h *ReportHandler) LowStock(c *gin.Context) {
	rows, err := h.dashboardService.LowStock(c.Request.Context(), queryInt(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, rows)
}

// DashboardTopProducts
// @Summary      Best sellers of the last days
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Param        limit  query     int  false  "Max products"
// @Param        days   query     int  false  "Window in days (default 30)"
// @Success      200    {object}  response.Response{data=[]model.ProductRanking}
// @Router       /dashboard/top-products [get]
func (h *ReportHandler) DashboardTopProducts(c *gin.Context) {
	rows, err := h.dashboardService.TopProducts(c.Request.Context(), queryInt(c, "limit"), queryInt(c, "days"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, rows)
}

// RecentSales
// @Summary      Latest completed sales
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Param        limit  query     int  false  "Max sales"
// @Success      200    {object}  response.Response{data=[]model.Sale}
// @Router       /dashboard/recent-sales [get]
func (h *ReportHandler) RecentSales(c *gin.Context) {
	sales, err := h.dashboardService.RecentSales(c.Request.Context(), queryInt(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, sales)
}

// SalesSummary
// @Summary      Sales totals with daily series
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        from  query     string  false  "YYYY-MM-DD, default first day of month"
// @Param        to    query     string  false  "YYYY-MM-DD, default today"
// @Success      200   {object}  response.Response{data=model.SalesSummary}
// @Router       /reports/sales [get]
func (h *ReportHandler) SalesSummary(c *gin.Context) {
	summary, err := h.reportService.SalesSummary(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, summary)
}

// TopProducts
// @Summary      Best sellers of a date range
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        from   query     string  false  "YYYY-MM-DD"
// @Param        to     query     string  false  "YYYY-MM-DD"
// @Param        limit  query     int     false  "Max products"
// @Success      200    {object}  response.Response{data=[]model.ProductRanking}
// @Router       /reports/top-products [get]
func (h *ReportHandler) TopProducts(c *gin.Context) {
	rows, err := h.reportService.TopProducts(c.Request.Context(), c.Query("from"), c.Query("to"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, rows)
}

// InventoryValuation
// @Summary      Stock valued at cost and sale price
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        warehouse_id  query     string  false  "Warehouse"
// @Success      200           {object}  response.Response{data=model.InventoryValuation}
// @Router       /reports/inventory [get]
func (h *ReportHandler) InventoryValuation(c *gin.Context) {
	v, err := h.reportService.InventoryValuation(c.Request.Context(), c.Query("warehouse_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, v)
}

// CustomerReport
// @Summary      Purchases per customer
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        from  query     string  false  "YYYY-MM-DD"
// @Param        to    query     string  false  "YYYY-MM-DD"
// @Success      200   {object}  response.Response{data=[]model.CustomerReportRow}
// @Router       /reports/customers [get]
func (h *ReportHandler) CustomerReport(c *gin.Context) {
	rows, err := h.reportService.CustomerReport(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, rows)
}

// ProfitReport
// @Summary      Gross profit and margin
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        from  query     string  false  "YYYY-MM-DD"
// @Param        to    query     string  false  "YYYY-MM-DD"
// @Success      200   {object}  response.Response{data=model.ProfitReport}
// @Router       /reports/profit [get]
func (h *ReportHandler) ProfitReport(c *gin.Context) {
	report, err := h.reportService.ProfitReport(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, report)
}

func sendCSV(c *gin.Context, prefix string, data []byte) {
	name := fmt.Sprintf("%s_%s.csv", prefix, time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// ExportInventory
// @Summary      Inventory valuation as CSV
// @Tags         reports
// @Security     BearerAuth
// @Produce      text/csv
// @Param        warehouse_id  query  string  false  "Warehouse"
// @Success      200           {file}  file
// @Router       /reports/export/inventory.csv [get]
func (h *ReportHandler) ExportInventory(c *gin.Context) {
	data, err := h.reportService.ExportInventoryCSV(c.Request.Context(), c.Query("warehouse_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	sendCSV(c, "inventario", data)
}

// ExportSales
// @Summary      Sales of a date range as CSV
// @Tags         reports
// @Security     BearerAuth
// @Produce      text/csv
// @Param        from  query  string  false  "YYYY-MM-DD"
// @Param        to    query  string  false  "YYYY-MM-DD"
// @Success      200   {file}  file
// @Router       /reports/export/sales.csv [get]
func (h *ReportHandler) ExportSales(c *gin.Context) {
	data, err := h.reportService.ExportSalesCSV(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		respondError(c, err)
		return
	}
	sendCSV(c, "ventas", data)
}
