package handler

import (
	"fmt"
	"net/http"

	"contapos/internal/middleware"
	"contapos/internal/service"
	"contapos/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type CancelRequest struct {
	Reason string `json:"reason" binding:"required,max=255"`
}

type EmailRequest struct {
	To string `json:"to" binding:"omitempty,email"`
}

type SaleHandler struct {
	saleService service.SaleService
	posService  service.POSService
}

func NewSaleHandler(saleService service.SaleService, posService service.POSService) *SaleHandler {
	return &SaleHandler{saleService: saleService, posService: posService}
}

func (h *SaleHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := middleware.RequirePermission("sales.read")

	sales := router.Group("/sales")
	{
		sales.GET("", read, h.ListSales)
		sales.GET("/:id", read, h.GetSale)
		sales.POST("", middleware.RequirePermission("sales.write"), h.CreateSale)
		sales.POST("/:id/cancel", middleware.RequirePermission("sales.cancel"), h.CancelSale)
		sales.GET("/:id/invoice", read, h.InvoiceHTML)
		sales.GET("/:id/invoice.pdf", read, h.InvoicePDF)
		sales.POST("/:id/email", read, h.EmailInvoice)
	}

	pos := router.Group("/pos")
	pos.Use(middleware.RequirePermission("pos.use"))
	{
		pos.GET("/lookup", h.LookupProduct)
		pos.POST("/checkout", h.Checkout)
		pos.GET("/summary", h.TodaySummary)
	}
}

// ListSales
// @Summary      List sales
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        page         query     int     false  "Page number"
// @Param        limit        query     int     false  "Page size"
// @Param        from         query     string  false  "YYYY-MM-DD"
// @Param        to           query     string  false  "YYYY-MM-DD"
// @Param        customer_id  query     string  false  "Customer"
// @Param        status       query     string  false  "COMPLETED or CANCELLED"
// @Param        type         query     string  false  "SALE or POS"
// @Param        search       query     string  false  "Invoice number"
// @Success      200          {object}  response.Response{data=response.PagedData}
// @Router       /sales [get]
func (h *SaleHandler) ListSales(c *gin.Context) {
	p := pagination.Parse(c)
	params := service.SaleListParams{
		From:       c.Query("from"),
		To:         c.Query("to"),
		CustomerID: c.Query("customer_id"),
		Status:     c.Query("status"),
		Type:       c.Query("type"),
		Search:     c.Query("search"),
	}
	sales, total, err := h.saleService.ListSales(c.Request.Context(), p.Page, p.Limit, params)
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, p, sales, total)
}

// GetSale
// @Summary      Get sale with its lines
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Sale ID"
// @Success      200  {object}  response.Response{data=model.Sale}
// @Failure      404  {object}  response.Response
// @Router       /sales/{id} [get]
func (h *SaleHandler) GetSale(c *gin.Context) {
	sale, err := h.saleService.GetSale(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, sale)
}

// CreateSale records an invoice sale and takes the units out of stock
// @Summary      Create sale
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SaleRequest  true  "Sale"
// @Success      201      {object}  response.Response{data=model.Sale}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /sales [post]
func (h *SaleHandler) CreateSale(c *gin.Context) {
	var req service.SaleRequest
	if !bindJSON(c, &req) {
		return
	}
	sale, err := h.saleService.CreateSale(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	created(c, sale)
}

// CancelSale returns the units to stock
// @Summary      Cancel sale
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string         true  "Sale ID"
// @Param        payload  body      CancelRequest  true  "Reason"
// @Success      200      {object}  response.Response{data=model.Sale}
// @Failure      422      {object}  response.Response
// @Router       /sales/{id}/cancel [post]
func (h *SaleHandler) CancelSale(c *gin.Context) {
	var req CancelRequest
	if !bindJSON(c, &req) {
		return
	}
	sale, err := h.saleService.CancelSale(c.Request.Context(), c.GetString("userID"), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, sale)
}

// InvoiceHTML renders the printable invoice
// @Summary      Invoice as HTML
// @Tags         sales
// @Security     BearerAuth
// @Produce      html
// @Param        id   path  string  true  "Sale ID"
// @Success      200  {string}  string
// @Router       /sales/{id}/invoice [get]
func (h *SaleHandler) InvoiceHTML(c *gin.Context) {
	page, err := h.saleService.SaleInvoiceHTML(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

// InvoicePDF renders the invoice as PDF, or HTML when no browser is available
// @Summary      Invoice as PDF
// @Tags         sales
// @Security     BearerAuth
// @Produce      application/pdf
// @Param        id   path  string  true  "Sale ID"
// @Success      200  {file}  file
// @Router       /sales/{id}/invoice.pdf [get]
func (h *SaleHandler) InvoicePDF(c *gin.Context) {
	doc, err := h.saleService.SaleInvoicePDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}

// EmailInvoice sends the invoice to the given address or the customer's email
// @Summary      Email invoice
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string        true  "Sale ID"
// @Param        payload  body      EmailRequest  true  "Recipient"
// @Success      200      {object}  response.Response
// @Router       /sales/{id}/email [post]
func (h *SaleHandler) EmailInvoice(c *gin.Context) {
	var req EmailRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.saleService.EmailSaleInvoice(c.Request.Context(), c.GetString("userID"), c.Param("id"), req.To); err != nil {
		respondError(c, err)
		return
	}
	ok(c, "Invoice sent")
}

// LookupProduct resolves a scanned code for the POS screen
// @Summary      POS product lookup
// @Tags         pos
// @Security     BearerAuth
// @Produce      json
// @Param        code  query     string  true  "Barcode, SKU or name"
// @Success      200   {object}  response.Response{data=service.POSLookupResult}
// @Failure      404   {object}  response.Response
// @Router       /pos/lookup [get]
func (h *SaleHandler) LookupProduct(c *gin.Context) {
	res, err := h.posService.LookupProduct(c.Request.Context(), c.GetString("userID"), c.Query("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, res)
}

// Checkout
// @Summary      POS checkout
// @Tags         pos
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SaleRequest  true  "Ticket"
// @Success      201      {object}  response.Response{data=model.Sale}
// @Failure      422      {object}  response.Response
// @Router       /pos/checkout [post]
func (h *SaleHandler) Checkout(c *gin.Context) {
	var req service.SaleRequest
	if !bindJSON(c, &req) {
		return
	}
	sale, err := h.posService.Checkout(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	created(c, sale)
}

// TodaySummary
// @Summary      Cashier's POS totals for today
// @Tags         pos
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.POSSummary}
// @Router       /pos/summary [get]
func (h *SaleHandler) TodaySummary(c *gin.Context) {
	summary, err := h.posService.TodaySummary(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, summary)
}
