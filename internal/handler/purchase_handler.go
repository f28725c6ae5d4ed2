package handler

import (
	"contapos/internal/middleware"
	"contapos/internal/service"
	"contapos/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type PurchaseHandler struct {
	purchaseService service.PurchaseService
}

func NewPurchaseHandler(purchaseService service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

func (h *PurchaseHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := middleware.RequirePermission("purchases.read")
	write := middleware.RequirePermission("purchases.write")

	purchases := router.Group("/purchases")
	{
		purchases.GET("", read, h.ListPurchases)
		purchases.GET("/:id", read, h.GetPurchase)
		purchases.POST("", write, h.CreatePurchase)
		purchases.POST("/:id/cancel", write, h.CancelPurchase)
	}
}

// ListPurchases
// @Summary      List purchases
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        page         query     int     false  "Page number"
// @Param        limit        query     int     false  "Page size"
// @Param        from         query     string  false  "YYYY-MM-DD"
// @Param        to           query     string  false  "YYYY-MM-DD"
// @Param        supplier_id  query     string  false  "Supplier"
// @Param        status       query     string  false  "RECEIVED or CANCELLED"
// @Success      200          {object}  response.Response{data=response.PagedData}
// @Router       /purchases [get]
func (h *PurchaseHandler) ListPurchases(c *gin.Context) {
	p := pagination.Parse(c)
	params := service.PurchaseListParams{
		From:       c.Query("from"),
		To:         c.Query("to"),
		SupplierID: c.Query("supplier_id"),
		Status:     c.Query("status"),
	}
	list, total, err := h.purchaseService.ListPurchases(c.Request.Context(), p.Page, p.Limit, params)
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, p, list, total)
}

// GetPurchase
// @Summary      Get purchase
// @Tags         purchases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Purchase ID"
// @Success      200  {object}  response.Response{data=model.Purchase}
// @Router       /purchases/{id} [get]
func (h *PurchaseHandler) GetPurchase(c *gin.Context) {
	purchase, err := h.purchaseService.GetPurchase(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, purchase)
}

// CreatePurchase receives merchandise into a warehouse
// @Summary      Create purchase
// @Tags         purchases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.PurchaseRequest  true  "Purchase"
// @Success      201      {object}  response.Response{data=model.Purchase}
// @Router       /purchases [post]
func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	var req service.PurchaseRequest
	if !bindJSON(c, &req) {
		return
	}
	purchase, err := h.purchaseService.CreatePurchase(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	created(c, purchase)
}

// CancelPurchase
// @Summary      Cancel purchase
// @Tags         purchases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string         true  "Purchase ID"
// @Param        payload  body      CancelRequest  true  "Reason"
// @Success      200      {object}  response.Response{data=model.Purchase}
// @Failure      422      {object}  response.Response
// @Router       /purchases/{id}/cancel [post]
func (h *PurchaseHandler) CancelPurchase(c *gin.Context) {
	var req CancelRequest
	if !bindJSON(c, &req) {
		return
	}
	purchase, err := h.purchaseService.CancelPurchase(c.Request.Context(), c.GetString("userID"), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, purchase)
}
