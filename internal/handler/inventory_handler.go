package handler

import (
	"contapos/internal/middleware"
	"contapos/internal/service"
	"contapos/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	inventoryService service.InventoryService
}

func NewInventoryHandler(inventoryService service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := middleware.RequirePermission("inventory.read")
	write := middleware.RequirePermission("inventory.write")

	products := router.Group("/products")
	{
		products.GET("", read, h.ListProducts)
		products.GET("/search", read, h.SearchProducts)
		products.GET("/:id", read, h.GetProduct)
		products.POST("", write, h.CreateProduct)
		products.PUT("/:id", write, h.UpdateProduct)
		products.DELETE("/:id", write, h.DeleteProduct)
		products.GET("/:id/movements", read, h.ListMovements)
		products.GET("/:id/serials", read, h.ListSerials)
	}

	inventory := router.Group("/inventory")
	{
		inventory.GET("", read, h.StockLevels)
		inventory.PUT("/limits", write, h.SetStockLimits)
		inventory.POST("/adjust", write, h.AdjustStock)
		inventory.POST("/transfer", write, h.TransferStock)
		inventory.POST("/serials", write, h.RegisterSerials)
	}
}

// ListProducts
// @Summary      List products
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        page         query     int     false  "Page number"
// @Param        limit        query     int     false  "Page size"
// @Param        search       query     string  false  "SKU, barcode or name"
// @Param        category_id  query     string  false  "Category"
// @Param        brand_id     query     string  false  "Brand"
// @Param        active       query     bool    false  "Only active products"
// @Success      200          {object}  response.Response{data=response.PagedData}
// @Router       /products [get]
func (h *InventoryHandler) ListProducts(c *gin.Context) {
	p := pagination.Parse(c)
	params := service.ProductListParams{
		Search:     c.Query("search"),
		CategoryID: c.Query("category_id"),
		BrandID:    c.Query("brand_id"),
		ActiveOnly: c.Query("active") == "true",
	}
	products, total, err := h.inventoryService.ListProducts(c.Request.Context(), p.Page, p.Limit, params)
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, p, products, total)
}

// SearchProducts is the cached quick search used by sale forms
// @Summary      Search products
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        q    query     string  true  "Search text"
// @Success      200  {object}  response.Response{data=[]model.Product}
// @Router       /products/search [get]
func (h *InventoryHandler) SearchProducts(c *gin.Context) {
	products, err := h.inventoryService.SearchProducts(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, products)
}

// GetProduct returns the product with its stock per warehouse
// @Summary      Get product
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=service.ProductResponse}
// @Failure      404  {object}  response.Response
// @Router       /products/{id} [get]
func (h *InventoryHandler) GetProduct(c *gin.Context) {
	product, err := h.inventoryService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, product)
}

// CreateProduct
// @Summary      Create product
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ProductRequest  true  "Product"
// @Success      201      {object}  response.Response{data=service.ProductResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /products [post]
func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var req service.ProductRequest
	if !bindJSON(c, &req) {
		return
	}
	product, err := h.inventoryService.CreateProduct(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	created(c, product)
}

// UpdateProduct
// @Summary      Update product
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Product ID"
// @Param        payload  body      service.ProductRequest  true  "Product"
// @Success      200      {object}  response.Response{data=service.ProductResponse}
// @Router       /products/{id} [put]
func (h *InventoryHandler) UpdateProduct(c *gin.Context) {
	var req service.ProductRequest
	if !bindJSON(c, &req) {
		return
	}
	product, err := h.inventoryService.UpdateProduct(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, product)
}

// DeleteProduct deactivates the product
// @Summary      Delete product
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Router       /products/{id} [delete]
func (h *InventoryHandler) DeleteProduct(c *gin.Context) {
	if err := h.inventoryService.DeleteProduct(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	ok(c, "Product deleted successfully")
}

// ListMovements
// @Summary      Stock movements of a product
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true   "Product ID"
// @Param        page   query     int     false  "Page number"
// @Param        limit  query     int     false  "Page size"
// @Success      200    {object}  response.Response{data=response.PagedData}
// @Router       /products/{id}/movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	p := pagination.Parse(c)
	movements, total, err := h.inventoryService.ListMovements(c.Request.Context(), c.Param("id"), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, p, movements, total)
}

// ListSerials
// @Summary      Serial numbers of a product
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id      path      string  true   "Product ID"
// @Param        status  query     string  false  "AVAILABLE or SOLD"
// @Success      200     {object}  response.Response{data=[]model.SerialNumber}
// @Router       /products/{id}/serials [get]
func (h *InventoryHandler) ListSerials(c *gin.Context) {
	serials, err := h.inventoryService.ListSerials(c.Request.Context(), c.Param("id"), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, serials)
}

// StockLevels
// @Summary      Stock per product and warehouse
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        page          query     int     false  "Page number"
// @Param        limit         query     int     false  "Page size"
// @Param        warehouse_id  query     string  false  "Warehouse"
// @Param        product_id    query     string  false  "Product"
// @Param        search        query     string  false  "SKU or name"
// @Param        low_stock     query     bool    false  "Only rows at or below minimum"
// @Success      200           {object}  response.Response{data=response.PagedData}
// @Router       /inventory [get]
func (h *InventoryHandler) StockLevels(c *gin.Context) {
	p := pagination.Parse(c)
	params := service.StockListParams{
		WarehouseID:  c.Query("warehouse_id"),
		ProductID:    c.Query("product_id"),
		Search:       c.Query("search"),
		LowStockOnly: c.Query("low_stock") == "true",
	}
	rows, total, err := h.inventoryService.StockLevels(c.Request.Context(), p.Page, p.Limit, params)
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, p, rows, total)
}

// SetStockLimits
// @Summary      Set minimum and maximum stock
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.StockLimitsRequest  true  "Limits"
// @Success      200      {object}  response.Response{data=model.Inventory}
// @Router       /inventory/limits [put]
func (h *InventoryHandler) SetStockLimits(c *gin.Context) {
	var req service.StockLimitsRequest
	if !bindJSON(c, &req) {
		return
	}
	inv, err := h.inventoryService.SetStockLimits(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, inv)
}

// AdjustStock sets the counted quantity of a product in a warehouse
// @Summary      Adjust stock
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AdjustStockRequest  true  "Adjustment"
// @Success      200      {object}  response.Response{data=model.Inventory}
// @Router       /inventory/adjust [post]
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	var req service.AdjustStockRequest
	if !bindJSON(c, &req) {
		return
	}
	inv, err := h.inventoryService.AdjustStock(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, inv)
}

// TransferStock
// @Summary      Move stock between warehouses
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.TransferStockRequest  true  "Transfer"
// @Success      200      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /inventory/transfer [post]
func (h *InventoryHandler) TransferStock(c *gin.Context) {
	var req service.TransferStockRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.inventoryService.TransferStock(c.Request.Context(), c.GetString("userID"), req); err != nil {
		respondError(c, err)
		return
	}
	ok(c, "Transfer completed")
}

// RegisterSerials
// @Summary      Register serial numbers
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterSerialsRequest  true  "Serials"
// @Success      201      {object}  response.Response{data=[]model.SerialNumber}
// @Router       /inventory/serials [post]
func (h *InventoryHandler) RegisterSerials(c *gin.Context) {
	var req service.RegisterSerialsRequest
	if !bindJSON(c, &req) {
		return
	}
	serials, err := h.inventoryService.RegisterSerials(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	created(c, serials)
}
