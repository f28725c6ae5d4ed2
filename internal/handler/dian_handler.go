package handler

import (
	"contapos/internal/middleware"
	"contapos/internal/service"
	"contapos/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type DianHandler struct {
	dianService service.DianService
}

func NewDianHandler(dianService service.DianService) *DianHandler {
	return &DianHandler{dianService: dianService}
}

func (h *DianHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := middleware.RequirePermission("dian.read")
	write := middleware.RequirePermission("dian.write")

	dian := router.Group("/dian")
	{
		dian.GET("/config", read, h.GetConfiguration)
		dian.PUT("/config", write, h.UpdateConfiguration)
		dian.POST("/initialize", write, h.InitializeData)

		dian.GET("/providers", read, h.ListProviders)
		dian.POST("/providers", write, h.CreateProvider)
		dian.PUT("/providers/:id", write, h.UpdateProvider)
		dian.DELETE("/providers/:id", write, h.DeleteProvider)
		dian.POST("/providers/:id/test", write, h.TestProvider)

		dian.GET("/invoice-types", read, h.ListInvoiceTypes)
		dian.GET("/taxes", read, h.ListTaxes)

		dian.GET("/resolutions", read, h.ListResolutions)
		dian.POST("/resolutions", write, h.CreateResolution)
		dian.PUT("/resolutions/:id", write, h.UpdateResolution)
		dian.DELETE("/resolutions/:id", write, h.DeleteResolution)

		dian.GET("/invoices", read, h.ListInvoices)
		dian.GET("/invoices/:id", read, h.GetInvoice)
		dian.POST("/sales/:id/send", write, h.SendInvoice)
	}
}

// GetConfiguration
// @Summary      DIAN configuration
// @Tags         dian
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.DianConfiguration}
// @Router       /dian/config [get]
func (h *DianHandler) GetConfiguration(c *gin.Context) {
	cfg, err := h.dianService.GetConfiguration(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, cfg)
}

// UpdateConfiguration computes the NIT check digit; blank secrets keep their stored value
// @Summary      Update DIAN configuration
// @Tags         dian
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.DianConfigRequest  true  "Configuration"
// @Success      200      {object}  response.Response{data=model.DianConfiguration}
// @Router       /dian/config [put]
func (h *DianHandler) UpdateConfiguration(c *gin.Context) {
	var req service.DianConfigRequest
	if !bindJSON(c, &req) {
		return
	}
	cfg, err := h.dianService.UpdateConfiguration(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, cfg)
}

// InitializeData seeds the invoice types and taxes that are missing
// @Summary      Initialize DIAN catalogs
// @Tags         dian
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /dian/initialize [post]
func (h *DianHandler) InitializeData(c *gin.Context) {
	if err := h.dianService.InitializeData(c.Request.Context(), c.GetString("userID")); err != nil {
		respondError(c, err)
		return
	}
	ok(c, "DIAN data initialized")
}

// ListProviders
// @Summary      Technology providers
// @Tags         dian
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.TaxProvider}
// @Router       /dian/providers [get]
func (h *DianHandler) ListProviders(c *gin.Context) {
	list, err := h.dianService.ListProviders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, list)
}

// CreateProvider
// @Summary      Create provider
// @Tags         dian
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.TaxProviderRequest  true  "Provider"
// @Success      201      {object}  response.Response{data=model.TaxProvider}
// @Router       /dian/providers [post]
func (h *DianHandler) CreateProvider(c *gin.Context) {
	var req service.TaxProviderRequest
	if !bindJSON(c, &req) {
		return
	}
	provider, err := h.dianService.CreateProvider(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	created(c, provider)
}

// UpdateProvider
// @Summary      Update provider
// @Tags         dian
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Provider ID"
// @Param        payload  body      service.TaxProviderRequest  true  "Provider"
// @Success      200      {object}  response.Response{data=model.TaxProvider}
// @Router       /dian/providers/{id} [put]
func (h *DianHandler) UpdateProvider(c *gin.Context) {
	var req service.TaxProviderRequest
	if !bindJSON(c, &req) {
		return
	}
	provider, err := h.dianService.UpdateProvider(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, provider)
}

// DeleteProvider
// @Summary      Delete provider
// @Tags         dian
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Provider ID"
// @Success      200  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /dian/providers/{id} [delete]
func (h *DianHandler) DeleteProvider(c *gin.Context) {
	if err := h.dianService.DeleteProvider(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	ok(c, "Provider deleted")
}

// TestProvider
// @Summary      Check provider endpoint and credentials
// @Tags         dian
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Provider ID"
// @Success      200  {object}  response.Response{data=service.ProviderTestResult}
// @Router       /dian/providers/{id}/test [post]
func (h *DianHandler) TestProvider(c *gin.Context) {
	res, err := h.dianService.TestProvider(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, res)
}

// ListInvoiceTypes
// @Summary      DIAN document types
// @Tags         dian
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.InvoiceType}
// @Router       /dian/invoice-types [get]
func (h *DianHandler) ListInvoiceTypes(c *gin.Context) {
	list, err := h.dianService.ListInvoiceTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, list)
}

// ListTaxes
// @Summary      Taxes and withholdings
// @Tags         dian
// @Security     BearerAuth
// @Produce      json
// @Param        type  query     string  false  "IVA, RETEIVA, RETEFUENTE or RETEICA"
// @Success      200   {object}  response.Response{data=[]model.Tax}
// @Router       /dian/taxes [get]
func (h *DianHandler) ListTaxes(c *gin.Context) {
	list, err := h.dianService.ListTaxes(c.Request.Context(), c.Query("type"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, list)
}

// ListResolutions
// @Summary      Numbering resolutions with remaining numbers
// @Tags         dian
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.ResolutionView}
// @Router       /dian/resolutions [get]
func (h *DianHandler) ListResolutions(c *gin.Context) {
	list, err := h.dianService.ListResolutions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, list)
}

// CreateResolution
// @Summary      Register resolution
// @Tags         dian
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ResolutionRequest  true  "Resolution"
// @Success      201      {object}  response.Response{data=service.ResolutionView}
// @Router       /dian/resolutions [post]
func (h *DianHandler) CreateResolution(c *gin.Context) {
	var req service.ResolutionRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.dianService.CreateResolution(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	created(c, res)
}

// UpdateResolution
// @Summary      Update resolution
// @Tags         dian
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Resolution ID"
// @Param        payload  body      service.ResolutionRequest  true  "Resolution"
// @Success      200      {object}  response.Response{data=service.ResolutionView}
// @Router       /dian/resolutions/{id} [put]
func (h *DianHandler) UpdateResolution(c *gin.Context) {
	var req service.ResolutionRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.dianService.UpdateResolution(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, res)
}

// DeleteResolution
// @Summary      Delete unused resolution
// @Tags         dian
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Resolution ID"
// @Success      200  {object}  response.Response
// @Router       /dian/resolutions/{id} [delete]
func (h *DianHandler) DeleteResolution(c *gin.Context) {
	if err := h.dianService.DeleteResolution(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	ok(c, "Resolution deleted")
}

// ListInvoices
// @Summary      Electronic invoices
// @Tags         dian
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size"
// @Param        status  query     string  false  "PENDING, SENT, ACCEPTED or REJECTED"
// @Success      200     {object}  response.Response{data=response.PagedData}
// @Router       /dian/invoices [get]
func (h *DianHandler) ListInvoices(c *gin.Context) {
	p := pagination.Parse(c)
	list, total, err := h.dianService.ListElectronicInvoices(c.Request.Context(), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, p, list, total)
}

// GetInvoice
// @Summary      Electronic invoice
// @Tags         dian
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Electronic invoice ID"
// @Success      200  {object}  response.Response{data=model.ElectronicInvoice}
// @Router       /dian/invoices/{id} [get]
func (h *DianHandler) GetInvoice(c *gin.Context) {
	inv, err := h.dianService.GetElectronicInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, inv)
}

// SendInvoice numbers a sale from the active resolution and submits it
// @Summary      Send sale to DIAN
// @Tags         dian
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Sale ID"
// @Success      200  {object}  response.Response{data=model.ElectronicInvoice}
// @Failure      409  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /dian/sales/{id}/send [post]
func (h *DianHandler) SendInvoice(c *gin.Context) {
	inv, err := h.dianService.SendInvoice(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, inv)
}
