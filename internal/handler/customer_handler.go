package handler

import (
	"contapos/internal/middleware"
	"contapos/internal/service"
	"contapos/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type CustomerHandler struct {
	customerService service.CustomerService
}

func NewCustomerHandler(customerService service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

func (h *CustomerHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := middleware.RequirePermission("customers.read")
	write := middleware.RequirePermission("customers.write")

	customers := router.Group("/customers")
	{
		customers.GET("", read, h.ListCustomers)
		customers.GET("/search", read, h.SearchCustomers)
		customers.GET("/:id", read, h.GetCustomer)
		customers.POST("", write, h.CreateCustomer)
		customers.PUT("/:id", write, h.UpdateCustomer)
		customers.PATCH("/:id/toggle", write, h.ToggleCustomerStatus)
		customers.DELETE("/:id", write, h.DeleteCustomer)
	}

	geo := router.Group("/geo", middleware.RequireAuth())
	{
		geo.GET("/departments", h.ListDepartments)
		geo.GET("/cities", h.ListCities)
	}
}

// ListCustomers
// @Summary      List parties
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number"
// @Param        limit   query     int     false  "Page size"
// @Param        type    query     string  false  "client, supplier, employee or other"
// @Param        search  query     string  false  "Name, document or email"
// @Success      200     {object}  response.Response{data=response.PagedData}
// @Router       /customers [get]
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	p := pagination.Parse(c)
	list, total, err := h.customerService.ListCustomers(c.Request.Context(), c.Query("type"), c.Query("search"), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, p, list, total)
}

// SearchCustomers
// @Summary      Quick party search
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        q     query     string  true   "Search text"
// @Param        type  query     string  false  "Party type"
// @Success      200   {object}  response.Response{data=[]model.Customer}
// @Router       /customers/search [get]
func (h *CustomerHandler) SearchCustomers(c *gin.Context) {
	list, err := h.customerService.SearchCustomers(c.Request.Context(), c.Query("type"), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, list)
}

// GetCustomer
// @Summary      Get party
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  response.Response{data=model.Customer}
// @Failure      404  {object}  response.Response
// @Router       /customers/{id} [get]
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	customer, err := h.customerService.GetCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, customer)
}

// CreateCustomer
// @Summary      Create party
// @Tags         customers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CustomerRequest  true  "Party"
// @Success      201      {object}  response.Response{data=model.Customer}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /customers [post]
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req service.CustomerRequest
	if !bindJSON(c, &req) {
		return
	}
	customer, err := h.customerService.CreateCustomer(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	created(c, customer)
}

// UpdateCustomer
// @Summary      Update party
// @Tags         customers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Customer ID"
// @Param        payload  body      service.CustomerRequest  true  "Party"
// @Success      200      {object}  response.Response{data=model.Customer}
// @Router       /customers/{id} [put]
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	var req service.CustomerRequest
	if !bindJSON(c, &req) {
		return
	}
	customer, err := h.customerService.UpdateCustomer(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, customer)
}

// ToggleCustomerStatus
// @Summary      Toggle party status
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  response.Response{data=model.Customer}
// @Router       /customers/{id}/toggle [patch]
func (h *CustomerHandler) ToggleCustomerStatus(c *gin.Context) {
	customer, err := h.customerService.ToggleCustomerStatus(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, customer)
}

// DeleteCustomer removes a party without history, otherwise deactivates it
// @Summary      Delete party
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  response.Response
// @Router       /customers/{id} [delete]
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	if err := h.customerService.DeleteCustomer(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	ok(c, "Customer deleted successfully")
}

// ListDepartments
// @Summary      Colombian departments
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Department}
// @Router       /geo/departments [get]
func (h *CustomerHandler) ListDepartments(c *gin.Context) {
	list, err := h.customerService.ListDepartments(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, list)
}

// ListCities
// @Summary      Cities, optionally of one department
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        department_id  query     string  false  "Department"
// @Success      200            {object}  response.Response{data=[]model.City}
// @Router       /geo/cities [get]
func (h *CustomerHandler) ListCities(c *gin.Context) {
	list, err := h.customerService.ListCities(c.Request.Context(), c.Query("department_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, list)
}
