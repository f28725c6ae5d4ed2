package handler

import (
	"fmt"
	"io"
	"net/http"

	"contapos/internal/middleware"
	"contapos/internal/service"
	"contapos/pkg/response"

	"github.com/gin-gonic/gin"
)

// maxBackupUpload bounds restore uploads
const maxBackupUpload = 64 << 20

type SettingsHandler struct {
	settingsService service.SettingsService
	backupService   service.BackupService
}

func NewSettingsHandler(settingsService service.SettingsService, backupService service.BackupService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService, backupService: backupService}
}

func (h *SettingsHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := middleware.RequirePermission("settings.read")
	write := middleware.RequirePermission("settings.write")

	wh := router.Group("/warehouses")
	{
		wh.GET("", middleware.RequireAuth(), h.ListWarehouses)
		wh.GET("/:id", read, h.GetWarehouse)
		wh.POST("", write, h.CreateWarehouse)
		wh.PUT("/:id", write, h.UpdateWarehouse)
		wh.PATCH("/:id/toggle", write, h.ToggleWarehouse)
	}

	catalog := router.Group("/catalog/:kind")
	{
		catalog.GET("", middleware.RequireAuth(), h.ListCatalog)
		catalog.POST("", write, h.CreateCatalogItem)
		catalog.PUT("/:id", write, h.UpdateCatalogItem)
		catalog.DELETE("/:id", write, h.DeleteCatalogItem)
	}

	settings := router.Group("/settings")
	{
		settings.GET("", read, h.GetSettings)
		settings.GET("/list", read, h.ListSettings)
		settings.PUT("", write, h.UpdateSettings)
	}

	currencies := router.Group("/currencies")
	{
		currencies.GET("", middleware.RequireAuth(), h.ListCurrencies)
		currencies.POST("", write, h.CreateCurrency)
		currencies.PUT("/:id", write, h.UpdateCurrency)
	}

	backups := router.Group("/backups")
	backups.Use(middleware.RequirePermission("backup.write"))
	{
		backups.GET("", h.ListBackups)
		backups.POST("", h.CreateBackup)
		backups.GET("/:name", h.DownloadBackup)
		backups.POST("/:name/restore", h.RestoreBackup)
		backups.POST("/restore", h.RestoreUpload)
	}
}

// --- Warehouses ---

// ListWarehouses
// @Summary      List warehouses
// @Tags         settings
// @Produce      json
// @Security     BearerAuth
// @Param        active  query     bool  false  "Only active warehouses"
// @Success      200     {object}  response.Response{data=[]model.Warehouse}
// @Router       /warehouses [get]
func (h *SettingsHandler) ListWarehouses(c *gin.Context) {
	list, err := h.settingsService.ListWarehouses(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, list)
}

// GetWarehouse
// @Summary      Get warehouse
// @Tags         settings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Warehouse ID"
// @Success      200  {object}  response.Response{data=model.Warehouse}
// @Router       /warehouses/{id} [get]
func (h *SettingsHandler) GetWarehouse(c *gin.Context) {
	wh, err := h.settingsService.GetWarehouse(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, wh)
}

// CreateWarehouse also opens zero-stock rows for every active product
// @Summary      Create warehouse
// @Tags         settings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.WarehouseRequest  true  "Warehouse"
// @Success      201      {object}  response.Response{data=model.Warehouse}
// @Failure      409      {object}  response.Response
// @Router       /warehouses [post]
func (h *SettingsHandler) CreateWarehouse(c *gin.Context) {
	var req service.WarehouseRequest
	if !bindJSON(c, &req) {
		return
	}
	wh, err := h.settingsService.CreateWarehouse(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	created(c, wh)
}

// UpdateWarehouse
// @Summary      Update warehouse
// @Tags         settings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true  "Warehouse ID"
// @Param        payload  body      service.WarehouseRequest  true  "Warehouse"
// @Success      200      {object}  response.Response{data=model.Warehouse}
// @Router       /warehouses/{id} [put]
func (h *SettingsHandler) UpdateWarehouse(c *gin.Context) {
	var req service.WarehouseRequest
	if !bindJSON(c, &req) {
		return
	}
	wh, err := h.settingsService.UpdateWarehouse(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, wh)
}

// ToggleWarehouse
// @Summary      Toggle warehouse status
// @Tags         settings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Warehouse ID"
// @Success      200  {object}  response.Response{data=model.Warehouse}
// @Router       /warehouses/{id}/toggle [patch]
func (h *SettingsHandler) ToggleWarehouse(c *gin.Context) {
	wh, err := h.settingsService.ToggleWarehouse(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, wh)
}

// --- Catalog ---

// ListCatalog lists categories, brands, groups or lines
// @Summary      List catalog items
// @Tags         settings
// @Produce      json
// @Security     BearerAuth
// @Param        kind    path      string  true   "categories, brands, groups or lines"
// @Param        active  query     bool    false  "Only active items"
// @Success      200     {object}  response.Response{data=[]model.CatalogItem}
// @Router       /catalog/{kind} [get]
func (h *SettingsHandler) ListCatalog(c *gin.Context) {
	items, err := h.settingsService.ListCatalog(c.Request.Context(), c.Param("kind"), c.Query("active") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, items)
}

// CreateCatalogItem
// @Summary      Create catalog item
// @Tags         settings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        kind     path      string                      true  "categories, brands, groups or lines"
// @Param        payload  body      service.CatalogItemRequest  true  "Item"
// @Success      201      {object}  response.Response{data=model.CatalogItem}
// @Router       /catalog/{kind} [post]
func (h *SettingsHandler) CreateCatalogItem(c *gin.Context) {
	var req service.CatalogItemRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.settingsService.CreateCatalogItem(c.Request.Context(), c.GetString("userID"), c.Param("kind"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	created(c, item)
}

// UpdateCatalogItem
// @Summary      Update catalog item
// @Tags         settings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        kind     path      string                      true  "categories, brands, groups or lines"
// @Param        id       path      string                      true  "Item ID"
// @Param        payload  body      service.CatalogItemRequest  true  "Item"
// @Success      200      {object}  response.Response{data=model.CatalogItem}
// @Router       /catalog/{kind}/{id} [put]
func (h *SettingsHandler) UpdateCatalogItem(c *gin.Context) {
	var req service.CatalogItemRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.settingsService.UpdateCatalogItem(c.Request.Context(), c.GetString("userID"), c.Param("kind"), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, item)
}

// DeleteCatalogItem deactivates the item
// @Summary      Delete catalog item
// @Tags         settings
// @Produce      json
// @Security     BearerAuth
// @Param        kind  path      string  true  "categories, brands, groups or lines"
// @Param        id    path      string  true  "Item ID"
// @Success      200   {object}  response.Response
// @Router       /catalog/{kind}/{id} [delete]
func (h *SettingsHandler) DeleteCatalogItem(c *gin.Context) {
	if err := h.settingsService.DeleteCatalogItem(c.Request.Context(), c.GetString("userID"), c.Param("kind"), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	ok(c, "Item deleted")
}

// --- Company settings ---

// GetSettings
// @Summary      Company settings as a key-value map
// @Tags         settings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=map[string]string}
// @Router       /settings [get]
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	values, err := h.settingsService.GetSettings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, values)
}

// ListSettings
// @Summary      Setting rows, optionally by category
// @Tags         settings
// @Produce      json
// @Security     BearerAuth
// @Param        category  query     string  false  "Category"
// @Success      200       {object}  response.Response{data=[]model.Setting}
// @Router       /settings/list [get]
func (h *SettingsHandler) ListSettings(c *gin.Context) {
	rows, err := h.settingsService.ListSettings(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, rows)
}

// UpdateSettings
// @Summary      Update company settings
// @Tags         settings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      map[string]string  true  "Key-value pairs"
// @Success      200      {object}  response.Response{data=map[string]string}
// @Router       /settings [put]
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var values map[string]string
	if !bindJSON(c, &values) {
		return
	}
	updated, err := h.settingsService.UpdateSettings(c.Request.Context(), c.GetString("userID"), values)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, updated)
}

// --- Currencies ---

// ListCurrencies
// @Summary      List currencies
// @Tags         settings
// @Produce      json
// @Security     BearerAuth
// @Param        active  query     bool  false  "Only active currencies"
// @Success      200     {object}  response.Response{data=[]model.Currency}
// @Router       /currencies [get]
func (h *SettingsHandler) ListCurrencies(c *gin.Context) {
	list, err := h.settingsService.ListCurrencies(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, list)
}

// CreateCurrency
// @Summary      Create currency
// @Tags         settings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CurrencyRequest  true  "Currency"
// @Success      201      {object}  response.Response{data=model.Currency}
// @Router       /currencies [post]
func (h *SettingsHandler) CreateCurrency(c *gin.Context) {
	var req service.CurrencyRequest
	if !bindJSON(c, &req) {
		return
	}
	cur, err := h.settingsService.CreateCurrency(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	created(c, cur)
}

// UpdateCurrency
// @Summary      Update currency
// @Tags         settings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Currency ID"
// @Param        payload  body      service.CurrencyRequest  true  "Currency"
// @Success      200      {object}  response.Response{data=model.Currency}
// @Router       /currencies/{id} [put]
func (h *SettingsHandler) UpdateCurrency(c *gin.Context) {
	var req service.CurrencyRequest
	if !bindJSON(c, &req) {
		return
	}
	cur, err := h.settingsService.UpdateCurrency(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, cur)
}

// --- Backups ---

// ListBackups
// @Summary      List stored backups
// @Tags         backup
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.BackupInfo}
// @Router       /backups [get]
func (h *SettingsHandler) ListBackups(c *gin.Context) {
	list, err := h.backupService.ListBackups(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, list)
}

// CreateBackup dumps every table into a JSON archive in object storage
// @Summary      Create backup
// @Tags         backup
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  response.Response{data=service.BackupInfo}
// @Router       /backups [post]
func (h *SettingsHandler) CreateBackup(c *gin.Context) {
	info, err := h.backupService.CreateBackup(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	created(c, info)
}

// DownloadBackup
// @Summary      Download backup archive
// @Tags         backup
// @Produce      application/json
// @Security     BearerAuth
// @Param        name  path      string  true  "Backup name"
// @Success      200   {file}    file
// @Router       /backups/{name} [get]
func (h *SettingsHandler) DownloadBackup(c *gin.Context) {
	name := c.Param("name")
	data, err := h.backupService.DownloadBackup(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/json", data)
}

// RestoreBackup replaces every table with a stored archive
// @Summary      Restore stored backup
// @Tags         backup
// @Produce      json
// @Security     BearerAuth
// @Param        name  path      string  true  "Backup name"
// @Success      200   {object}  response.Response
// @Router       /backups/{name}/restore [post]
func (h *SettingsHandler) RestoreBackup(c *gin.Context) {
	if err := h.backupService.RestoreBackup(c.Request.Context(), c.GetString("userID"), c.Param("name")); err != nil {
		respondError(c, err)
		return
	}
	ok(c, "Backup restored")
}

// RestoreUpload restores from an uploaded archive in the "file" form field
// @Summary      Restore uploaded backup
// @Tags         backup
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "Backup archive"
// @Success      200   {object}  response.Response
// @Router       /backups/restore [post]
func (h *SettingsHandler) RestoreUpload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "file is required"))
		return
	}
	if header.Size > maxBackupUpload {
		c.JSON(http.StatusRequestEntityTooLarge, response.Error(http.StatusRequestEntityTooLarge, "backup file too large"))
		return
	}
	f, err := header.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBackupUpload))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.backupService.RestoreBackupData(c.Request.Context(), c.GetString("userID"), data); err != nil {
		respondError(c, err)
		return
	}
	ok(c, "Backup restored")
}
