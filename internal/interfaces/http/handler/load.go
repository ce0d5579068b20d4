package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	stagingapp "github.com/telcobill/backend/internal/application/staging"
)

// LoadHandler exposes the extract loading endpoints
type LoadHandler struct {
	BaseHandler
	loader *stagingapp.LoaderService
}

// NewLoadHandler creates a LoadHandler
func NewLoadHandler(loader *stagingapp.LoaderService) *LoadHandler {
	return &LoadHandler{loader: loader}
}

// RegisterRoutes registers the load endpoints
func (h *LoadHandler) RegisterRoutes(rg *gin.RouterGroup) {
	loads := rg.Group("/loads")
	{
		loads.POST("", h.LoadAll)
		loads.POST("/:entity", h.LoadEntity)
	}
}

// LoadEntity loads one entity's extract for a date into staging.
// POST /api/v1/loads/:entity?date=YYYY-MM-DD
func (h *LoadHandler) LoadEntity(c *gin.Context) {
	name := c.Param("entity")
	if !stagingapp.IsValidEntity(name) {
		h.BadRequest(c, fmt.Sprintf("unknown entity %q: must be one of subscribers, plans, assignments, cdrs", name))
		return
	}

	date, err := parseDateParam(c, "date")
	if err != nil {
		h.BadRequest(c, "date must be formatted YYYY-MM-DD")
		return
	}

	result, err := h.loader.LoadEntity(c.Request.Context(), stagingapp.Entity(name), date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// LoadAll loads all four entity extracts for a date in dependency order.
// POST /api/v1/loads?date=YYYY-MM-DD&clear_staging=true
func (h *LoadHandler) LoadAll(c *gin.Context) {
	date, err := parseDateParam(c, "date")
	if err != nil {
		h.BadRequest(c, "date must be formatted YYYY-MM-DD")
		return
	}
	clearStaging := c.Query("clear_staging") == "true"

	result, err := h.loader.LoadAll(c.Request.Context(), date, clearStaging)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
