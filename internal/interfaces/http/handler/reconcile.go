package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/telcobill/backend/internal/application/reconcile"
	stagingapp "github.com/telcobill/backend/internal/application/staging"
)

// ReconcileHandler exposes the staging-to-production merge endpoints
type ReconcileHandler struct {
	BaseHandler
	reconciler *reconcile.Service
}

// NewReconcileHandler creates a ReconcileHandler
func NewReconcileHandler(reconciler *reconcile.Service) *ReconcileHandler {
	return &ReconcileHandler{reconciler: reconciler}
}

// RegisterRoutes registers the reconciliation endpoints
func (h *ReconcileHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rec := rg.Group("/reconciliation")
	{
		rec.POST("", h.ReconcileAll)
		rec.POST("/:entity", h.ReconcileEntity)
	}
}

// ReconcileAll merges all staged entities into production.
// POST /api/v1/reconciliation
func (h *ReconcileHandler) ReconcileAll(c *gin.Context) {
	result, err := h.reconciler.ReconcileAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ReconcileEntity merges one staged entity into production.
// POST /api/v1/reconciliation/:entity
func (h *ReconcileHandler) ReconcileEntity(c *gin.Context) {
	name := c.Param("entity")
	if !stagingapp.IsValidEntity(name) {
		h.BadRequest(c, fmt.Sprintf("unknown entity %q: must be one of subscribers, plans, assignments, cdrs", name))
		return
	}

	result, err := h.reconciler.ReconcileEntity(c.Request.Context(), stagingapp.Entity(name))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
