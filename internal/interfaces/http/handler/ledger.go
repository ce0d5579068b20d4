package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/telcobill/backend/internal/domain/audit"
)

const defaultLedgerLimit = 50

// LedgerHandler exposes read access to the import ledger and error trail
type LedgerHandler struct {
	BaseHandler
	ledger   audit.ImportLedger
	reporter audit.ErrorReporter
}

// NewLedgerHandler creates a LedgerHandler
func NewLedgerHandler(ledger audit.ImportLedger, reporter audit.ErrorReporter) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, reporter: reporter}
}

// RegisterRoutes registers the ledger endpoints
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	ledger := rg.Group("/ledger")
	{
		ledger.GET("/summaries", h.ListSummaries)
		ledger.GET("/errors", h.ListErrors)
	}
}

// ListSummaries returns recent run summaries, newest first.
// GET /api/v1/ledger/summaries?limit=N
func (h *LedgerHandler) ListSummaries(c *gin.Context) {
	limit, err := parseLimit(c)
	if err != nil {
		h.BadRequest(c, "limit must be a positive integer")
		return
	}

	summaries, err := h.ledger.ListSummaries(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summaries)
}

// ListErrors returns recent error log entries, newest first.
// GET /api/v1/ledger/errors?limit=N
func (h *LedgerHandler) ListErrors(c *gin.Context) {
	limit, err := parseLimit(c)
	if err != nil {
		h.BadRequest(c, "limit must be a positive integer")
		return
	}

	entries, err := h.reporter.ListErrors(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}

func parseLimit(c *gin.Context) (int, error) {
	value := c.Query("limit")
	if value == "" {
		return defaultLedgerLimit, nil
	}
	limit, err := strconv.Atoi(value)
	if err != nil || limit <= 0 {
		return 0, strconv.ErrRange
	}
	return limit, nil
}
