package http

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/budget-ledger/internal/application/service"
	"github.com/garyjia/budget-ledger/internal/report"
	"github.com/garyjia/budget-ledger/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CreateCategory handles POST /api/categories
func (h *Handlers) CreateCategory(c *gin.Context) {
	var body createCategoryBody
	if err := bindJSON(c, &body, false); err != nil {
		h.respondError(c, err)
		return
	}
	if err := validateAmounts("allocated", body.Allocated); err != nil {
		h.respondError(c, err)
		return
	}

	category, err := h.catalog.CreateCategory(c.Request.Context(), service.CreateCategoryInput{
		Name:      utils.SanitizeString(body.Name),
		Allocated: body.Allocated,
		Year:      body.Year,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, category)
}

// ListCategories handles GET /api/categories
func (h *Handlers) ListCategories(c *gin.Context) {
	year, err := queryInt(c, "year")
	if err != nil {
		h.respondError(c, err)
		return
	}

	categories, err := h.catalog.ListCategories(c.Request.Context(), year)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, categories)
}

// GetCategory handles GET /api/categories/:id
func (h *Handlers) GetCategory(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	category, err := h.catalog.GetCategory(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, category)
}

// GetCategoryLogs handles GET /api/categories/:id/logs
func (h *Handlers) GetCategoryLogs(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	logs, err := h.catalog.CategoryLogs(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, logs)
}

// GetCategoryExpenses handles GET /api/categories/:id/expenses
func (h *Handlers) GetCategoryExpenses(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	expenses, err := h.catalog.CategoryExpenses(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, expenses)
}

// ListSubActivities handles GET /api/categories/:id/sub-activities
func (h *Handlers) ListSubActivities(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	usages, err := h.catalog.ListSubActivities(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, usages)
}

// CreateSubActivity handles POST /api/sub-activities
func (h *Handlers) CreateSubActivity(c *gin.Context) {
	var body createSubActivityBody
	if err := bindJSON(c, &body, false); err != nil {
		h.respondError(c, err)
		return
	}
	if err := validateAmounts("allocated", body.Allocated); err != nil {
		h.respondError(c, err)
		return
	}

	sub, err := h.catalog.CreateSubActivity(c.Request.Context(), service.CreateSubActivityInput{
		CategoryID: body.CategoryID,
		ParentID:   body.ParentID,
		Name:       utils.SanitizeString(body.Name),
		Allocated:  body.Allocated,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, sub)
}

// ExportLedger handles GET /api/reports/ledger.xlsx
func (h *Handlers) ExportLedger(c *gin.Context) {
	year, err := queryInt(c, "year")
	if err != nil {
		h.respondError(c, err)
		return
	}

	snapshot, err := h.catalog.Ledger(c.Request.Context(), year)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.exporter.Write(&buf, snapshot); err != nil {
		h.respondError(c, fmt.Errorf("failed to export ledger: %w", err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.FileName(snapshot.Year)))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
