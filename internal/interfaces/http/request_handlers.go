package http

import (
	"github.com/gin-gonic/gin"

	"github.com/garyjia/budget-ledger/internal/application/port"
	"github.com/garyjia/budget-ledger/pkg/utils"
)

// CreateRequest handles POST /api/requests
func (h *Handlers) CreateRequest(c *gin.Context) {
	var body createRequestBody
	if err := bindJSON(c, &body, false); err != nil {
		h.respondError(c, err)
		return
	}

	input, err := body.toInput()
	if err != nil {
		h.respondError(c, err)
		return
	}

	req, err := h.requests.Create(c.Request.Context(), actorOf(c), input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, req)
}

// ListRequests handles GET /api/requests
func (h *Handlers) ListRequests(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		h.respondError(c, err)
		return
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		h.respondError(c, err)
		return
	}

	requests, err := h.requests.List(c.Request.Context(), port.RequestFilter{
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, requests)
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	req, err := h.requests.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, req)
}

// GetRequestActivity handles GET /api/requests/:id/activity
func (h *Handlers) GetRequestActivity(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	logs, err := h.requests.Activity(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, logs)
}

// ApproveRequest handles PUT /api/requests/:id/approve
func (h *Handlers) ApproveRequest(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var body approveBody
	if err := bindJSON(c, &body, true); err != nil {
		h.respondError(c, err)
		return
	}

	req, err := h.requests.Approve(c.Request.Context(), id, approverOr(body.ApproverID, c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, req)
}

// RejectRequest handles PUT /api/requests/:id/reject
func (h *Handlers) RejectRequest(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var body rejectBody
	if err := bindJSON(c, &body, true); err != nil {
		h.respondError(c, err)
		return
	}

	req, err := h.requests.Reject(c.Request.Context(), id, approverOr(body.ApproverID, c), utils.SanitizeString(body.Reason))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, req)
}

// SubmitExpense handles PUT /api/requests/:id/submit-expense
func (h *Handlers) SubmitExpense(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var body submitExpenseBody
	if err := bindJSON(c, &body, false); err != nil {
		h.respondError(c, err)
		return
	}
	input, err := body.toInput()
	if err != nil {
		h.respondError(c, err)
		return
	}

	req, err := h.requests.SubmitExpense(c.Request.Context(), id, actorOf(c), input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, req)
}

// RejectExpense handles PUT /api/requests/:id/reject-expense
func (h *Handlers) RejectExpense(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var body reasonBody
	if err := bindJSON(c, &body, true); err != nil {
		h.respondError(c, err)
		return
	}

	req, err := h.requests.RejectExpense(c.Request.Context(), id, actorOf(c), utils.SanitizeString(body.Reason))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, req)
}

// CompleteRequest handles PUT /api/requests/:id/complete
func (h *Handlers) CompleteRequest(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	req, err := h.requests.Complete(c.Request.Context(), id, actorOf(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, req)
}

// RevertComplete handles PUT /api/requests/:id/revert-complete
func (h *Handlers) RevertComplete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	req, err := h.requests.RevertComplete(c.Request.Context(), id, actorOf(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, req)
}

// UpdateRequestStatus handles PUT /api/requests/:id/status
func (h *Handlers) UpdateRequestStatus(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var body statusBody
	if err := bindJSON(c, &body, false); err != nil {
		h.respondError(c, err)
		return
	}

	req, err := h.requests.UpdateStatus(c.Request.Context(), id, actorOf(c), body.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, req)
}

// DeleteRequest handles DELETE /api/requests/:id
func (h *Handlers) DeleteRequest(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.requests.Delete(c.Request.Context(), id, actorOf(c)); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, nil)
}

// approverOr prefers the approver named in the body over the header actor
func approverOr(approverID string, c *gin.Context) string {
	if approverID = utils.SanitizeString(approverID); approverID != "" {
		return approverID
	}
	return actorOf(c)
}
