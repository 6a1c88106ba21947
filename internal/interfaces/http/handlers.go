package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/budget-ledger/internal/application/service"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Handlers contains all HTTP request handlers
type Handlers struct {
	requests service.RequestService
	catalog  service.CatalogService
	exporter LedgerWriter
	health   HealthFunc
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	requests service.RequestService,
	catalog service.CatalogService,
	exporter LedgerWriter,
	health HealthFunc,
	logger Logger,
) *Handlers {
	return &Handlers{
		requests: requests,
		catalog:  catalog,
		exporter: exporter,
		health:   health,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Version    string      `json:"version"`
	Components interface{} `json:"components,omitempty"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	healthy, detail := true, interface{}(nil)
	if h.health != nil {
		healthy, detail = h.health(c.Request.Context())
	}

	resp := HealthResponse{
		Status:     "healthy",
		Timestamp:  time.Now().Format(time.RFC3339),
		Version:    Version,
		Components: detail,
	}
	status := http.StatusOK
	if !healthy {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, Response{Success: healthy, Data: resp})
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// pathID parses the :id route parameter
func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &service.ValidationError{Field: "id", Message: "must be a positive integer"}
	}
	return id, nil
}

// queryInt parses an optional integer query parameter
func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, &service.ValidationError{Field: name, Message: "must be a non-negative integer"}
	}
	return v, nil
}

// bindJSON decodes the request body. Empty bodies are accepted when optional is set.
func bindJSON(c *gin.Context, dst interface{}, optional bool) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return &service.ValidationError{Message: "invalid request body: " + err.Error()}
	}
	return nil
}
