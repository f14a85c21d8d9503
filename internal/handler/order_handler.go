package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/reprint-api/internal/middleware"
	"github.com/noah-isme/reprint-api/internal/models"
	"github.com/noah-isme/reprint-api/internal/service"
	appErrors "github.com/noah-isme/reprint-api/pkg/errors"
	"github.com/noah-isme/reprint-api/pkg/response"
)

type orderService interface {
	Create(ctx context.Context, req models.CreateOrderRequest, user *models.User) (*models.Order, error)
	List(ctx context.Context, user models.User, filter models.OrderFilter) ([]models.Order, error)
	Stats(ctx context.Context, user models.User, filter models.OrderFilter) (*models.OrderStats, bool, error)
	Get(ctx context.Context, user models.User, id string) (*models.Order, error)
}

type orderExporter interface {
	OrdersCSV(orders []models.Order) (*service.ExportFile, error)
	Receipt(order models.Order) (*service.ExportFile, error)
}

// OrderHandler serves order placement and the dashboard.
type OrderHandler struct {
	service  orderService
	exporter orderExporter
}

// NewOrderHandler constructs the handler.
func NewOrderHandler(svc orderService, exporter orderExporter) *OrderHandler {
	return &OrderHandler{service: svc, exporter: exporter}
}

// Create godoc
// @Summary Place an order
// @Description Prices the print options and stores a ready-to-print order. Guests order as 訪客.
// @Tags Orders
// @Accept json
// @Produce json
// @Param payload body models.CreateOrderRequest true "Order"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid order payload"))
		return
	}
	order, err := h.service.Create(c.Request.Context(), req, userFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, order)
}

// List godoc
// @Summary Dashboard orders
// @Tags Orders
// @Produce json
// @Param view query string false "my_orders (default) or class_orders (teachers)"
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	user, filter, ok := h.scope(c)
	if !ok {
		return
	}
	orders, err := h.service.List(c.Request.Context(), user, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, orders, map[string]interface{}{"count": len(orders)})
}

// Stats godoc
// @Summary Dashboard counters
// @Tags Orders
// @Produce json
// @Param view query string false "my_orders (default) or class_orders (teachers)"
// @Success 200 {object} response.Envelope
// @Router /orders/stats [get]
func (h *OrderHandler) Stats(c *gin.Context) {
	user, filter, ok := h.scope(c)
	if !ok {
		return
	}
	stats, cacheHit, err := h.service.Stats(c.Request.Context(), user, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.MarkStatsCached(c, cacheHit)
	response.JSON(c, http.StatusOK, stats, middleware.ResponseMeta(c))
}

// Export godoc
// @Summary Export the dashboard list as CSV
// @Tags Orders
// @Produce text/csv
// @Param view query string false "my_orders (default) or class_orders (teachers)"
// @Success 200 {file} file
// @Router /orders/export [get]
func (h *OrderHandler) Export(c *gin.Context) {
	user, filter, ok := h.scope(c)
	if !ok {
		return
	}
	orders, err := h.service.List(c.Request.Context(), user, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exporter.OrdersCSV(orders)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// Get godoc
// @Summary Order detail
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	order, err := h.service.Get(c.Request.Context(), claims.User(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, order)
}

// Receipt godoc
// @Summary Order receipt
// @Tags Orders
// @Produce application/pdf
// @Param id path string true "Order ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /orders/{id}/receipt [get]
func (h *OrderHandler) Receipt(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	order, err := h.service.Get(c.Request.Context(), claims.User(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exporter.Receipt(*order)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

func (h *OrderHandler) scope(c *gin.Context) (models.User, models.OrderFilter, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrLoginRequired)
		return models.User{}, models.OrderFilter{}, false
	}
	var filter models.OrderFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return models.User{}, models.OrderFilter{}, false
	}
	return claims.User(), filter, true
}
