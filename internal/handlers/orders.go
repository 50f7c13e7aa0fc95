package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront_backend/internal/apperr"
	"storefront_backend/internal/service"
)

type OrderHandler struct {
	orders *service.OrderService
	log    *logrus.Logger
}

func NewOrderHandler(orders *service.OrderService, logger *logrus.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, log: logger}
}

// CreateFromCart snapshots the caller's cart into an order.
func (h *OrderHandler) CreateFromCart(c *gin.Context) {
	var input struct {
		ShippingAddress string `json:"shipping_address"`
		ShippingPhone   string `json:"shipping_phone"`
	}
	// Body is optional; both fields are free text captured at creation.
	_ = c.ShouldBindJSON(&input)

	order, err := h.orders.CreateFromCart(c.Request.Context(), c.GetString("user_id"),
		input.ShippingAddress, input.ShippingPhone)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// ListOrders returns the caller's orders, newest first.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.orders.List(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetOrder returns one of the caller's orders.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, h.log, apperr.InvalidArgument("invalid order id"))
		return
	}

	order, err := h.orders.Get(c.Request.Context(), c.GetString("user_id"), orderID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
