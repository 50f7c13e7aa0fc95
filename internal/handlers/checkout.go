package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront_backend/internal/apperr"
	"storefront_backend/internal/service"
)

type CheckoutHandler struct {
	checkout *service.CheckoutService
	log      *logrus.Logger
}

func NewCheckoutHandler(checkout *service.CheckoutService, logger *logrus.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, log: logger}
}

// CreateSession starts the external payment flow for a pending order and
// returns the processor redirect URL.
func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	var input struct {
		OrderID string `json:"order_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, h.log, apperr.InvalidArgument("order_id is required"))
		return
	}

	orderID, err := uuid.Parse(input.OrderID)
	if err != nil {
		respondError(c, h.log, apperr.InvalidArgument("invalid order id"))
		return
	}

	url, err := h.checkout.CreateSession(c.Request.Context(),
		c.GetString("user_id"), c.GetString("email"), orderID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
