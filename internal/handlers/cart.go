package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront_backend/internal/apperr"
	"storefront_backend/internal/service"
)

type CartHandler struct {
	carts *service.CartService
	log   *logrus.Logger
}

func NewCartHandler(carts *service.CartService, logger *logrus.Logger) *CartHandler {
	return &CartHandler{carts: carts, log: logger}
}

// GetCart returns the caller's cart, creating it on first access.
func (h *CartHandler) GetCart(c *gin.Context) {
	cart, err := h.carts.Get(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":          cart.ID,
		"items":       cart.Items,
		"total_price": cart.TotalPrice(),
	})
}

// AddToCart adds a product; quantities sum when the line already exists.
func (h *CartHandler) AddToCart(c *gin.Context) {
	var input struct {
		ProductID string `json:"product_id" binding:"required"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, h.log, apperr.InvalidArgument("invalid request body"))
		return
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}

	productID, err := uuid.Parse(input.ProductID)
	if err != nil {
		respondError(c, h.log, apperr.InvalidArgument("invalid product id"))
		return
	}

	item, err := h.carts.Add(c.Request.Context(), c.GetString("user_id"), productID, input.Quantity)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateCartItem sets an item's quantity.
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	var input struct {
		ItemID   string `json:"item_id" binding:"required"`
		Quantity int    `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, h.log, apperr.InvalidArgument("item_id and quantity are required"))
		return
	}

	itemID, err := uuid.Parse(input.ItemID)
	if err != nil {
		respondError(c, h.log, apperr.InvalidArgument("invalid item id"))
		return
	}

	item, err := h.carts.SetQuantity(c.Request.Context(), c.GetString("user_id"), itemID, input.Quantity)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// RemoveCartItem deletes an item from the caller's cart.
func (h *CartHandler) RemoveCartItem(c *gin.Context) {
	var input struct {
		ItemID string `json:"item_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, h.log, apperr.InvalidArgument("item_id is required"))
		return
	}

	itemID, err := uuid.Parse(input.ItemID)
	if err != nil {
		respondError(c, h.log, apperr.InvalidArgument("invalid item id"))
		return
	}

	if err := h.carts.Remove(c.Request.Context(), c.GetString("user_id"), itemID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "item removed from cart"})
}
