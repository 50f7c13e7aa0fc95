package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront_backend/internal/apperr"
	"storefront_backend/internal/models"
	"storefront_backend/internal/store"
)

// ProductHandler mirrors the external catalog service's write path so the
// system is operable stand-alone. Only the inventory fields the pipeline
// reads are exposed.
type ProductHandler struct {
	store store.Store
	log   *logrus.Logger
}

func NewProductHandler(st store.Store, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{store: st, log: logger}
}

func (h *ProductHandler) UpsertProduct(c *gin.Context) {
	var input struct {
		ID    string `json:"id"`
		Name  string `json:"name" binding:"required"`
		Price string `json:"price" binding:"required"`
		Stock int    `json:"stock"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, h.log, apperr.InvalidArgument("name and price are required"))
		return
	}

	price, err := decimal.NewFromString(input.Price)
	if err != nil || price.IsNegative() {
		respondError(c, h.log, apperr.InvalidArgument("price must be a non-negative decimal"))
		return
	}
	if input.Stock < 0 {
		respondError(c, h.log, apperr.InvalidArgument("stock must be non-negative"))
		return
	}

	product := &models.Product{Name: input.Name, Price: price.Round(2), Stock: input.Stock}
	if input.ID != "" {
		id, err := uuid.Parse(input.ID)
		if err != nil {
			respondError(c, h.log, apperr.InvalidArgument("invalid product id"))
			return
		}
		product.ID = id
	}

	if err := h.store.UpsertProduct(c.Request.Context(), product); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, h.log, apperr.InvalidArgument("invalid product id"))
		return
	}
	product, err := h.store.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, product)
}
