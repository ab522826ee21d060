package handlers

import (
	"errors"
	"net/http"
	"strings"

	"theatre/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// CreateOrder - POST /api/orders
// Оформить заказ: все места или ни одного
func (h *Handlers) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindingMessage(err))
		return
	}

	result, err := h.orders.PlaceOrder(c.Request.Context(), req.ToPlaceOrderRequest())
	if err != nil {
		respondServiceError(c, err, "")
		return
	}

	c.JSON(http.StatusOK, models.CreateOrderResponse{OK: true, OrderID: result.OrderID, Total: result.Total})
}

// GetOrder - GET /api/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "Order not found")
		return
	}
	c.JSON(http.StatusOK, order)
}

// ApplyPromo - POST /api/promo/apply
// Проверить промокод; promo = null, если код не найден или истек
func (h *Handlers) ApplyPromo(c *gin.Context) {
	var req models.ApplyPromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Missing code")
		return
	}

	promo, err := h.promos.Lookup(c.Request.Context(), req.Code)
	if err != nil {
		respondServiceError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, models.ApplyPromoResponse{OK: true, Promo: promo})
}

// bindingMessage turns a bind failure into the message clients see.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid JSON body"
	}

	for _, fe := range verrs {
		if strings.HasSuffix(fe.StructNamespace(), ".Items") {
			return "No items"
		}
	}

	ns := verrs[0].StructNamespace()
	switch {
	case strings.Contains(ns, ".Customer"):
		return "Invalid customer"
	case strings.Contains(ns, ".Items["):
		return "Invalid item: " + verrs[0].Field() + " failed " + verrs[0].Tag()
	default:
		return verrs[0].Field() + " failed " + verrs[0].Tag()
	}
}
