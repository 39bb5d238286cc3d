package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/davicafu/eventshop/internal/order/application"
	"github.com/davicafu/eventshop/internal/order/domain"
	"github.com/davicafu/eventshop/pkg/utils"
)

// OrderHandler encapsula los endpoints HTTP del contexto order.
type OrderHandler struct {
	service *application.OrderService
}

func NewOrderHandler(service *application.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// ---------------- Handlers ----------------

type orderItemRequest struct {
	ProductID string  `json:"product_id" binding:"required"`
	Quantity  int     `json:"quantity" binding:"required"`
	UnitPrice float64 `json:"unit_price"`
}

// CreateOrder endpoint POST /orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req struct {
		CustomerID string             `json:"customer_id" binding:"required"`
		Items      []orderItemRequest `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		utils.SendBadRequest(c, "invalid customer_id")
		return
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		pid, err := uuid.Parse(it.ProductID)
		if err != nil {
			utils.SendBadRequest(c, "invalid product_id")
			return
		}
		items = append(items, domain.OrderItem{ProductID: pid, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}

	order, err := h.service.CreateOrder(c.Request.Context(), customerID, items)
	if err != nil {
		utils.SendFailure(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetOrder endpoint GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendBadRequest(c, "invalid order id")
		return
	}

	order, err := h.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		utils.SendFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ListOrders endpoint GET /orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	orders, err := h.service.ListOrders(c.Request.Context(), limit, offset)
	if err != nil {
		utils.SendFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// ConfirmPayment endpoint POST /orders/:id/payment
func (h *OrderHandler) ConfirmPayment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendBadRequest(c, "invalid order id")
		return
	}

	order, err := h.service.ConfirmPayment(c.Request.Context(), id)
	if err != nil {
		utils.SendFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// CancelOrder endpoint POST /orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendBadRequest(c, "invalid order id")
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req) // reason es opcional

	order, err := h.service.CancelOrder(c.Request.Context(), id, req.Reason)
	if err != nil {
		utils.SendFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
