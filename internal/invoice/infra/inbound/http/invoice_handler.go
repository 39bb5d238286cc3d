package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/davicafu/eventshop/internal/invoice/application"
	"github.com/davicafu/eventshop/pkg/utils"
)

type InvoiceHandler struct {
	service *application.InvoiceService
}

func NewInvoiceHandler(service *application.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{service: service}
}

func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendBadRequest(c, "invalid invoice id")
		return
	}

	inv, err := h.service.GetInvoice(c.Request.Context(), id)
	if err != nil {
		utils.SendFailure(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, inv)
}

func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	// ?order_id=... resuelve la factura de un pedido concreto.
	if raw := c.Query("order_id"); raw != "" {
		orderID, err := uuid.Parse(raw)
		if err != nil {
			utils.SendBadRequest(c, "invalid order id")
			return
		}
		inv, err := h.service.GetByOrder(c.Request.Context(), orderID)
		if err != nil {
			utils.SendFailure(c, err)
			return
		}
		utils.SendSuccess(c, http.StatusOK, inv)
		return
	}

	invoices, err := h.service.ListInvoices(c.Request.Context(), limit, offset)
	if err != nil {
		utils.SendFailure(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, invoices)
}

func (h *InvoiceHandler) CancelInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendBadRequest(c, "invalid invoice id")
		return
	}

	inv, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		utils.SendFailure(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, inv)
}
