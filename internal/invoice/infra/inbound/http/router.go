package http

import "github.com/gin-gonic/gin"

func RegisterInvoiceRoutes(r *gin.Engine, handler *InvoiceHandler) {
	invoices := r.Group("/invoices")
	{
		invoices.GET("/", handler.ListInvoices)
		invoices.GET("/:id", handler.GetInvoice)
		invoices.POST("/:id/cancel", handler.CancelInvoice)
	}
}
