package http

import "github.com/gin-gonic/gin"

func RegisterOrderRoutes(r *gin.Engine, handler *OrderHandler) {
	orders := r.Group("/orders")
	{
		orders.POST("/", handler.CreateOrder)
		orders.GET("/", handler.ListOrders)
		orders.GET("/:id", handler.GetOrder)
		orders.POST("/:id/payment", handler.ConfirmPayment)
		orders.POST("/:id/cancel", handler.CancelOrder)
	}
}
