package http

import "github.com/gin-gonic/gin"

func RegisterProductRoutes(r *gin.Engine, handler *ProductHandler) {
	products := r.Group("/products")
	{
		products.POST("/", handler.CreateProduct)
		products.GET("/", handler.ListProducts)
		products.GET("/:id", handler.GetProduct)
		products.PUT("/:id", handler.UpdateProduct)
	}
}
