package http

import "github.com/gin-gonic/gin"

func RegisterAuthRoutes(r *gin.Engine, handler *AuthHandler) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", handler.Register)
		auth.GET("/users/:id", handler.GetUser)
		auth.POST("/password-reset", handler.RequestPasswordReset)
	}
}
