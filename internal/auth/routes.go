package auth

import "github.com/gin-gonic/gin"

// RegisterRoutes registers Auth routes. protected must already carry RequireAuth.
func RegisterRoutes(public, protected *gin.RouterGroup, handler *Handler) {
	authGroup := public.Group("/auth")
	{
		authGroup.POST("/register", handler.Register)
		authGroup.POST("/login", handler.Login)
	}
	protected.GET("/auth/me", handler.Me)
}
