package router

import (
	"github.com/labstack/echo/v4"

	"marketsync/internal/adapter/api/handler"
	"marketsync/internal/adapter/api/middleware"
)

func SetupProductRouter(e *echo.Echo, productHandler *handler.ProductHandler, authMiddleware *middleware.AuthMiddleware, writeLimit echo.MiddlewareFunc) {
	products := e.Group("/v1/products")
	products.Use(authMiddleware.Authenticate)

	products.GET("/:id", productHandler.GetProduct)

	products.POST("", productHandler.CreateProduct, writeLimit)
	products.PUT("/:id", productHandler.UpdateProduct, writeLimit)
	products.DELETE("/:id", productHandler.DeleteProduct, writeLimit)
	products.POST("/:id/reviews", productHandler.AddReview, writeLimit)
	products.POST("/:id/images", productHandler.UploadImage, writeLimit)
}
