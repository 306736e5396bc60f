package api

import "github.com/gin-gonic/gin"

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.GET("/search", handler.Search)

		api.GET("/properties", handler.GetProperties)
		api.GET("/properties/:id", handler.GetProperty)
		api.POST("/properties", handler.CreateProperty)
		api.PUT("/properties/:id", handler.UpdateProperty)
		api.DELETE("/properties/:id", handler.DeleteProperty)
		api.POST("/properties/batch", handler.BatchUpload)
	}
}
