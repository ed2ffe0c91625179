package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"brickfund/internal/service"
)

func SetupRoutes(router *gin.Engine, svc *service.Service, logger *logrus.Logger) {
	handler := NewHandler(svc, logger)

	api := router.Group("/api")
	{
		api.GET("/properties", handler.ListProperties)
		api.POST("/properties", handler.CreateProperty)
		api.GET("/properties/:id", handler.GetProperty)
		api.DELETE("/properties/:id", handler.DeleteProperty)
		api.GET("/properties/:id/aggregate", handler.GetAggregate)
		api.PUT("/properties/:id/status", handler.UpdateStatus)
		api.PUT("/properties/:id/tokenomics", handler.SetTokenomics)

		api.POST("/investments", handler.CreateInvestment)
		api.GET("/investments/:id", handler.GetInvestment)
		api.PATCH("/investments/:id", handler.UpdateInvestment)
		api.DELETE("/investments/:id", handler.DeleteInvestment)

		api.POST("/reviews", handler.CreateReview)
		api.PATCH("/reviews/:id", handler.UpdateReview)
		api.DELETE("/reviews/:id", handler.DeleteReview)

		api.GET("/metrics", handler.GetMetrics)
		api.GET("/investors/:id/metrics", handler.GetInvestorMetrics)
		api.GET("/investors/:id/portfolio", handler.GetPortfolio)
	}

	SetupCategoryRoutes(router, logger)
}
