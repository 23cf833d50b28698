package handler

import (
	"net/http"

	_ "floodmap-api/docs"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// NewRouter wires every route of the API
func NewRouter(reports *ReportHandler) *gin.Engine {
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/session", reports.Session)
	r.POST("/location", reports.UpdateLocation)

	r.POST("/reports", reports.CreateReport)
	r.POST("/reports/reload", reports.Reload)

	r.GET("/pins", reports.Pins)
	r.POST("/pins/select", reports.SelectPin)
	r.DELETE("/pins/selected", reports.DeleteSelected)

	return r
}
