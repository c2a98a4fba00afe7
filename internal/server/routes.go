package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) registerRoutes(engine *gin.Engine) {
	engine.GET("/healthz", s.Healthz)

	api := engine.Group("/api")

	api.POST("/auth/login", s.Login)
	api.POST("/auth/logout", s.Logout)

	authed := api.Group("", s.SessionRequired())

	authed.GET("/products", s.ListProducts)
	authed.GET("/products/:id", s.GetProductByID)
	authed.POST("/products", s.CreateProduct)
	authed.PATCH("/products/:id", s.UpdateProduct)
	authed.GET("/categories", s.ListCategories)

	authed.POST("/companies", s.CreateCompany)
	authed.POST("/projects", s.CreateProject)
	authed.POST("/credits", s.GrantCredit)
	authed.GET("/credits", s.ListMyCredits)

	authed.POST("/orders", s.Checkout)
	authed.GET("/orders", s.ListOrders)
	authed.GET("/orders/:id", s.GetOrder)
	authed.PATCH("/orders/:id/status", s.UpdateOrderStatus)
}

func (s *Server) Healthz(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
