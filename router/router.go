package router

import (
	"log"

	"chatflow/config"
	"chatflow/controllers"
	"chatflow/middleware"

	"github.com/gin-gonic/gin"
)

// Initialize liga rotas e middlewares.
func Initialize(r *gin.Engine, cfg config.Configuration) {
	_ = cfg

	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	api := r.Group("/api")

	// Webhook (WhatsApp)
	api.GET("/webhook", controllers.WebhookVerify)
	api.POST("/webhook", controllers.WebhookUpdate)

	// Stream de eventos internos (painel)
	api.GET("/events", Logger(), controllers.StreamEvents)

	log.Printf("Routes initialized")
}
