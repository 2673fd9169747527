package httpapi

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/arbdesk/arbdesk/backend/engines"
	"github.com/arbdesk/arbdesk/backend/service"
)

// NewRouter sets up the gin router: public auth endpoints, bearer-protected
// API endpoints and the websocket status feed.
func NewRouter(auth *service.AuthService, sup *engines.Supervisor, sub message.Subscriber, log zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	handlers := NewHandlers(auth, sup, log)
	feed := NewStatusFeed(auth, sup, sub, log)

	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/nonce", handlers.Nonce)
		authGroup.POST("/verify", handlers.Verify)
	}

	protected := router.Group("/api")
	protected.Use(AuthMiddleware(auth))
	{
		protected.GET("/auth/session", handlers.Session)
		protected.POST("/auth/logout", handlers.Logout)
		protected.GET("/engines", handlers.Engines)
		protected.POST("/engines/:name/start", handlers.StartEngine)
		protected.POST("/engines/:name/stop", handlers.StopEngine)
	}

	router.GET("/ws", feed.Handle)

	return router
}
