// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"atlas/internal/http/handlers"
	"atlas/internal/http/middleware"
	"atlas/internal/service"
)

func NewRouter(planner *service.Planner, frontendOrigin string, log *zap.Logger) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Logging(log))
	r.Use(middleware.Recovery(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{frontendOrigin},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	chatHandler := handlers.NewChatHandler(planner)
	r.POST("/api/chat", chatHandler.Chat)
	r.POST("/api/sessions/:id/reset", chatHandler.Reset)
	r.GET("/api/sessions/:id/history", chatHandler.History)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
