package httptransport

import (
	"log/slog"

	"github.com/ErlanBelekov/shortly/internal/transport/http/handler"
	"github.com/ErlanBelekov/shortly/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

// NewRouter wires the routes. https marks a deployment served over TLS.
func NewRouter(logger *slog.Logger, linkHandler *handler.LinkHandler, authHandler *handler.AuthHandler, sessionMW gin.HandlerFunc, https bool) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security(https))
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	r.SetHTMLTemplate(handler.Templates())

	// Pages
	r.GET("/", sessionMW, handler.Page("index.html"))
	r.GET("/create", sessionMW, handler.Page("index.html"))
	r.GET("/login", handler.Page("login.html"))
	r.GET("/signup", handler.Page("signup.html"))

	// Session lifecycle
	r.POST("/signup", authHandler.Signup)
	r.POST("/login", authHandler.Login)
	r.POST("/logout", authHandler.Logout)

	// Links
	r.GET("/links", sessionMW, linkHandler.List)
	r.POST("/links", linkHandler.Create)

	// Everything else is a short code.
	r.NoRoute(linkHandler.Redirect)

	return r
}
