package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/shortly/internal/domain"
	"github.com/ErlanBelekov/shortly/internal/requestctx"
	"github.com/gin-gonic/gin"
)

type tokenValidator interface {
	Validate(ctx context.Context, rawToken string) (*domain.Token, error)
}

// Session admits a request only when its token cookie names a live
// session. It sets "userID" in the gin context and the request context.
func Session(auth tokenValidator, cookieName string, logger *slog.Logger) gin.HandlerFunc {
	logger = logger.With("component", "session_middleware")

	return func(c *gin.Context) {
		raw, _ := c.Cookie(cookieName)

		token, err := auth.Validate(c.Request.Context(), raw)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				c.Redirect(http.StatusFound, "/login")
				c.Abort()
				return
			}
			logger.ErrorContext(c.Request.Context(), "validate session", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.Set("userID", token.UserID)
		c.Request = c.Request.WithContext(requestctx.WithUserID(c.Request.Context(), token.UserID))
		c.Next()
	}
}
