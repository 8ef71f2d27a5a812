package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/shortly/internal/domain"
	"github.com/gin-gonic/gin"
)

// TokenCookie names the session cookie holding the raw token.
const TokenCookie = "token"

type authUsecaser interface {
	Signup(ctx context.Context, username, password string) (string, error)
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context, rawToken string) error
}

type AuthHandler struct {
	auth         authUsecaser
	cookieSecure bool
	logger       *slog.Logger
}

func NewAuthHandler(auth authUsecaser, cookieSecure bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		cookieSecure: cookieSecure,
		logger:       logger.With("component", "auth_handler"),
	}
}

// POST /signup
func (h *AuthHandler) Signup(c *gin.Context) {
	token, err := h.auth.Signup(c.Request.Context(), c.PostForm("username"), c.PostForm("password"))
	if err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) || errors.Is(err, domain.ErrInvalidCredentialsInput) {
			c.Redirect(http.StatusFound, "/signup")
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "signup", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	h.setToken(c, token)
	c.Redirect(http.StatusFound, "/")
}

// POST /login
// An unknown username is sent to /signup, a wrong password back to /login.
func (h *AuthHandler) Login(c *gin.Context) {
	token, err := h.auth.Login(c.Request.Context(), c.PostForm("username"), c.PostForm("password"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			c.Redirect(http.StatusFound, "/signup")
		case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrInvalidCredentialsInput):
			c.Redirect(http.StatusFound, "/login")
		default:
			h.logger.ErrorContext(c.Request.Context(), "login", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	h.setToken(c, token)
	c.Redirect(http.StatusFound, "/")
}

// POST /logout
func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := c.Cookie(TokenCookie)
	err := h.auth.Logout(c.Request.Context(), token)
	h.clearToken(c)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "logout", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.Redirect(http.StatusFound, "/login")
}

// setToken writes a session cookie; expiry is enforced server-side.
func (h *AuthHandler) setToken(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(TokenCookie, token, 0, "/", "", h.cookieSecure, true)
}

func (h *AuthHandler) clearToken(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(TokenCookie, "", -1, "/", "", h.cookieSecure, true)
}
