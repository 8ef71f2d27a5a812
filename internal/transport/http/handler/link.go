package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ErlanBelekov/shortly/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type linkUsecaser interface {
	CreateOrGet(ctx context.Context, rawURL, origin string) (*domain.Link, error)
	Resolve(ctx context.Context, code string) (*domain.Link, error)
	Lookup(ctx context.Context, code string) (*domain.Link, error)
	List(ctx context.Context) ([]*domain.Link, error)
}

type LinkHandler struct {
	links  linkUsecaser
	logger *slog.Logger
}

func NewLinkHandler(links linkUsecaser, logger *slog.Logger) *LinkHandler {
	return &LinkHandler{links: links, logger: logger.With("component", "link_handler")}
}

// createLinkRequest binds from a JSON body or a urlencoded form. The url
// itself is validated by the usecase so both paths share one rule.
type createLinkRequest struct {
	URL string `json:"url" form:"url"`
}

type linkResponse struct {
	ID      int64  `json:"id"`
	URL     string `json:"url"`
	Code    string `json:"code"`
	Title   string `json:"title"`
	BaseURL string `json:"base_url"`
	Visits  int64  `json:"visits"`
}

func toLinkResponse(l *domain.Link) linkResponse {
	return linkResponse{
		ID:      l.ID,
		URL:     l.URL,
		Code:    l.Code,
		Title:   l.Title,
		BaseURL: l.BaseURL,
		Visits:  l.Visits,
	}
}

// POST /links
func (h *LinkHandler) Create(c *gin.Context) {
	var req createLinkRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	link, err := h.links.CreateOrGet(c.Request.Context(), strings.TrimSpace(req.URL), c.GetHeader("Origin"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidURL):
			h.logger.InfoContext(c.Request.Context(), "rejected url", "url", req.URL)
			c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidURL})
		case errors.Is(err, domain.ErrTitleFetch):
			c.JSON(http.StatusNotFound, gin.H{"error": errTitleFetch})
		default:
			h.logger.ErrorContext(c.Request.Context(), "create link", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	c.JSON(http.StatusOK, toLinkResponse(link))
}

// GET /links
func (h *LinkHandler) List(c *gin.Context) {
	links, err := h.links.List(c.Request.Context())
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "list links", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, lo.Map(links, func(l *domain.Link, _ int) linkResponse {
		return toLinkResponse(l)
	}))
}

// Redirect treats any unmatched GET or HEAD path as a short code. Unknown
// codes send the visitor home. Only GET counts as a visit.
func (h *LinkHandler) Redirect(c *gin.Context) {
	resolve := h.links.Resolve
	switch c.Request.Method {
	case http.MethodGet:
	case http.MethodHead:
		resolve = h.links.Lookup
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": http.StatusText(http.StatusNotFound)})
		return
	}

	code := strings.TrimPrefix(c.Request.URL.Path, "/")

	link, err := resolve(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrLinkNotFound) {
			c.Redirect(http.StatusFound, "/")
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "resolve code", "code", code, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.Redirect(http.StatusFound, link.URL)
}
