package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/ErlanBelekov/shortly/internal/domain"
	"github.com/ErlanBelekov/shortly/internal/metrics"
	"github.com/ErlanBelekov/shortly/internal/repository"
	"github.com/go-playground/validator/v10"
)

// defaultCodeAttempts bounds how many fresh codes CreateOrGet draws when
// the store keeps reporting a taken one.
const defaultCodeAttempts = 5

type titleResolver interface {
	Resolve(ctx context.Context, rawURL string) (string, error)
}

type codeGenerator interface {
	Generate() (string, error)
}

type LinkUsecase struct {
	links        repository.LinkRepository
	clicks       repository.ClickRepository
	titles       titleResolver
	codes        codeGenerator
	validate     *validator.Validate
	logger       *slog.Logger
	codeAttempts int
}

func NewLinkUsecase(
	links repository.LinkRepository,
	clicks repository.ClickRepository,
	titles titleResolver,
	codes codeGenerator,
	logger *slog.Logger,
) *LinkUsecase {
	return &LinkUsecase{
		links:        links,
		clicks:       clicks,
		titles:       titles,
		codes:        codes,
		validate:     validator.New(),
		logger:       logger.With("component", "link_usecase"),
		codeAttempts: defaultCodeAttempts,
	}
}

// CreateOrGet returns the link for rawURL, creating it when no link has
// that exact URL. Concurrent submissions of one URL converge on a single
// row: the loser of the insert race returns the winner's link.
func (u *LinkUsecase) CreateOrGet(ctx context.Context, rawURL, origin string) (*domain.Link, error) {
	if !u.isValidURL(rawURL) {
		return nil, domain.ErrInvalidURL
	}

	existing, err := u.links.FindByURL(ctx, rawURL)
	if err == nil {
		metrics.LinkDedupHitsTotal.WithLabelValues("lookup").Inc()
		return existing, nil
	}
	if !errors.Is(err, domain.ErrLinkNotFound) {
		return nil, fmt.Errorf("find link by url: %w", err)
	}

	title, err := u.resolveTitle(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= u.codeAttempts; attempt++ {
		code, err := u.codes.Generate()
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}

		created, err := u.links.Create(ctx, &domain.Link{
			Code:    code,
			URL:     rawURL,
			Title:   title,
			BaseURL: origin,
		})
		switch {
		case err == nil:
			metrics.LinksCreatedTotal.Inc()
			u.logger.InfoContext(ctx, "link created", "link_id", created.ID, "code", created.Code)
			return created, nil

		case errors.Is(err, domain.ErrDuplicateURL):
			winner, err := u.links.FindByURL(ctx, rawURL)
			if err != nil {
				return nil, fmt.Errorf("find concurrently created link: %w", err)
			}
			metrics.LinkDedupHitsTotal.WithLabelValues("conflict").Inc()
			return winner, nil

		case errors.Is(err, domain.ErrDuplicateCode):
			u.logger.DebugContext(ctx, "code taken, drawing another", "code", code, "attempt", attempt)

		default:
			return nil, fmt.Errorf("create link: %w", err)
		}
	}

	return nil, fmt.Errorf("create link: no free code after %d attempts", u.codeAttempts)
}

// Resolve looks up code, counts the visit at the store and appends a click.
// An unknown code yields domain.ErrLinkNotFound and touches nothing.
func (u *LinkUsecase) Resolve(ctx context.Context, code string) (*domain.Link, error) {
	if code == "" {
		metrics.LinkResolutionsTotal.WithLabelValues("miss").Inc()
		return nil, domain.ErrLinkNotFound
	}

	link, err := u.links.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrLinkNotFound) {
			metrics.LinkResolutionsTotal.WithLabelValues("miss").Inc()
			return nil, domain.ErrLinkNotFound
		}
		metrics.LinkResolutionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("find link by code: %w", err)
	}

	updated, err := u.links.IncrementVisits(ctx, link.ID)
	if err != nil {
		metrics.LinkResolutionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("increment visits: %w", err)
	}

	// The visit is already counted; a lost click row is reported, not fatal.
	if _, err := u.clicks.Append(ctx, link.ID); err != nil {
		metrics.ClickAppendFailuresTotal.Inc()
		u.logger.ErrorContext(ctx, "append click", "link_id", link.ID, "code", code, "error", err)
	}

	metrics.LinkResolutionsTotal.WithLabelValues("hit").Inc()
	return updated, nil
}

// Lookup finds the link for code without counting a visit.
func (u *LinkUsecase) Lookup(ctx context.Context, code string) (*domain.Link, error) {
	if code == "" {
		return nil, domain.ErrLinkNotFound
	}

	link, err := u.links.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrLinkNotFound) {
			return nil, domain.ErrLinkNotFound
		}
		return nil, fmt.Errorf("find link by code: %w", err)
	}
	return link, nil
}

func (u *LinkUsecase) List(ctx context.Context) ([]*domain.Link, error) {
	links, err := u.links.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

func (u *LinkUsecase) resolveTitle(ctx context.Context, rawURL string) (string, error) {
	start := time.Now()
	title, err := u.titles.Resolve(ctx, rawURL)
	if err != nil {
		metrics.TitleFetchDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		u.logger.WarnContext(ctx, "read url title", "url", rawURL, "error", err)
		return "", fmt.Errorf("%w: %w", domain.ErrTitleFetch, err)
	}
	metrics.TitleFetchDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	return title, nil
}

// isValidURL accepts absolute http(s) URLs with a host.
func (u *LinkUsecase) isValidURL(rawURL string) bool {
	if err := u.validate.Var(rawURL, "required,url"); err != nil {
		return false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
