// Package title fetches a page and extracts its <title>.
package title

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"
)

// maxBodyBytes bounds how much of a page is scanned for the title.
const maxBodyBytes = 1 << 20

type Resolver struct {
	client *resty.Client
}

func NewResolver(timeout time.Duration) *Resolver {
	client := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)).
		SetHeader("User-Agent", "shortly/1.0 (+title-fetch)")
	return &Resolver{client: client}
}

// Resolve returns the page title of rawURL. A page that loads but has no
// title resolves to the URL itself; only a failed fetch is an error.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (string, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	body := resp.RawBody()
	defer body.Close()

	t, err := parseTitle(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", rawURL, err)
	}
	if t == "" {
		return rawURL, nil
	}
	return t, nil
}

func parseTitle(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return "", nil
			}
			return "", z.Err()
		case html.StartTagToken:
			name, _ := z.TagName()
			if string(name) != "title" {
				continue
			}
			if z.Next() != html.TextToken {
				return "", nil
			}
			return strings.Join(strings.Fields(string(z.Text())), " "), nil
		}
	}
}
