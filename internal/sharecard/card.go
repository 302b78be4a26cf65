// Package sharecard renders the Open Graph landing page used when a provider
// link is shared on social networks.
package sharecard

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/sotaychohdv/hdv-functions/internal/directory"
)

// Defaults used when a provider record is sparse.
const (
	DefaultTitle        = "Sổ Tay cho HDV"
	DefaultTagline      = "Đối tác uy tín trên Sổ Tay cho HDV"
	DefaultCacheControl = "public, max-age=300, s-maxage=1800"
	maxDescriptionRunes = 200
)

// Sentinel errors mapped to HTTP statuses by the API layer.
var (
	ErrMissingID           = errors.New("missing provider id")
	ErrProviderNotFound    = errors.New("provider not found")
	ErrProviderUnavailable = errors.New("provider not available")
)

// Card is the data rendered into the share page.
type Card struct {
	Title       string
	Description string
	DetailURL   string
	ShareURL    string
	ImageURL    string
}

// Config holds the fallbacks for links and images.
type Config struct {
	PublicBaseURL   string
	DefaultImageURL string
}

// Builder turns provider records into cards.
type Builder struct {
	providers directory.ProviderStore
	cfg       Config
	policy    *bluemonday.Policy
}

// NewBuilder constructs a Builder.
func NewBuilder(providers directory.ProviderStore, cfg Config) *Builder {
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return &Builder{providers: providers, cfg: cfg, policy: bluemonday.StrictPolicy()}
}

// Build loads the provider and assembles its card. baseURL is the origin the
// request arrived on; empty falls back to the public site.
func (b *Builder) Build(ctx context.Context, id, baseURL string) (Card, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Card{}, ErrMissingID
	}
	provider, err := b.providers.GetProvider(ctx, id)
	if errors.Is(err, directory.ErrNotFound) {
		return Card{}, ErrProviderNotFound
	}
	if err != nil {
		return Card{}, fmt.Errorf("load provider %s: %w", id, err)
	}
	if !provider.IsApproved {
		return Card{}, ErrProviderUnavailable
	}

	card := Card{
		Title:       provider.Name,
		Description: b.description(provider),
		ImageURL:    provider.MainImageURL,
	}
	if card.Title == "" {
		card.Title = DefaultTitle
	}
	if card.ImageURL == "" {
		card.ImageURL = b.cfg.DefaultImageURL
	}
	if baseURL != "" {
		card.DetailURL = baseURL + "/p/" + id
		card.ShareURL = baseURL + "/share/provider/" + id
	} else {
		card.DetailURL = b.cfg.PublicBaseURL + "/p/" + id
		card.ShareURL = card.DetailURL
	}
	return card, nil
}

func (b *Builder) description(p directory.Provider) string {
	source := DefaultTagline
	for _, candidate := range []string{p.Description, p.Notes, p.Address} {
		if strings.TrimSpace(candidate) != "" {
			source = candidate
			break
		}
	}
	if source == DefaultTagline && p.Province != "" {
		source = "Nhà cung cấp tại " + p.Province
	}
	text := html.UnescapeString(b.policy.Sanitize(source))
	return truncateRunes(strings.TrimSpace(text), maxDescriptionRunes)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// RequestBaseURL reconstructs the public origin of r, honouring proxy headers.
func RequestBaseURL(r *http.Request) string {
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	if host == "" {
		return ""
	}
	proto := r.Header.Get("X-Forwarded-Proto")
	if proto == "" {
		proto = "http"
		if r.TLS != nil {
			proto = "https"
		}
	}
	return proto + "://" + host
}
