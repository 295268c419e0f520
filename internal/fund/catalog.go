package fund

import (
	"context"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"relief/pkg/domain"
	dErrors "relief/pkg/domain-errors"
	"relief/pkg/platform/sentinel"
)

// catalogTTL bounds how long a fund definition is served from cache. Fund
// configuration changes rarely, but grant limit updates must land eventually.
const catalogTTL = 5 * time.Minute

// Catalog fronts the fund store with a TTL cache. Lookups happen on every
// verification attempt and every submission, so the hot path stays off the
// backing store.
type Catalog struct {
	store Store
	cache *gocache.Cache
}

func NewCatalog(store Store) *Catalog {
	return &Catalog{
		store: store,
		cache: gocache.New(catalogTTL, 2*catalogTTL),
	}
}

// Lookup resolves a fund by code. A missing fund is a configuration error for
// whatever flow asked, surfaced as not_found.
func (c *Catalog) Lookup(ctx context.Context, code domain.FundCode) (Fund, error) {
	if code.IsZero() {
		return Fund{}, dErrors.New(dErrors.CodeInvalidInput, "fund code is required")
	}
	if cached, ok := c.cache.Get(code.String()); ok {
		return cached.(Fund), nil
	}
	f, err := c.store.Get(ctx, code.String())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Fund{}, dErrors.New(dErrors.CodeNotFound, "fund not found")
		}
		return Fund{}, dErrors.Wrap(err, dErrors.CodeInternal, "fund lookup failed")
	}
	c.cache.SetDefault(code.String(), f)
	return f, nil
}

// List returns the full catalog, uncached; it only backs admin screens.
func (c *Catalog) List(ctx context.Context) ([]Fund, error) {
	funds, err := c.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "fund list failed")
	}
	return funds, nil
}
