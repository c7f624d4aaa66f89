// internal/domain/catalog/source.go
package catalog

import (
	"context"

	"product_registration_bot/internal/domain/retry"
)

// Source loads the catalog from the registry backend.
type Source interface {
	LoadCatalog(ctx context.Context, rc *retry.Context) (*Catalog, error)
}
