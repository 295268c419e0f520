package fund

import "context"

// Store is interface-driven to keep the catalog swappable without rewiring
// business code. The catalog is read-only from the engine's point of view.
type Store interface {
	Get(ctx context.Context, code string) (Fund, error)
	List(ctx context.Context) ([]Fund, error)
}
