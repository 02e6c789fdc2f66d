package status

import (
	"context"

	dommedia "github.com/silodex/silodex/internal/domain/media"
)

// Repository defines the storage contract for media status updates.
type Repository interface {
	Get(ctx context.Context, siloID, id string) (dommedia.Media, error)
	Update(ctx context.Context, m dommedia.Media) error
}
