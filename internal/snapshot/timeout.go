package snapshot

import (
	"context"
	"time"

	"github.com/hotelrm/backend-go/internal/domain"
)

// TimeoutStore bounds every load so a slow repository turns into a
// retryable failure instead of holding the request open.
type TimeoutStore struct {
	inner   Store
	timeout time.Duration
}

func NewTimeoutStore(inner Store, timeout time.Duration) *TimeoutStore {
	return &TimeoutStore{inner: inner, timeout: timeout}
}

func (s *TimeoutStore) Load(ctx context.Context, hotelID string) (*domain.Snapshot, error) {
	if s.timeout <= 0 {
		return s.inner.Load(ctx, hotelID)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.inner.Load(ctx, hotelID)
}

func (s *TimeoutStore) Replace(ctx context.Context, snap *domain.Snapshot) error {
	return s.inner.Replace(ctx, snap)
}

var _ Store = (*TimeoutStore)(nil)
