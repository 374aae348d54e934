package chatprovider

import (
	"context"

	"github.com/google/uuid"
)

// StoreResolver adapts store.Store.GetOrCreateUser to the UserResolver
// interface the webhook handler expects. Constructed in cmd/alertd with a
// closure over the live Store and Clock so this package stays free of a
// direct dependency on internal/store.
type StoreResolver struct {
	getOrCreate func(ctx context.Context, handle string) (uuid.UUID, error)
}

func NewStoreResolver(getOrCreate func(ctx context.Context, handle string) (uuid.UUID, error)) *StoreResolver {
	return &StoreResolver{getOrCreate: getOrCreate}
}

func (r *StoreResolver) ResolveHandle(ctx context.Context, handle string) (uuid.UUID, error) {
	return r.getOrCreate(ctx, handle)
}
