// Package projector is the Preference Projector: after any preference
// write, it re-renders the user's profile text and refreshes the stored
// embedding (spec §4.4). It is the exclusive writer of the preference
// embedding fields (spec §3.3 ownership rule).
package projector

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobmate/alertpipeline/internal/clock"
	"github.com/jobmate/alertpipeline/internal/embeddings"
	"github.com/jobmate/alertpipeline/internal/model"
	"github.com/jobmate/alertpipeline/internal/store"
)

// Embedder produces vectors for text. Satisfied by internal/embeddings.Service.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Projector re-materializes a user's profile text and embedding.
type Projector struct {
	store    *store.Store
	embedder Embedder
	clock    clock.Clock
	logger   *zap.Logger
}

func New(s *store.Store, embedder Embedder, c clock.Clock, logger *zap.Logger) *Projector {
	return &Projector{store: s, embedder: embedder, clock: c, logger: logger}
}

// Project is idempotent and safe to retry: on embedding-service failure it
// leaves the prior embedding intact and only surfaces a warning, rather than
// failing the preference write that triggered it.
func (p *Projector) Project(ctx context.Context, userID uuid.UUID) error {
	prefs, err := p.store.GetPreferences(ctx, userID)
	if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}

	text := embeddings.UserProfileText(*prefs)
	vec, err := p.embedder.Embed(ctx, text)
	if err != nil {
		p.logger.Warn("preference projector: embed failed, keeping prior embedding",
			zap.String("user_id", userID.String()), zap.Error(err))
		return nil
	}

	emb := model.Embedding{Vector: vec, SourceText: text, Version: model.EmbeddingVersion, UpdatedAt: p.clock.Now()}
	if err := p.store.UpdatePreferenceEmbedding(ctx, userID, emb); err != nil {
		return fmt.Errorf("persist preference embedding: %w", err)
	}
	return nil
}
