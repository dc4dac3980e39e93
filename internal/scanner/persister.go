package scanner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ColdCrayon/Pickit-sub001/internal/models"
	"github.com/ColdCrayon/Pickit-sub001/internal/repository"
)

// Persister batches opportunity merge-upserts. Batches are chunked to
// the storage backend's limit and a failed chunk is retried whole,
// which is safe because every write is keyed by a deterministic id.
type Persister struct {
	Repo      repository.Repository
	Logger    *zap.Logger
	BatchSize int
}

func (p *Persister) Persist(ctx context.Context, opps []models.Opportunity) error {
	if p == nil || p.Repo == nil || len(opps) == 0 {
		return nil
	}
	size := p.BatchSize
	if size <= 0 {
		size = 500
	}
	for start := 0; start < len(opps); start += size {
		end := start + size
		if end > len(opps) {
			end = len(opps)
		}
		chunk := opps[start:end]
		if err := p.Repo.UpsertOpportunities(ctx, chunk); err != nil {
			if p.Logger != nil {
				p.Logger.Warn("opportunity batch failed, retrying",
					zap.Int("batch", len(chunk)), zap.Error(err))
			}
			if err := p.Repo.UpsertOpportunities(ctx, chunk); err != nil {
				return fmt.Errorf("upsert opportunity batch (%d items): %w", len(chunk), err)
			}
		}
	}
	return nil
}
