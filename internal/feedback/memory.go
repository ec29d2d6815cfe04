package feedback

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/val3riia/languagemirror-bot/models"
)

// MemoryRepository is the in-memory feedback log used when no database
// is configured.
type MemoryRepository struct {
	mu      sync.Mutex
	records []*models.FeedbackRecord
}

// NewMemoryRepository creates an in-memory feedback repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Append(ctx context.Context, rec *models.FeedbackRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *rec
	r.records = append(r.records, &cp)
	return nil
}

func (r *MemoryRepository) List(ctx context.Context, from, to *time.Time) ([]*models.FeedbackRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.FeedbackRecord
	for _, rec := range r.records {
		if from != nil && rec.Timestamp.Before(*from) {
			continue
		}
		if to != nil && !rec.Timestamp.Before(*to) {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}
