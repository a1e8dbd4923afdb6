package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"consultant-access/internal/domain/audit"

	"github.com/google/uuid"
)

type AuditRepository struct {
	mu      sync.RWMutex
	records []audit.Record
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Create(_ context.Context, record *audit.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	r.records = append(r.records, *record)
	return nil
}

func (r *AuditRepository) ListByActor(_ context.Context, actorID uuid.UUID, limit, offset int) ([]*audit.Record, int64, error) {
	return r.list(func(rec *audit.Record) bool {
		return rec.ActorID != nil && *rec.ActorID == actorID
	}, limit, offset)
}

func (r *AuditRepository) ListByTarget(_ context.Context, targetID uuid.UUID, limit, offset int) ([]*audit.Record, int64, error) {
	return r.list(func(rec *audit.Record) bool {
		return rec.TargetID != nil && *rec.TargetID == targetID
	}, limit, offset)
}

// All returns every record oldest first.
func (r *AuditRepository) All() []audit.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]audit.Record(nil), r.records...)
}

func (r *AuditRepository) list(match func(*audit.Record) bool, limit, offset int) ([]*audit.Record, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*audit.Record
	for i := range r.records {
		if match(&r.records[i]) {
			rec := r.records[i]
			matched = append(matched, &rec)
		}
	}

	// stable keeps insertion order for records sharing a timestamp
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if offset > len(matched) {
		offset = len(matched)
	}
	end := len(matched)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], total, nil
}
