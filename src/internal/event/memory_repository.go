package event

import (
	"context"
	"sort"
	"sync"
	"time"

	"activity-alerts-svc/src/internal/models"

	"github.com/shopspring/decimal"
)

type storedEvent struct {
	event models.ActivityEvent
	seq   uint64
}

// MemoryRepository is an in-memory Repository for local runs and tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	events map[int64][]storedEvent
	seq    uint64
	now    func() time.Time
}

func NewMemoryRepository(now func() time.Time) *MemoryRepository {
	if now == nil {
		now = time.Now
	}
	return &MemoryRepository{
		events: make(map[int64][]storedEvent),
		now:    now,
	}
}

func (r *MemoryRepository) Create(ctx context.Context, event *models.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	r.seq++
	r.events[event.UserID] = append(r.events[event.UserID], storedEvent{event: *event, seq: r.seq})
	return nil
}

func (r *MemoryRepository) ListEvents(ctx context.Context, userID int64, opts models.ListOptions) ([]*models.ActivityEvent, error) {
	r.mu.RLock()
	matched := make([]storedEvent, 0, len(r.events[userID]))
	for _, s := range r.events[userID] {
		if opts.TransactionType != "" && s.event.TransactionType != opts.TransactionType {
			continue
		}
		matched = append(matched, s)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.event.EventReceivedAt != b.event.EventReceivedAt {
			if opts.Ascending {
				return a.event.EventReceivedAt < b.event.EventReceivedAt
			}
			return a.event.EventReceivedAt > b.event.EventReceivedAt
		}
		if opts.Ascending {
			return a.seq < b.seq
		}
		return a.seq > b.seq
	})

	events := make([]*models.ActivityEvent, len(matched))
	for i := range matched {
		ev := matched[i].event
		events[i] = &ev
	}
	return events, nil
}

func (r *MemoryRepository) SumDepositsInWindow(ctx context.Context, userID int64, window time.Duration) (decimal.Decimal, error) {
	cutoff := windowCutoff(r.now(), window)

	r.mu.RLock()
	defer r.mu.RUnlock()

	total := decimal.Zero
	for _, s := range r.events[userID] {
		if s.event.IsDeposit() && s.event.EventReceivedAt >= cutoff {
			total = total.Add(s.event.Amount)
		}
	}
	return total, nil
}
