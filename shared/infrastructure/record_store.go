package infrastructure

import (
	"context"
	"sort"
	"sync"

	"github.com/draftea/order-fulfillment/shared/models"
	"github.com/draftea/order-fulfillment/shared/saga"
	"github.com/pkg/errors"
)

var ErrUnknownKind = errors.New("no table configured for record kind")

// RecordStore persists saga records, one table per kind. Save is an upsert
// keyed by the record's own id.
type RecordStore interface {
	Save(ctx context.Context, record models.Record) error
	ObservationsByOrderID(ctx context.Context, orderID string) ([]saga.Observation, error)
}

// Tables maps each record kind to its table name.
type Tables map[models.Kind]string

func (t Tables) lookup(kind models.Kind) (string, error) {
	table, ok := t[kind]
	if !ok || table == "" {
		return "", errors.Wrapf(ErrUnknownKind, "kind %q", kind)
	}
	return table, nil
}

// Repository narrows a RecordStore to one record type, so it satisfies a
// stage's own repository interface.
type Repository[T models.Record] struct {
	store RecordStore
}

func NewRepository[T models.Record](store RecordStore) *Repository[T] {
	return &Repository[T]{store: store}
}

func (r *Repository[T]) Save(ctx context.Context, record T) error {
	return r.store.Save(ctx, record)
}

// MemoryRecordStore keeps records in process. It backs local runs and tests.
type MemoryRecordStore struct {
	mu      sync.RWMutex
	records map[models.Kind]map[string]models.Record
}

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{records: make(map[models.Kind]map[string]models.Record)}
}

func (s *MemoryRecordStore) Save(_ context.Context, record models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID, ok := s.records[record.RecordKind()]
	if !ok {
		byID = make(map[string]models.Record)
		s.records[record.RecordKind()] = byID
	}
	byID[record.RecordID()] = record
	return nil
}

func (s *MemoryRecordStore) ObservationsByOrderID(_ context.Context, orderID string) ([]saga.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []saga.Observation
	for _, kind := range models.Kinds() {
		for _, record := range s.records[kind] {
			if record.RecordOrderID() != orderID {
				continue
			}
			out = append(out, saga.Observation{
				Kind:     kind.String(),
				RecordID: record.RecordID(),
				Status:   record.RecordStatus(),
				At:       record.RecordTime(),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}

// Records returns every stored record of kind.
func (s *MemoryRecordStore) Records(kind models.Kind) []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Record, 0, len(s.records[kind]))
	for _, r := range s.records[kind] {
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RecordTime().Before(out[j].RecordTime()) })
	return out
}
