package testsupport

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"lathe/internal/catalog"
)

// MemoryCatalog is an in-memory catalog.Store for unit tests. Scan order is
// insertion order, matching the unordered-scan contract of the real stores.
type MemoryCatalog struct {
	mu      sync.Mutex
	order   []catalog.Key
	records map[catalog.Key]*catalog.Record

	QueryErr  error
	ScanErr   error
	PutErr    error
	UpdateErr error
}

// NewMemoryCatalog creates an empty in-memory store.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{records: make(map[catalog.Key]*catalog.Record)}
}

func (m *MemoryCatalog) Query(ctx context.Context, id string) (*catalog.Record, error) {
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var matches []*catalog.Record
	for _, key := range m.order {
		if key.ID == id {
			matches = append(matches, m.records[key])
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedDate < matches[j].CreatedDate })
	return matches[0].Clone(), nil
}

func (m *MemoryCatalog) ScanPromotable(ctx context.Context) ([]*catalog.Record, error) {
	if m.ScanErr != nil {
		return nil, m.ScanErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var records []*catalog.Record
	for _, key := range m.order {
		record := m.records[key]
		if record.Status == catalog.StatusProcessed && record.PromotionStatus == "" {
			records = append(records, record.Clone())
		}
	}
	return records, nil
}

func (m *MemoryCatalog) Put(ctx context.Context, record *catalog.Record) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := record.Key()
	if _, exists := m.records[key]; !exists {
		m.order = append(m.order, key)
	}
	m.records[key] = record.Clone()
	return nil
}

func (m *MemoryCatalog) Update(ctx context.Context, key catalog.Key, fields catalog.FieldSet) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record, exists := m.records[key]
	if !exists {
		return fmt.Errorf("update record: no record for %s/%s", key.ID, key.CreatedDate)
	}
	if fields.Status != nil {
		record.Status = *fields.Status
	}
	if fields.PromotionStatus != nil {
		record.PromotionStatus = *fields.PromotionStatus
	}
	if fields.PromotedAt != nil {
		record.PromotedAt = fields.PromotedAt.UTC().Format(time.RFC3339)
	}
	return nil
}

func (m *MemoryCatalog) Delete(ctx context.Context, key catalog.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[key]; !exists {
		return nil
	}
	delete(m.records, key)
	for i, existing := range m.order {
		if existing == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns a copy of the stored record for direct assertions, or nil.
func (m *MemoryCatalog) Get(key catalog.Key) *catalog.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, exists := m.records[key]
	if !exists {
		return nil
	}
	return record.Clone()
}

// Len reports the number of stored records.
func (m *MemoryCatalog) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
