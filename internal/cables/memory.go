package cables

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/seacable/atlas-backend/internal/geo"
)

// MemoryStore is a Repository held in process memory. It backs the offline
// CLI reports and handler tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records []CableRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Append(_ context.Context, in NewRecord) (CableRecord, error) {
	rec, err := Prepare(in)
	if err != nil {
		return CableRecord{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	rec.Seq = int64(len(m.records) + 1)
	rec.CreatedAt = time.Now()
	m.records = append(m.records, rec)
	return rec, nil
}

func (m *MemoryStore) Features(_ context.Context) ([]geo.Feature, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return decodeRecords(m.records)
}

// LoadDir appends one record per *.geojson file in dir, in name order.
func LoadDir(ctx context.Context, a Appender, dir string) ([]CableRecord, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.geojson"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	records := make([]CableRecord, 0, len(paths))
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			return records, err
		}
		features, err := geo.DecodeRecord(raw)
		if err != nil {
			return records, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		rec, err := a.Append(ctx, NewRecord{Features: features, Source: filepath.Base(p)})
		if err != nil {
			return records, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		records = append(records, rec)
	}
	return records, nil
}
