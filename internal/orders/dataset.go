package orders

import (
	"encoding/csv"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Snapshot is one immutable load of the dataset. A reload or upload builds a
// whole new snapshot and swaps it in; nothing mutates lines in place, so
// handlers can aggregate over a snapshot while another one is being staged.
type Snapshot struct {
	ID          string
	Source      string
	LoadedAt    time.Time
	Lines       []OrderLine
	CustomerKey string
	HasCity     bool
	MinDate     time.Time
	MaxDate     time.Time
}

// NewSnapshot wraps a normalized dataset with identity and date bounds.
func NewSnapshot(source string, res *NormalizeResult) *Snapshot {
	snap := &Snapshot{
		ID:          uuid.New().String(),
		Source:      source,
		LoadedAt:    time.Now(),
		Lines:       res.Lines,
		CustomerKey: res.CustomerKey,
		HasCity:     res.HasCity,
	}
	// lines are sorted chronologically by the normalizer
	if len(res.Lines) > 0 {
		snap.MinDate = DayOf(res.Lines[0].PurchaseTimestamp)
		snap.MaxDate = DayOf(res.Lines[len(res.Lines)-1].PurchaseTimestamp)
	}
	return snap
}

// Store holds the current dataset snapshot for the analytics service.
type Store struct {
	mu   sync.RWMutex
	snap *Snapshot
}

func NewStore() *Store {
	return &Store{}
}

// Swap replaces the current snapshot.
func (s *Store) Swap(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
}

// Current returns the active snapshot, or false if none has been loaded yet.
func (s *Store) Current() (*Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return nil, false
	}
	return s.snap, true
}

// LoadCSVFile reads and normalizes a CSV export from disk. Used by the cron
// refresher; uploads go through the analytics service instead.
func LoadCSVFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	res, err := NormalizeRecords(records)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(path, res), nil
}
