package service

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-memdb"
	"github.com/voyagen/regiontv/internal/metrics"
	"github.com/voyagen/regiontv/internal/models"
)

// State is where a region is in its load lifecycle.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// Snapshot is the current channel list of one region. Snapshots are
// immutable once stored; callers must not modify Channels.
type Snapshot struct {
	Region     models.Region
	Generation uint64
	State      State
	RunID      string
	Source     models.SourceType
	Channels   []models.Channel
	Error      string // user-facing message when State is StateFailed
	UpdatedAt  time.Time
}

const regionsTable = "regions"

// Catalog holds the latest snapshot per region. A write carrying an older
// generation than the stored one is discarded, so a slow, stale load can
// never overwrite a newer one.
type Catalog struct {
	db *memdb.MemDB
}

// NewCatalog creates an empty catalog.
func NewCatalog() (*Catalog, error) {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			regionsTable: {
				Name: regionsTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Region"},
					},
				},
			},
		},
	}
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("memdb: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Begin marks region as loading under generation gen and clears its list.
// It returns false if a newer generation is already recorded.
func (c *Catalog) Begin(region models.Region, gen uint64) bool {
	return c.put(&Snapshot{
		Region:     region,
		Generation: gen,
		State:      StateLoading,
		Channels:   []models.Channel{},
		UpdatedAt:  time.Now(),
	})
}

// Apply stores a finished load. It returns false when res is stale.
func (c *Catalog) Apply(res Result) bool {
	snap := &Snapshot{
		Region:     res.Region,
		Generation: res.Generation,
		RunID:      res.RunID,
		Source:     res.Source,
		Channels:   res.Channels,
		UpdatedAt:  time.Now(),
	}
	if res.OK() {
		snap.State = StateReady
	} else {
		snap.State = StateFailed
		snap.Channels = []models.Channel{}
		if res.Err != nil {
			snap.Error = res.Err.Message()
		}
	}
	if !c.put(snap) {
		metrics.StaleResults.WithLabelValues(string(res.Region)).Inc()
		return false
	}
	metrics.Channels.WithLabelValues(string(res.Region)).Set(float64(len(snap.Channels)))
	return true
}

func (c *Catalog) put(snap *Snapshot) bool {
	txn := c.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(regionsTable, "id", string(snap.Region))
	if err != nil {
		return false
	}
	if raw != nil && raw.(*Snapshot).Generation > snap.Generation {
		return false
	}
	if err := txn.Insert(regionsTable, snap); err != nil {
		return false
	}
	txn.Commit()
	return true
}

// Get returns the stored snapshot for region; ok is false if it was never loaded.
func (c *Catalog) Get(region models.Region) (Snapshot, bool) {
	txn := c.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(regionsTable, "id", string(region))
	if err != nil || raw == nil {
		return Snapshot{Region: region, State: StateIdle}, false
	}
	return *raw.(*Snapshot), true
}

// Regions lists regions that have a snapshot, in index order.
func (c *Catalog) Regions() []models.Region {
	txn := c.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(regionsTable, "id")
	if err != nil {
		return nil
	}
	var out []models.Region
	for obj := it.Next(); obj != nil; obj = it.Next() {
		out = append(out, obj.(*Snapshot).Region)
	}
	return out
}

// HasStream reports whether streamURL belongs to a channel of any stored region.
func (c *Catalog) HasStream(streamURL string) bool {
	txn := c.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(regionsTable, "id")
	if err != nil {
		return false
	}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		for _, ch := range obj.(*Snapshot).Channels {
			if ch.URL == streamURL {
				return true
			}
		}
	}
	return false
}
