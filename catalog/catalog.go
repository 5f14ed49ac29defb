// Package catalog provides attribute-indexed storage for attraction records.
//
// Records are keyed by id and secondarily queryable by city and category.
// Each record is assigned a dense, insertion-ordered position that aligns it
// with its embedding vector in the index; positions are never reused or
// renumbered.
package catalog

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// ErrNotFound is returned by ByID for an unknown id. It is a normal,
// recoverable outcome, not a failure of the catalog.
var ErrNotFound = errors.New("catalog: attraction not found")

// ErrDuplicateID indicates an Add batch containing an id that already exists
// (or appears twice within the batch).
type ErrDuplicateID struct {
	ID string
}

func (e *ErrDuplicateID) Error() string {
	return fmt.Sprintf("duplicate attraction id: %s", e.ID)
}

// Catalog is the authoritative metadata store.
//
// City and category lookups are backed by roaring bitmaps keyed by the
// lower-cased attribute value; bitmap iteration is ascending, which matches
// insertion order by construction.
//
// Catalog is not safe for concurrent use; the owning engine serializes
// access with a shared-read/exclusive-write discipline.
type Catalog struct {
	records    []Attraction
	idToPos    map[string]uint32
	byCity     map[string]*roaring.Bitmap
	byCategory map[string]*roaring.Bitmap
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		idToPos:    make(map[string]uint32),
		byCity:     make(map[string]*roaring.Bitmap),
		byCategory: make(map[string]*roaring.Bitmap),
	}
}

// Restore rebuilds a catalog from persisted records and the persisted
// id-to-position map. The map is cross-checked against the record list; any
// inconsistency is reported so the caller can fail closed.
func Restore(records []Attraction, idToPos map[string]uint32) (*Catalog, error) {
	if len(idToPos) != len(records) {
		return nil, fmt.Errorf("catalog: id map has %d entries, want %d", len(idToPos), len(records))
	}

	c := New()
	for i, rec := range records {
		pos, ok := idToPos[rec.ID]
		if !ok {
			return nil, fmt.Errorf("catalog: id %q missing from id map", rec.ID)
		}
		if pos != uint32(i) {
			return nil, fmt.Errorf("catalog: id %q maps to position %d, want %d", rec.ID, pos, i)
		}
		c.append(rec)
	}
	return c, nil
}

// Len returns the number of stored records.
func (c *Catalog) Len() int { return len(c.records) }

// CheckBatch validates that every id in the batch is non-empty and unused,
// both against the catalog and within the batch itself. It does not modify
// the catalog.
func (c *Catalog) CheckBatch(records []Attraction) error {
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if rec.ID == "" {
			return errors.New("catalog: empty attraction id")
		}
		if _, ok := c.idToPos[rec.ID]; ok {
			return &ErrDuplicateID{ID: rec.ID}
		}
		if _, ok := seen[rec.ID]; ok {
			return &ErrDuplicateID{ID: rec.ID}
		}
		seen[rec.ID] = struct{}{}
	}
	return nil
}

// Add appends records in order, assigning each the next sequential position.
//
// The batch is atomic: if any id already exists (or repeats within the
// batch) the whole batch is rejected and the catalog is unchanged.
func (c *Catalog) Add(records []Attraction) error {
	if err := c.CheckBatch(records); err != nil {
		return err
	}
	for _, rec := range records {
		c.append(rec)
	}
	return nil
}

func (c *Catalog) append(rec Attraction) {
	pos := uint32(len(c.records))
	c.records = append(c.records, rec)
	c.idToPos[rec.ID] = pos

	cityKey := strings.ToLower(rec.City)
	if c.byCity[cityKey] == nil {
		c.byCity[cityKey] = roaring.New()
	}
	c.byCity[cityKey].Add(pos)

	catKey := strings.ToLower(rec.Category)
	if c.byCategory[catKey] == nil {
		c.byCategory[catKey] = roaring.New()
	}
	c.byCategory[catKey].Add(pos)
}

// ByID returns the record with the given id, or ErrNotFound.
func (c *Catalog) ByID(id string) (Attraction, error) {
	pos, ok := c.idToPos[id]
	if !ok {
		return Attraction{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c.records[pos], nil
}

// ByPosition returns the record at the given catalog position.
func (c *Catalog) ByPosition(position uint32) (Attraction, bool) {
	if int(position) >= len(c.records) {
		return Attraction{}, false
	}
	return c.records[position], true
}

// PositionOf returns the catalog position of the given id.
func (c *Catalog) PositionOf(id string) (uint32, bool) {
	pos, ok := c.idToPos[id]
	return pos, ok
}

// ByCity returns all records whose city matches (case-insensitive), in
// insertion order.
func (c *Catalog) ByCity(city string) []Attraction {
	return c.collect(c.byCity[strings.ToLower(city)])
}

// ByCategory returns all records whose category matches (case-insensitive),
// in insertion order.
func (c *Catalog) ByCategory(category string) []Attraction {
	return c.collect(c.byCategory[strings.ToLower(category)])
}

func (c *Catalog) collect(bm *roaring.Bitmap) []Attraction {
	if bm == nil {
		return nil
	}
	out := make([]Attraction, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, c.records[it.Next()])
	}
	return out
}

// Records returns all records in insertion order.
// The returned slice must not be modified.
func (c *Catalog) Records() []Attraction { return c.records }

// IDToPosition returns a copy of the id-to-position map, suitable for
// persisting in the snapshot sidecar.
func (c *Catalog) IDToPosition() map[string]uint32 {
	return maps.Clone(c.idToPos)
}
