package wander

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/wander/blobstore"
	"github.com/hupe1980/wander/catalog"
	"github.com/hupe1980/wander/distance"
	"github.com/hupe1980/wander/embedding"
	"github.com/hupe1980/wander/persistence"
)

// scriptedProvider returns fixed vectors per text, so tests control
// similarity scores exactly.
type scriptedProvider struct {
	dim  int
	vecs map[string][]float32
}

func (p *scriptedProvider) Embed(_ context.Context, text string) ([]float32, error) {
	v, ok := p.vecs[text]
	if !ok {
		return nil, fmt.Errorf("no vector scripted for %q", text)
	}
	return slices.Clone(v), nil
}

func (p *scriptedProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := p.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (p *scriptedProvider) Dimensions() int { return p.dim }

// failingProvider fails every call; used to prove certain paths never
// reach the embedding backend.
type failingProvider struct{ dim int }

func (p *failingProvider) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("backend should not be called")
}

func (p *failingProvider) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("backend should not be called")
}

func (p *failingProvider) Dimensions() int { return p.dim }

func TestSearchRanksBeforeFiltering(t *testing.T) {
	ctx := context.Background()

	// Similarity to the query descends P1 > P2 > P3.
	provider := &scriptedProvider{
		dim: 3,
		vecs: map[string][]float32{
			"grand city museum":   {1, 0, 0},
			"museum of history":   {0.8, 0.6, 0},
			"small gallery annex": {0.6, 0.8, 0},
			"museum":              {1, 0, 0},
		},
	}

	engine, err := New(provider)
	require.NoError(t, err)

	require.NoError(t, engine.Add(ctx, []catalog.Attraction{
		{ID: "P1", City: "Paris", Name: "Grand City Museum", Description: "grand city museum", Category: "Museum", AvgCost: 10},
		{ID: "P2", City: "Paris", Name: "History Museum", Description: "museum of history", Category: "Museum", AvgCost: 20},
		{ID: "P3", City: "Paris", Name: "Gallery Annex", Description: "small gallery annex", Category: "Gallery", AvgCost: 30},
	}))

	t.Run("Unfiltered", func(t *testing.T) {
		results, err := engine.Search(ctx, "museum", 3, nil)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "P1", results[0].ID)
		assert.Equal(t, "P2", results[1].ID)
		assert.Equal(t, "P3", results[2].ID)
		assert.InDelta(t, 1.0, results[0].Similarity, 1e-5)
		assert.Greater(t, results[1].Similarity, results[2].Similarity)
	})

	t.Run("MaxCostFilter", func(t *testing.T) {
		// P3 is excluded by cost alone; the limit never comes into play
		// because only two records pass the filter.
		maxCost := 25.0
		results, err := engine.Search(ctx, "museum", 10, &SearchFilter{MaxCost: &maxCost})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "P1", results[0].ID)
		assert.Equal(t, "P2", results[1].ID)
	})

	t.Run("MaxCostInclusive", func(t *testing.T) {
		maxCost := 20.0
		results, err := engine.Search(ctx, "museum", 10, &SearchFilter{MaxCost: &maxCost})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "P2", results[1].ID)
	})

	t.Run("TopHitFilteredOut", func(t *testing.T) {
		// With limit 1 a pre-truncated candidate set would contain only
		// P1 and return nothing; the complete ranking still finds P3.
		results, err := engine.Search(ctx, "museum", 1, &SearchFilter{Category: "gallery"})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "P3", results[0].ID)
	})

	t.Run("CategoryAndCity", func(t *testing.T) {
		results, err := engine.Search(ctx, "museum", 5, &SearchFilter{Category: "museum", City: "PARIS"})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "P1", results[0].ID)
	})

	t.Run("NoMatches", func(t *testing.T) {
		results, err := engine.Search(ctx, "museum", 5, &SearchFilter{Category: "Beach"})
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestSearchEmptyCatalog(t *testing.T) {
	// The failing provider proves an empty catalog short-circuits before
	// any embedding call.
	engine, err := New(&failingProvider{dim: 4})
	require.NoError(t, err)

	results, err := engine.Search(context.Background(), "anything", 10, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchNonPositiveLimit(t *testing.T) {
	ctx := context.Background()

	// The failing provider proves a non-positive limit short-circuits
	// before any embedding call.
	engine, err := New(&failingProvider{dim: 8})
	require.NoError(t, err)

	for _, limit := range []int{0, -3} {
		results, err := engine.Search(ctx, "anything", limit, nil)
		require.NoError(t, err)
		assert.Empty(t, results)
	}
}

func TestSearchProviderError(t *testing.T) {
	ctx := context.Background()
	engine, err := New(embedding.NewStub(8))
	require.NoError(t, err)
	require.NoError(t, engine.Add(ctx, []catalog.Attraction{
		{ID: "A", City: "Rome", Description: "forum ruins", Category: "Monument"},
	}))

	// Swap in a failing provider by rebuilding with the same state is not
	// possible, so exercise the error path through ingest instead.
	broken, err := New(&failingProvider{dim: 8})
	require.NoError(t, err)
	err = broken.Add(ctx, []catalog.Attraction{{ID: "B", Description: "x"}})
	assert.ErrorIs(t, err, ErrEmbeddingProvider)
	assert.Equal(t, 0, broken.Len())
}

func TestAddAtomicity(t *testing.T) {
	ctx := context.Background()

	t.Run("DuplicateID", func(t *testing.T) {
		engine, err := New(embedding.NewStub(8))
		require.NoError(t, err)

		require.NoError(t, engine.Add(ctx, []catalog.Attraction{
			{ID: "Rome_000", City: "Rome", Description: "colosseum arena", Category: "Monument"},
		}))

		err = engine.Add(ctx, []catalog.Attraction{
			{ID: "Rome_001", City: "Rome", Description: "trevi fountain", Category: "Monument"},
			{ID: "Rome_000", City: "Rome", Description: "colosseum arena", Category: "Monument"},
		})
		require.Error(t, err)

		var dup *ErrDuplicateID
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "Rome_000", dup.ID)

		// Nothing from the failed batch landed.
		assert.Equal(t, 1, engine.Len())
		_, err = engine.ByID("Rome_001")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("EmbeddingFailure", func(t *testing.T) {
		provider := &scriptedProvider{
			dim:  3,
			vecs: map[string][]float32{"known text": {1, 0, 0}},
		}
		engine, err := New(provider)
		require.NoError(t, err)

		err = engine.Add(ctx, []catalog.Attraction{
			{ID: "A", Description: "known text"},
			{ID: "B", Description: "unknown text"},
		})
		assert.ErrorIs(t, err, ErrEmbeddingProvider)
		assert.Equal(t, 0, engine.Len())
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		provider := &scriptedProvider{
			dim: 3,
			vecs: map[string][]float32{
				"good": {1, 0, 0},
				"bad":  {1, 0}, // wrong length
			},
		}
		engine, err := New(provider)
		require.NoError(t, err)

		err = engine.Add(ctx, []catalog.Attraction{
			{ID: "A", Description: "good"},
			{ID: "B", Description: "bad"},
		})
		require.Error(t, err)

		var dm *ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 3, dm.Expected)
		assert.Equal(t, 2, dm.Actual)
		assert.Equal(t, 0, engine.Len())
	})

	t.Run("EmptyBatch", func(t *testing.T) {
		engine, err := New(&failingProvider{dim: 8})
		require.NoError(t, err)
		assert.NoError(t, engine.Add(ctx, nil))
	})
}

func TestLookups(t *testing.T) {
	ctx := context.Background()
	engine, err := New(embedding.NewStub(16))
	require.NoError(t, err)

	require.NoError(t, engine.Add(ctx, []catalog.Attraction{
		{ID: "Paris_000", City: "Paris", Description: "art museum", Category: "Museum", Rating: 4.7, AvgCost: 17},
		{ID: "Paris_001", City: "Paris", Description: "city park", Category: "Park", Rating: 4.5},
		{ID: "Tokyo_000", City: "Tokyo", Description: "ancient temple", Category: "Temple", Rating: 4.6},
	}))

	rec, err := engine.ByID("Tokyo_000")
	require.NoError(t, err)
	assert.Equal(t, "Tokyo", rec.City)

	_, err = engine.ByID("Nope")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Len(t, engine.ByCity("paris"), 2)
	assert.Len(t, engine.ByCategory("TEMPLE"), 1)

	stats := engine.Statistics()
	assert.Equal(t, 3, stats.TotalAttractions)
	assert.Equal(t, 2, stats.Cities)
	assert.InDelta(t, (4.7+4.5+4.6)/3, stats.AvgRating, 1e-9)
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	engine, err := New(embedding.NewStub(32),
		WithBlobStore(store),
		WithCompression(persistence.CompressionZSTD),
	)
	require.NoError(t, err)

	require.NoError(t, engine.Add(ctx, []catalog.Attraction{
		{ID: "Lisbon_000", City: "Lisbon", Description: "hilltop castle with city views", Category: "Castle", AvgCost: 12},
		{ID: "Lisbon_001", City: "Lisbon", Description: "tiled riverside monastery", Category: "Monument", AvgCost: 10},
		{ID: "Porto_000", City: "Porto", Description: "wine cellars by the river", Category: "Market", AvgCost: 25},
	}))
	require.NoError(t, engine.SaveSnapshot(ctx, "portugal"))

	restored, err := New(embedding.NewStub(32), WithBlobStore(store))
	require.NoError(t, err)
	require.NoError(t, restored.LoadSnapshot(ctx, "portugal"))

	assert.Equal(t, engine.Len(), restored.Len())
	assert.Equal(t, engine.Statistics(), restored.Statistics())

	// Rankings survive the round trip bit-for-bit.
	want, err := engine.Search(ctx, "historic castle overlooking the city", 3, nil)
	require.NoError(t, err)
	got, err := restored.Search(ctx, "historic castle overlooking the city", 3, nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadSnapshotFailsClosed(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	engine, err := New(embedding.NewStub(16), WithBlobStore(store))
	require.NoError(t, err)
	require.NoError(t, engine.Add(ctx, []catalog.Attraction{
		{ID: "A", City: "Rome", Description: "forum ruins", Category: "Monument"},
	}))
	require.NoError(t, engine.SaveSnapshot(ctx, "rome"))

	t.Run("DimensionMismatch", func(t *testing.T) {
		other, err := New(embedding.NewStub(8), WithBlobStore(store))
		require.NoError(t, err)

		err = other.LoadSnapshot(ctx, "rome")
		var dm *ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 8, dm.Expected)
		assert.Equal(t, 16, dm.Actual)
		assert.Equal(t, 0, other.Len())
	})

	t.Run("CorruptBlobLeavesStateUntouched", func(t *testing.T) {
		blob, err := blobstore.ReadAll(ctx, store, "rome.vec")
		require.NoError(t, err)
		blob[persistence.HeaderSize] ^= 0xFF
		require.NoError(t, store.Put(ctx, "rome.vec", blob))

		other, err := New(embedding.NewStub(16), WithBlobStore(store))
		require.NoError(t, err)
		require.NoError(t, other.Add(ctx, []catalog.Attraction{
			{ID: "B", City: "Milan", Description: "gothic cathedral", Category: "Monument"},
		}))

		err = other.LoadSnapshot(ctx, "rome")
		assert.ErrorIs(t, err, ErrCorruptSnapshot)

		// Prior state survives a failed load.
		assert.Equal(t, 1, other.Len())
		_, err = other.ByID("B")
		assert.NoError(t, err)
	})
}

// TestTrueTopK cross-checks Search against a brute-force reference over
// randomized catalogs and filters.
func TestTrueTopK(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	cities := []string{"Rome", "Paris", "Tokyo", "Lima"}
	categories := []string{"Museum", "Park", "Temple", "Market"}

	for trial := 0; trial < 20; trial++ {
		stub := embedding.NewStub(24)
		engine, err := New(stub)
		require.NoError(t, err)

		n := 1 + rng.Intn(100)
		attractions := make([]catalog.Attraction, n)
		for i := range attractions {
			attractions[i] = catalog.Attraction{
				ID:          fmt.Sprintf("attr_%03d", i),
				City:        cities[rng.Intn(len(cities))],
				Category:    categories[rng.Intn(len(categories))],
				Description: fmt.Sprintf("place number %d with flavor %d", i, rng.Intn(5)),
				AvgCost:     float64(rng.Intn(60)),
			}
		}
		require.NoError(t, engine.Add(ctx, attractions))

		var filter *SearchFilter
		if rng.Intn(2) == 0 {
			maxCost := float64(rng.Intn(40))
			filter = &SearchFilter{
				City:    cities[rng.Intn(len(cities))],
				MaxCost: &maxCost,
			}
		}
		limit := 1 + rng.Intn(15)
		query := fmt.Sprintf("query flavor %d", rng.Intn(5))

		got, err := engine.Search(ctx, query, limit, filter)
		require.NoError(t, err)

		want := bruteForceSearch(t, stub, attractions, query, limit, filter)
		require.Len(t, got, len(want), "trial %d", trial)
		for i := range want {
			assert.Equal(t, want[i].ID, got[i].ID, "trial %d result %d", trial, i)
			assert.Equal(t, want[i].Similarity, got[i].Similarity, "trial %d result %d", trial, i)
		}
	}
}

// bruteForceSearch is an independent reference: score everything, sort by
// score descending with insertion order as tiebreak, filter, truncate.
func bruteForceSearch(t *testing.T, provider embedding.Provider, attractions []catalog.Attraction, query string, limit int, filter *SearchFilter) []SearchResult {
	t.Helper()
	ctx := context.Background()

	qv, err := provider.Embed(ctx, query)
	require.NoError(t, err)
	q, ok := distance.NormalizeL2Copy(qv)
	require.True(t, ok)

	type scored struct {
		pos   int
		score float32
	}
	all := make([]scored, len(attractions))
	for i, a := range attractions {
		v, err := provider.Embed(ctx, a.Description)
		require.NoError(t, err)
		nv, ok := distance.NormalizeL2Copy(v)
		require.True(t, ok)
		all[i] = scored{pos: i, score: distance.Dot(q, nv)}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].pos < all[j].pos
	})

	var out []SearchResult
	for _, s := range all {
		a := attractions[s.pos]
		if !filter.Matches(&a) {
			continue
		}
		out = append(out, SearchResult{Attraction: a, Similarity: s.score})
		if len(out) == limit {
			break
		}
	}
	return out
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	engine, err := New(embedding.NewStub(16))
	require.NoError(t, err)

	seed := make([]catalog.Attraction, 50)
	for i := range seed {
		seed[i] = catalog.Attraction{
			ID:          fmt.Sprintf("seed_%03d", i),
			City:        "Rome",
			Category:    "Museum",
			Description: fmt.Sprintf("roman museum %d", i),
		}
	}
	require.NoError(t, engine.Add(ctx, seed))

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(2)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				_, err := engine.Search(ctx, "ancient roman art", 10, nil)
				assert.NoError(t, err)
				_ = engine.ByCity("rome")
				_ = engine.Statistics()
			}
		}(g)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				err := engine.Add(ctx, []catalog.Attraction{{
					ID:          fmt.Sprintf("w%d_%03d", g, i),
					City:        "Rome",
					Category:    "Park",
					Description: fmt.Sprintf("park %d %d", g, i),
				}})
				assert.NoError(t, err)
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 50+4*5, engine.Len())
}
