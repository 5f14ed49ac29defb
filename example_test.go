package wander_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/wander"
	"github.com/hupe1980/wander/blobstore"
	"github.com/hupe1980/wander/catalog"
	"github.com/hupe1980/wander/embedding"
)

func Example() {
	ctx := context.Background()

	// The stub provider is deterministic and offline; swap in
	// openai.New(apiKey) for real semantic embeddings.
	engine, err := wander.New(embedding.NewStub(64))
	if err != nil {
		log.Fatal(err)
	}

	err = engine.Add(ctx, []catalog.Attraction{
		{ID: "Kyoto_000", City: "Kyoto", Name: "Kinkaku-ji", Description: "golden pavilion temple by a mirror pond", Category: "Temple", AvgCost: 4},
		{ID: "Kyoto_001", City: "Kyoto", Name: "Nishiki Market", Description: "covered market street with local food stalls", Category: "Market", AvgCost: 15},
		{ID: "Osaka_000", City: "Osaka", Name: "Osaka Castle", Description: "reconstructed castle with museum and park", Category: "Castle", AvgCost: 6},
	})
	if err != nil {
		log.Fatal(err)
	}

	maxCost := 10.0
	results, err := engine.Search(ctx, "historic temples and castles", 5, &wander.SearchFilter{MaxCost: &maxCost})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%d of %d attractions under budget\n", len(results), engine.Len())
	// Output:
	// 2 of 3 attractions under budget
}

func Example_snapshot() {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	engine, err := wander.New(embedding.NewStub(64), wander.WithBlobStore(store))
	if err != nil {
		log.Fatal(err)
	}

	err = engine.Add(ctx, []catalog.Attraction{
		{ID: "Lima_000", City: "Lima", Name: "Plaza Mayor", Description: "colonial main square with cathedral", Category: "Square"},
		{ID: "Lima_001", City: "Lima", Name: "Larco Museum", Description: "pre-columbian art museum in a mansion", Category: "Museum"},
	})
	if err != nil {
		log.Fatal(err)
	}

	if err := engine.SaveSnapshot(ctx, "peru"); err != nil {
		log.Fatal(err)
	}

	restored, err := wander.New(embedding.NewStub(64), wander.WithBlobStore(store))
	if err != nil {
		log.Fatal(err)
	}
	if err := restored.LoadSnapshot(ctx, "peru"); err != nil {
		log.Fatal(err)
	}

	fmt.Println("restored:", restored.Len())
	// Output:
	// restored: 2
}
