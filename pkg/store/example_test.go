package store_test

import (
	"context"
	"fmt"
	"log"

	"github.com/chicogong/ffgraph/pkg/store"
)

// Example_basic saves a graph and records its compiled command
func Example_basic() {
	s := store.NewMemoryStore()
	defer s.Close()

	ctx := context.Background()

	rec := &store.Record{
		ID:       "pip",
		Name:     "picture in picture",
		Document: []byte(`{"__kind__":"Output","filename":"out.mp4"}`),
		Hash:     "3f1c",
		Nodes:    4,
	}
	if err := s.Create(ctx, rec); err != nil {
		log.Fatal(err)
	}

	if err := s.SetCommand(ctx, "pip", []string{"ffmpeg", "-i", "in.mp4", "out.mp4"}); err != nil {
		log.Fatal(err)
	}

	got, err := s.Get(ctx, "pip")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Name: %s\n", got.Name)
	fmt.Printf("Compiled: %v\n", got.IsCompiled())
	fmt.Printf("Args: %d\n", len(got.Command))
	// Output:
	// Name: picture in picture
	// Compiled: true
	// Args: 4
}
