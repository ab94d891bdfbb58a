package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func newRecord(id, name, hash string) *Record {
	return &Record{
		ID:       id,
		Name:     name,
		Hash:     hash,
		Nodes:    3,
		Document: json.RawMessage(`{"__kind__":"Output"}`),
	}
}

// testStore runs a suite of tests against any Store implementation
func testStore(t *testing.T, newStore func() Store) {
	t.Helper()

	t.Run("Create", func(t *testing.T) {
		s := newStore()
		defer s.Close()

		ctx := context.Background()
		rec := newRecord("graph-1", "pip", "aa")
		if err := s.Create(ctx, rec); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}

		got, err := s.Get(ctx, rec.ID)
		if err != nil {
			t.Fatalf("Get() failed: %v", err)
		}
		if got.Name != "pip" {
			t.Errorf("Expected name pip, got %s", got.Name)
		}
		if string(got.Document) != `{"__kind__":"Output"}` {
			t.Errorf("Document mismatch: %s", got.Document)
		}
		if got.Created.IsZero() || !got.Updated.Equal(got.Created) {
			t.Errorf("Expected timestamps to be set, got %v / %v", got.Created, got.Updated)
		}
	})

	t.Run("CreateAssignsID", func(t *testing.T) {
		s := newStore()
		defer s.Close()

		rec := newRecord("", "unnamed", "bb")
		if err := s.Create(context.Background(), rec); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		if len(rec.ID) != 20 {
			t.Errorf("Expected a 20 character xid, got %q", rec.ID)
		}
	})

	t.Run("CreateDuplicate", func(t *testing.T) {
		s := newStore()
		defer s.Close()

		ctx := context.Background()
		if err := s.Create(ctx, newRecord("dup", "a", "aa")); err != nil {
			t.Fatalf("First Create() failed: %v", err)
		}
		if err := s.Create(ctx, newRecord("dup", "b", "bb")); err != ErrGraphExists {
			t.Errorf("Expected ErrGraphExists, got %v", err)
		}
	})

	t.Run("GetNonExistent", func(t *testing.T) {
		s := newStore()
		defer s.Close()

		ctx := context.Background()
		if _, err := s.Get(ctx, "nonexistent"); err != ErrGraphNotFound {
			t.Errorf("Expected ErrGraphNotFound, got %v", err)
		}
		if _, err := s.Get(ctx, ""); err != ErrInvalidID {
			t.Errorf("Expected ErrInvalidID, got %v", err)
		}
	})

	t.Run("ReturnsCopies", func(t *testing.T) {
		s := newStore()
		defer s.Close()

		ctx := context.Background()
		rec := newRecord("copy", "a", "aa")
		rec.Tags = map[string]string{"team": "video"}
		if err := s.Create(ctx, rec); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		rec.Tags["team"] = "audio"
		rec.Document[0] = '['

		got, _ := s.Get(ctx, "copy")
		got.Tags["team"] = "other"
		again, _ := s.Get(ctx, "copy")
		if again.Tags["team"] != "video" {
			t.Errorf("Expected stored tags to be isolated, got %v", again.Tags)
		}
		if again.Document[0] != '{' {
			t.Errorf("Expected stored document to be isolated, got %s", again.Document)
		}
	})

	t.Run("Update", func(t *testing.T) {
		s := newStore()
		defer s.Close()

		ctx := context.Background()
		rec := newRecord("upd", "before", "aa")
		if err := s.Create(ctx, rec); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		if err := s.SetCommand(ctx, "upd", []string{"ffmpeg", "-i", "in.mp4", "out.mp4"}); err != nil {
			t.Fatalf("SetCommand() failed: %v", err)
		}

		rename, _ := s.Get(ctx, "upd")
		rename.Name = "after"
		if err := s.Update(ctx, rename); err != nil {
			t.Fatalf("Update() failed: %v", err)
		}
		got, _ := s.Get(ctx, "upd")
		if got.Name != "after" || !got.IsCompiled() {
			t.Errorf("Expected renamed compiled record, got %+v", got)
		}

		got.Hash = "cc"
		if err := s.Update(ctx, got); err != nil {
			t.Fatalf("Update() failed: %v", err)
		}
		got, _ = s.Get(ctx, "upd")
		if got.IsCompiled() || got.Command != nil {
			t.Errorf("Expected a new graph to drop the stale command, got %v", got.Command)
		}
		if !got.Created.Equal(rec.Created) {
			t.Errorf("Expected Created to be preserved")
		}

		if err := s.Update(ctx, newRecord("missing", "x", "aa")); err != ErrGraphNotFound {
			t.Errorf("Expected ErrGraphNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStore()
		defer s.Close()

		ctx := context.Background()
		if err := s.Create(ctx, newRecord("del", "a", "aa")); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		if err := s.Delete(ctx, "del"); err != nil {
			t.Fatalf("Delete() failed: %v", err)
		}
		if _, err := s.Get(ctx, "del"); err != ErrGraphNotFound {
			t.Errorf("Expected ErrGraphNotFound after delete, got %v", err)
		}
		if err := s.Delete(ctx, "del"); err != ErrGraphNotFound {
			t.Errorf("Expected ErrGraphNotFound on second delete, got %v", err)
		}
	})

	t.Run("SetCommand", func(t *testing.T) {
		s := newStore()
		defer s.Close()

		ctx := context.Background()
		if err := s.SetCommand(ctx, "missing", nil); !errors.Is(err, ErrGraphNotFound) {
			t.Errorf("Expected ErrGraphNotFound, got %v", err)
		}

		if err := s.Create(ctx, newRecord("cmd", "a", "aa")); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		args := []string{"ffmpeg", "-i", "in.mp4", "out.mp4"}
		if err := s.SetCommand(ctx, "cmd", args); err != nil {
			t.Fatalf("SetCommand() failed: %v", err)
		}
		args[0] = "changed"

		got, _ := s.Get(ctx, "cmd")
		if !got.IsCompiled() || got.Command[0] != "ffmpeg" {
			t.Errorf("Expected stored command, got %v", got.Command)
		}
	})

	t.Run("List", func(t *testing.T) {
		s := newStore()
		defer s.Close()

		ctx := context.Background()
		for i := 0; i < 5; i++ {
			rec := newRecord(fmt.Sprintf("g%d", i), fmt.Sprintf("graph-%d", i), "aa")
			rec.Created = time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC)
			if err := s.Create(ctx, rec); err != nil {
				t.Fatalf("Create() failed: %v", err)
			}
		}

		all, err := s.List(ctx, nil)
		if err != nil {
			t.Fatalf("List() failed: %v", err)
		}
		if len(all) != 5 || all[0].ID != "g4" || all[4].ID != "g0" {
			t.Errorf("Expected 5 records newest first, got %d", len(all))
		}

		asc, _ := s.List(ctx, &ListFilter{SortBy: "name", SortOrder: "asc"})
		if asc[0].Name != "graph-0" {
			t.Errorf("Expected graph-0 first, got %s", asc[0].Name)
		}
	})

	t.Run("ListWithFilter", func(t *testing.T) {
		s := newStore()
		defer s.Close()

		ctx := context.Background()
		recs := []*Record{
			newRecord("a", "intro-cut", "h1"),
			newRecord("b", "intro-mix", "h2"),
			newRecord("c", "outro", "h1"),
		}
		recs[0].Tags = map[string]string{"team": "video"}
		for _, r := range recs {
			if err := s.Create(ctx, r); err != nil {
				t.Fatalf("Create() failed: %v", err)
			}
		}

		byName, _ := s.List(ctx, &ListFilter{NamePrefix: "intro"})
		if len(byName) != 2 {
			t.Errorf("Expected 2 intro graphs, got %d", len(byName))
		}
		byHash, _ := s.List(ctx, &ListFilter{Hash: "h1"})
		if len(byHash) != 2 {
			t.Errorf("Expected 2 graphs with hash h1, got %d", len(byHash))
		}
		byTag, _ := s.List(ctx, &ListFilter{Tags: map[string]string{"team": "video"}})
		if len(byTag) != 1 || byTag[0].ID != "a" {
			t.Errorf("Expected only graph a, got %d", len(byTag))
		}
	})

	t.Run("ListWithLimit", func(t *testing.T) {
		s := newStore()
		defer s.Close()

		ctx := context.Background()
		for i := 0; i < 10; i++ {
			if err := s.Create(ctx, newRecord(fmt.Sprintf("page-%02d", i), "p", "aa")); err != nil {
				t.Fatalf("Create() failed: %v", err)
			}
		}

		page, _ := s.List(ctx, &ListFilter{Limit: 3, Offset: 2})
		if len(page) != 3 {
			t.Errorf("Expected 3 records, got %d", len(page))
		}
		empty, _ := s.List(ctx, &ListFilter{Offset: 20})
		if len(empty) != 0 {
			t.Errorf("Expected no records past the end, got %d", len(empty))
		}
	})
}

func TestMemoryStore(t *testing.T) {
	testStore(t, func() Store {
		return NewMemoryStore()
	})
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := newRecord("", "concurrent", "aa")
			if err := s.Create(ctx, rec); err != nil {
				t.Errorf("Create() failed: %v", err)
				return
			}
			if err := s.SetCommand(ctx, rec.ID, []string{"ffmpeg"}); err != nil {
				t.Errorf("SetCommand() failed: %v", err)
			}
		}()
	}
	wg.Wait()

	all, _ := s.List(ctx, nil)
	if len(all) != 50 {
		t.Errorf("Expected 50 records, got %d", len(all))
	}
}
