package store

import (
	"context"
	"testing"
)

type widget struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestCreateReadUpdateDelete(t *testing.T) {
	s, err := Open(":memory:", nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Create(ctx, "widgets", "name", "gizmo", widget{Name: "gizmo", Count: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}

	var got widget
	if err := s.Read(ctx, "widgets", "name", "gizmo", &got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Count != 1 {
		t.Fatalf("expected count 1, got %d", got.Count)
	}

	if err := s.Update(ctx, "widgets", "name", "gizmo", widget{Name: "gizmo", Count: 2}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.Read(ctx, "widgets", "name", "gizmo", &got); err != nil {
		t.Fatalf("read after update: %v", err)
	}
	if got.Count != 2 {
		t.Fatalf("expected count 2 after update, got %d", got.Count)
	}

	if err := s.Delete(ctx, "widgets", "name", "gizmo"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Read(ctx, "widgets", "name", "gizmo", &got); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCreateDuplicateKeyFails(t *testing.T) {
	s, err := Open(":memory:", nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Create(ctx, "widgets", "name", "gizmo", widget{Name: "gizmo"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Create(ctx, "widgets", "name", "gizmo", widget{Name: "gizmo"}); err != ErrAlreadyExists {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestUpdateAndDeleteMissingKeyNotFound(t *testing.T) {
	s, err := Open(":memory:", nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Update(ctx, "widgets", "name", "ghost", widget{}); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
	if err := s.Delete(ctx, "widgets", "name", "ghost"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}
}

func TestListReturnsAllRecordsInTable(t *testing.T) {
	s, err := Open(":memory:", nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	s.Create(ctx, "widgets", "name", "a", widget{Name: "a", Count: 1})
	s.Create(ctx, "widgets", "name", "b", widget{Name: "b", Count: 2})
	s.Create(ctx, "gadgets", "name", "c", widget{Name: "c", Count: 3})

	raws, err := s.List(ctx, "widgets")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("expected 2 widgets, got %d", len(raws))
	}
}
