package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"creditdash/internal/cache"
)

func TestManager_CreateGetSave(t *testing.T) {
	ctx := context.Background()
	m := NewManager(cache.NewMemoryStore(), time.Hour)

	st, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if st.ID == "" {
		t.Fatalf("empty session id")
	}
	st.ThreadID = "t1"
	st.Messages = append(st.Messages, ChatMessage{Role: RoleUser, Content: "hi"})
	if err := m.Save(ctx, st); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := m.Get(ctx, st.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ThreadID != "t1" || len(got.Messages) != 1 || got.Messages[0].Content != "hi" {
		t.Fatalf("got=%+v", got)
	}
}

func TestManager_UnknownSession(t *testing.T) {
	m := NewManager(cache.NewMemoryStore(), time.Hour)
	if _, err := m.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
	if _, err := m.Get(context.Background(), ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty id err=%v want ErrNotFound", err)
	}
}

func TestManager_InvalidateCacheBumpsGeneration(t *testing.T) {
	ctx := context.Background()
	m := NewManager(cache.NewMemoryStore(), time.Hour)
	st, _ := m.Create(ctx)

	updated, err := m.InvalidateCache(ctx, st.ID)
	if err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if updated.CacheGeneration != st.CacheGeneration+1 {
		t.Fatalf("generation=%d want %d", updated.CacheGeneration, st.CacheGeneration+1)
	}
	reloaded, _ := m.Get(ctx, st.ID)
	if reloaded.CacheGeneration != updated.CacheGeneration {
		t.Fatalf("generation not persisted: %d", reloaded.CacheGeneration)
	}
}

func TestManager_Delete(t *testing.T) {
	ctx := context.Background()
	m := NewManager(cache.NewMemoryStore(), time.Hour)
	st, _ := m.Create(ctx)
	if err := m.Delete(ctx, st.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.Get(ctx, st.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
}

func TestState_ClearConversationKeepsGeneration(t *testing.T) {
	st := &State{ID: "s", ThreadID: "t1", CacheGeneration: 3, Messages: []ChatMessage{{Role: RoleUser, Content: "q"}}}
	cp := st.Clone()
	cp.ClearConversation()
	if cp.ThreadID != "" || len(cp.Messages) != 0 {
		t.Fatalf("conversation not cleared: %+v", cp)
	}
	if cp.CacheGeneration != 3 {
		t.Fatalf("generation=%d want 3", cp.CacheGeneration)
	}
	if len(st.Messages) != 1 || st.ThreadID != "t1" {
		t.Fatalf("clone shares state with original: %+v", st)
	}
}
