package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"creditdash/internal/cache"
)

var ErrNotFound = errors.New("session not found")

// Manager persists session state in a cache.Store. Every save pushes the
// expiry out by the idle TTL.
type Manager struct {
	store   cache.Store
	idleTTL time.Duration
	now     func() time.Time
}

func NewManager(store cache.Store, idleTTL time.Duration) *Manager {
	if idleTTL <= 0 {
		idleTTL = 8 * time.Hour
	}
	return &Manager{store: store, idleTTL: idleTTL, now: time.Now}
}

func stateKey(id string) string {
	return "cd:session:" + id
}

func (m *Manager) Create(ctx context.Context) (*State, error) {
	now := m.now().UTC()
	st := &State{
		ID:        uuid.NewString(),
		Messages:  []ChatMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.put(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (m *Manager) Get(ctx context.Context, id string) (*State, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	b, found, err := m.store.Get(ctx, stateKey(id))
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if st.Messages == nil {
		st.Messages = []ChatMessage{}
	}
	return &st, nil
}

// Touch loads the session and extends its idle expiry.
func (m *Manager) Touch(ctx context.Context, id string) (*State, error) {
	st, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.put(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (m *Manager) Save(ctx context.Context, st *State) error {
	if st == nil || st.ID == "" {
		return ErrNotFound
	}
	st.UpdatedAt = m.now().UTC()
	return m.put(ctx, st)
}

// InvalidateCache bumps the cache generation so every result cached for the
// session is bypassed from now on.
func (m *Manager) InvalidateCache(ctx context.Context, id string) (*State, error) {
	st, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	st.CacheGeneration++
	if err := m.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.store.Delete(ctx, stateKey(id))
}

func (m *Manager) put(ctx context.Context, st *State) error {
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := m.store.Set(ctx, stateKey(st.ID), b, m.idleTTL); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}
