package application

import (
	"context"

	"github.com/uniscout/identity-engine/internal/domain/entity"
)

// List-field management: dedup/trim/ordering for the favorites lists and
// the recently-viewed list. Every mutation goes through the write coalescer,
// so the UI sees it immediately and the remote sees one batched update.

// AddFavorite appends id to the category's list if absent.
func (e *Engine) AddFavorite(ctx context.Context, id string, cat entity.FavoriteCategory) {
	field, err := entity.FavoriteField(cat)
	if err != nil {
		e.logger.WithError(err).Warn("add favorite")
		return
	}
	e.mu.Lock()
	user := e.state.User
	if user == nil {
		e.mu.Unlock()
		return
	}
	current, _ := user.Favorites(cat)
	for _, existing := range current {
		if existing == id {
			e.mu.Unlock()
			return
		}
	}
	next := append(append([]string(nil), current...), id)
	e.mu.Unlock()

	e.scheduleUpdate(ctx, map[string]any{field: next})
}

// RemoveFavorite filters id out of the category's list.
func (e *Engine) RemoveFavorite(ctx context.Context, id string, cat entity.FavoriteCategory) {
	field, err := entity.FavoriteField(cat)
	if err != nil {
		e.logger.WithError(err).Warn("remove favorite")
		return
	}
	e.mu.Lock()
	user := e.state.User
	if user == nil {
		e.mu.Unlock()
		return
	}
	current, _ := user.Favorites(cat)
	next := make([]string, 0, len(current))
	for _, existing := range current {
		if existing != id {
			next = append(next, existing)
		}
	}
	changed := len(next) != len(current)
	e.mu.Unlock()

	if changed {
		e.scheduleUpdate(ctx, map[string]any{field: next})
	}
}

// IsFavorite is a pure read against the published profile; it reflects
// pending local mutations before any flush completes.
func (e *Engine) IsFavorite(id string, cat entity.FavoriteCategory) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.User == nil {
		return false
	}
	list, err := e.state.User.Favorites(cat)
	if err != nil {
		return false
	}
	for _, existing := range list {
		if existing == id {
			return true
		}
	}
	return false
}

// AddToRecentlyViewed records a view: any prior entry for the same
// (id, type) pair is dropped, the new entry is prepended, and the list is
// trimmed to RecentlyViewedMax. Newest-first and at-most-one-per-item hold
// by construction.
func (e *Engine) AddToRecentlyViewed(ctx context.Context, id, itemType string) {
	e.mu.Lock()
	user := e.state.User
	if user == nil {
		e.mu.Unlock()
		return
	}
	next := make([]entity.RecentlyViewedEntry, 0, len(user.RecentlyViewed)+1)
	next = append(next, entity.RecentlyViewedEntry{ID: id, Type: itemType, ViewedAt: e.now().UTC()})
	for _, entry := range user.RecentlyViewed {
		if entry.ID == id && entry.Type == itemType {
			continue
		}
		next = append(next, entry)
	}
	if len(next) > entity.RecentlyViewedMax {
		next = next[:entity.RecentlyViewedMax]
	}
	e.mu.Unlock()

	e.scheduleUpdate(ctx, map[string]any{"recentlyViewed": next})
}

// ClearRecentlyViewed empties the list.
func (e *Engine) ClearRecentlyViewed(ctx context.Context) {
	e.scheduleUpdate(ctx, map[string]any{"recentlyViewed": []entity.RecentlyViewedEntry{}})
}
