package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/uniscout/identity-engine/internal/domain/entity"
)

// writeCoalescer accumulates profile field mutations and flushes them as a
// single remote update after a quiescence period. It owns the pending buffer
// and the debounce timer; the engine lock serializes access.
type writeCoalescer struct {
	delay   time.Duration
	pending map[string]any
	timer   *time.Timer
}

// merge folds fields into the pending buffer.
func (w *writeCoalescer) merge(fields map[string]any) {
	if w.pending == nil {
		w.pending = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		w.pending[k] = v
	}
}

// schedule replaces any pending timer with a fresh one. Debounce, not
// throttle: every call restarts the quiescence window.
func (w *writeCoalescer) schedule(fn func()) {
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, fn)
}

// take hands the current buffer to a flush and starts a new generation.
// Updates racing an in-flight flush land in the fresh buffer with their own
// timer and are never lost.
func (w *writeCoalescer) take() map[string]any {
	p := w.pending
	w.pending = nil
	w.timer = nil
	return p
}

func (w *writeCoalescer) cancel() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.pending = nil
}

// scheduleUpdate is the single entry point for profile mutation: it merges
// fields into the pending buffer, applies them optimistically to the
// published profile, persists the merged profile to the local cache, and,
// unless the user is a guest, (re)arms the flush timer. Everything up to
// the timer happens synchronously relative to the caller.
func (e *Engine) scheduleUpdate(ctx context.Context, fields map[string]any) {
	if len(fields) == 0 {
		return
	}
	e.mu.Lock()
	if e.state.User == nil || e.closed {
		e.mu.Unlock()
		return
	}
	e.coalescer.merge(fields)

	updated, err := applyPatch(e.state.User, fields)
	if err != nil {
		e.mu.Unlock()
		e.logger.WithError(err).Error("apply profile patch")
		return
	}
	e.setProfileLocked(updated)
	e.persistProfile(ctx, updated)

	isGuest := updated.IsGuest
	if !isGuest {
		e.coalescer.schedule(func() { e.flush(context.Background()) })
	}
	snap, subs := e.publishLocked()
	e.mu.Unlock()
	notify(snap, subs)
}

// flush snapshots and clears the pending buffer, translates local field
// names to remote ones, and issues one remote update. Failures are logged
// and dropped: the local cache stays authoritative and the fields ride along
// with the next organic write.
func (e *Engine) flush(ctx context.Context) {
	e.mu.Lock()
	pending := e.coalescer.take()
	var userID string
	if e.state.User != nil {
		userID = e.state.User.ID
	}
	e.mu.Unlock()

	if len(pending) == 0 || userID == "" {
		return
	}
	payload := toRemoteFields(pending)
	payload["updated_at"] = e.now().UTC()
	if len(payload) <= 1 {
		// Nothing mapped beyond the timestamp; skip the round-trip.
		return
	}
	if err := e.remote.UpdateProfile(ctx, userID, payload); err != nil {
		e.logger.WithError(err).WithField("user_id", userID).Warn("profile flush dropped")
		return
	}
	e.logger.WithField("fields", len(payload)-1).Debug("profile flush committed")
}

// UpdateProfile merges a partial update, keyed by local field names, into
// the current profile. The UI sees the change immediately; the remote write
// is deferred and batched.
func (e *Engine) UpdateProfile(ctx context.Context, fields map[string]any) {
	e.scheduleUpdate(ctx, fields)
}

// CompleteOnboarding flags onboarding as done locally and remotely. The
// local flag is persisted separately so a remote record that lags behind
// can never un-complete it.
func (e *Engine) CompleteOnboarding(ctx context.Context) {
	if err := e.cache.Set(ctx, e.keys.onboarding, "true"); err != nil {
		e.logger.WithError(err).Warn("persist onboarding flag")
	}
	e.mu.Lock()
	e.state.HasCompletedOnboarding = true
	snap, subs := e.publishLocked()
	e.mu.Unlock()
	notify(snap, subs)
	e.scheduleUpdate(ctx, map[string]any{"onboardingCompleted": true})
}

// applyPatch merges a local-field patch into a copy of the profile. The
// patch keys are the profile's JSON tags, so decoding the patch into the
// copy touches exactly the provided fields.
func applyPatch(p *entity.UserProfile, fields map[string]any) (*entity.UserProfile, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	cp := p.Clone()
	if err := json.Unmarshal(raw, cp); err != nil {
		return nil, err
	}
	return cp, nil
}
