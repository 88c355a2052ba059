package application

import (
	"context"

	"github.com/uniscout/identity-engine/internal/domain/repository"
)

// Init bootstraps the engine: one synchronous pass over the local cache for
// the fast path, then background reconciliation against the remote service.
// It never fails to its caller; any trouble degrades to a published
// signed-out (or cached) state with IsLoading false.
func (e *Engine) Init(ctx context.Context) {
	localFlag := false
	if v, ok, err := e.cache.Get(ctx, e.keys.onboarding); err == nil && ok {
		localFlag = v == "true"
	}

	if cached, ok := e.cachedProfile(ctx); ok {
		e.mu.Lock()
		e.setProfileLocked(cached)
		e.state.HasCompletedOnboarding = cached.OnboardingCompleted || localFlag
		snap, subs := e.publishLocked()
		e.mu.Unlock()
		notify(snap, subs)

		if !cached.IsGuest {
			// Offline-first: an invalid session is logged, never forced out.
			// Cached credentials stay usable until an explicit sign-out.
			go e.validateSession(context.Background())
		}
	} else {
		sess, err := e.remote.GetSession(ctx)
		switch {
		case err != nil:
			e.logger.WithError(err).Warn("bootstrap session lookup failed")
			e.publishSignedOut()
		case sess != nil:
			if err := e.loadProfile(ctx, sess, false); err != nil {
				e.logger.WithError(err).Warn("bootstrap profile load failed")
				e.publishSignedOut()
			}
		default:
			e.publishSignedOut()
		}
	}

	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return
	}
	unsub := e.remote.OnAuthStateChange(e.handleAuthEvent)
	e.mu.Lock()
	e.unsubAuth = unsub
	e.mu.Unlock()
}

func (e *Engine) publishSignedOut() {
	e.mu.Lock()
	e.state.IsLoading = false
	snap, subs := e.publishLocked()
	e.mu.Unlock()
	notify(snap, subs)
}

// validateSession is the slow path behind the cache fast path.
func (e *Engine) validateSession(ctx context.Context) {
	sess, err := e.remote.GetSession(ctx)
	if err != nil {
		e.logger.WithError(err).Debug("background session check failed")
		return
	}
	if sess == nil {
		e.logger.Info("cached profile has no remote session; keeping local state")
	}
}

// handleAuthEvent reacts to the remote sign-in/sign-out stream for the
// lifetime of the engine.
func (e *Engine) handleAuthEvent(ev repository.AuthEvent) {
	ctx := context.Background()
	switch ev.Type {
	case repository.AuthEventSignedIn:
		if ev.Session == nil {
			return
		}
		if err := e.loadProfile(ctx, ev.Session, false); err != nil {
			e.logger.WithError(err).Warn("auth event profile load failed")
		}
	case repository.AuthEventSignedOut:
		e.mu.Lock()
		// A remote sign-out cannot evict a guest: guest identity is a pure
		// local-cache construct.
		if e.state.IsGuest {
			e.mu.Unlock()
			return
		}
		e.resetStateLocked()
		snap, subs := e.publishLocked()
		e.mu.Unlock()
		if err := e.cache.Remove(ctx, e.keys.authKeys()...); err != nil {
			e.logger.WithError(err).Warn("clear auth cache keys")
		}
		notify(snap, subs)
	}
}
