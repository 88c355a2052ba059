package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/uniscout/identity-engine/internal/domain/entity"
	"github.com/uniscout/identity-engine/internal/domain/repository"
)

// The sign-in state machine: anonymous -> authenticating -> authenticated,
// or back to anonymous with AuthError populated. Every entry point reports
// success as a boolean so the caller can present a retry affordance without
// unwrapping errors.

func (e *Engine) beginAuth() {
	e.mu.Lock()
	e.state.IsLoading = true
	e.state.AuthError = ""
	snap, subs := e.publishLocked()
	e.mu.Unlock()
	notify(snap, subs)
}

func (e *Engine) failAuth(msg string) {
	e.mu.Lock()
	e.state.IsLoading = false
	e.state.AuthError = msg
	snap, subs := e.publishLocked()
	e.mu.Unlock()
	notify(snap, subs)
}

// SignInWithGoogle exchanges a federated provider token for a session and
// loads the profile. Handshake failures are classified into user-facing
// categories; the raw error never reaches the UI.
func (e *Engine) SignInWithGoogle(ctx context.Context, token string) bool {
	e.beginAuth()
	sess, err := e.remote.SignInWithProvider(ctx, token)
	if err != nil {
		e.failAuth(classifyAuthError(err))
		return false
	}
	return e.finishSignIn(ctx, sess)
}

// SignInWithEmail performs a password sign-in. Credential failures surface
// the provider's own message verbatim.
func (e *Engine) SignInWithEmail(ctx context.Context, email, password string) bool {
	e.beginAuth()
	sess, err := e.remote.SignInWithPassword(ctx, email, password)
	if err != nil {
		e.failAuth(providerMessage(err))
		return false
	}
	return e.finishSignIn(ctx, sess)
}

// SignUpWithEmail registers a new account and signs it in.
func (e *Engine) SignUpWithEmail(ctx context.Context, email, password, name string) bool {
	e.beginAuth()
	sess, err := e.remote.SignUp(ctx, email, password, repository.UserMetadata{Email: email, Name: name})
	if err != nil {
		e.failAuth(providerMessage(err))
		return false
	}
	return e.finishSignIn(ctx, sess)
}

func (e *Engine) finishSignIn(ctx context.Context, sess *repository.Session) bool {
	if err := e.loadProfile(ctx, sess, true); err != nil {
		// An authenticated session with no profile record is an invariant
		// violation, so a failed first-login profile creation fails the
		// whole sign-in.
		e.logger.WithError(err).Error("sign-in profile load failed")
		e.failAuth("Could not load your profile. Please try again.")
		return false
	}
	return true
}

// ContinueAsGuest builds a purely local identity. It never touches the
// remote service; the guest id is stable across app restarts.
func (e *Engine) ContinueAsGuest(ctx context.Context) bool {
	e.beginAuth()

	guestID, ok, err := e.cache.Get(ctx, e.keys.guestID)
	if err != nil || !ok || guestID == "" {
		guestID = "guest-" + uuid.NewString()
		if err := e.cache.Set(ctx, e.keys.guestID, guestID); err != nil {
			e.logger.WithError(err).Warn("persist guest id")
		}
	}

	now := e.now().UTC()
	profile := &entity.UserProfile{
		ID:                   guestID,
		DisplayName:          "Guest",
		FavoriteUniversities: []string{},
		FavoriteScholarships: []string{},
		FavoritePrograms:     []string{},
		RecentlyViewed:       []entity.RecentlyViewedEntry{},
		Provider:             entity.ProviderGuest,
		IsGuest:              true,
		CreatedAt:            now,
		LastLoginAt:          now,
		NotificationsEnabled: true,
		Role:                 "guest",
	}

	e.mu.Lock()
	e.persistProfile(ctx, profile)
	e.setProfileLocked(profile)
	snap, subs := e.publishLocked()
	e.mu.Unlock()
	notify(snap, subs)
	return true
}

// SignOut resets the engine to the signed-out default. The local reset and
// cache clear always complete; the remote notification is fire-and-forget
// so a slow or failing network cannot delay the UI.
func (e *Engine) SignOut(ctx context.Context) {
	e.mu.Lock()
	hadRemoteSession := e.state.User != nil && !e.state.IsGuest
	e.resetStateLocked()
	snap, subs := e.publishLocked()
	e.mu.Unlock()

	if err := e.cache.Remove(ctx, e.keys.authKeys()...); err != nil {
		e.logger.WithError(err).Warn("clear auth cache keys")
	}
	notify(snap, subs)

	if hadRemoteSession {
		go func() {
			if err := e.remote.SignOut(context.Background()); err != nil {
				e.logger.WithError(err).Warn("remote sign-out failed")
			}
		}()
	}
}

// ResetPassword asks the remote service to start a password reset.
func (e *Engine) ResetPassword(ctx context.Context, email string) bool {
	e.beginAuth()
	if err := e.remote.ResetPassword(ctx, email); err != nil {
		e.failAuth(providerMessage(err))
		return false
	}
	e.mu.Lock()
	e.state.IsLoading = false
	snap, subs := e.publishLocked()
	e.mu.Unlock()
	notify(snap, subs)
	return true
}
