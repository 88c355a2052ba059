// Package application implements the client-resident identity and
// profile-synchronization engine: session bootstrap, throttled remote reads,
// debounced batched writes, optimistic local mutation, and the list-valued
// profile fields (favorites, recently viewed).
package application

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/uniscout/identity-engine/internal/domain/entity"
	"github.com/uniscout/identity-engine/internal/domain/repository"
)

const (
	// DefaultFetchCooldown is the minimum gap between two remote profile
	// reads that are not new logins or explicit refreshes. The remote tier
	// bills per read; re-opening the app must not re-issue a full fetch.
	DefaultFetchCooldown = 5 * time.Minute

	// DefaultFlushDelay is the quiescence period of the write coalescer.
	DefaultFlushDelay = 2 * time.Second

	// DefaultKeyPrefix namespaces every local cache key.
	DefaultKeyPrefix = "uniscout"
)

// Config carries the engine's collaborators and tunables. Uses a struct
// because the dependency list outgrew positional parameters.
type Config struct {
	Cache  repository.CacheStore
	Remote repository.RemoteIdentity
	Logger *logrus.Logger

	KeyPrefix     string        // defaults to DefaultKeyPrefix
	FetchCooldown time.Duration // defaults to DefaultFetchCooldown
	FlushDelay    time.Duration // defaults to DefaultFlushDelay
}

// Engine is the profile state container and the single writer of both the
// published AuthState and the local cache. All mutations go through its
// action methods; collaborators read Snapshot or subscribe.
type Engine struct {
	cache  repository.CacheStore
	remote repository.RemoteIdentity
	logger *logrus.Logger
	keys   cacheKeys

	now func() time.Time // test seam

	mu        sync.Mutex
	state     entity.AuthState
	subs      map[int]func(entity.AuthState)
	subSeq    int
	throttle  fetchThrottle
	coalescer writeCoalescer
	unsubAuth func()
	closed    bool
}

// New constructs an Engine. Call Init to bootstrap and Close to tear down.
func New(cfg Config) *Engine {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.FetchCooldown <= 0 {
		cfg.FetchCooldown = DefaultFetchCooldown
	}
	if cfg.FlushDelay <= 0 {
		cfg.FlushDelay = DefaultFlushDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	e := &Engine{
		cache:  cfg.Cache,
		remote: cfg.Remote,
		logger: cfg.Logger,
		keys:   newCacheKeys(cfg.KeyPrefix),
		now:    time.Now,
		state:  entity.AuthState{IsLoading: true},
		subs:   make(map[int]func(entity.AuthState)),
	}
	e.throttle = fetchThrottle{cooldown: cfg.FetchCooldown, now: func() time.Time { return e.now() }}
	e.coalescer = writeCoalescer{delay: cfg.FlushDelay}
	return e
}

// Close unsubscribes from the remote auth event stream and cancels any
// pending flush timer. A flush already in flight completes independently.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.coalescer.cancel()
	unsub := e.unsubAuth
	e.unsubAuth = nil
	e.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Snapshot returns a deep copy of the current AuthState.
func (e *Engine) Snapshot() entity.AuthState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Subscribe registers fn for every state change and returns a cancel func.
// fn receives an immutable snapshot and runs outside the engine lock.
func (e *Engine) Subscribe(fn func(entity.AuthState)) (cancel func()) {
	e.mu.Lock()
	e.subSeq++
	id := e.subSeq
	e.subs[id] = fn
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

// ClearError drops the live auth error without touching anything else.
func (e *Engine) ClearError() {
	e.mu.Lock()
	e.state.AuthError = ""
	snap, subs := e.publishLocked()
	e.mu.Unlock()
	notify(snap, subs)
}

// publishLocked snapshots the state and subscriber list. Callers hold e.mu
// and invoke notify after unlocking so callbacks never run under the lock.
func (e *Engine) publishLocked() (entity.AuthState, []func(entity.AuthState)) {
	e.state.IsAuthenticated = e.state.User != nil
	snap := e.state.Clone()
	fns := make([]func(entity.AuthState), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	return snap, fns
}

func notify(snap entity.AuthState, fns []func(entity.AuthState)) {
	for _, fn := range fns {
		fn(snap)
	}
}

// setProfileLocked installs a profile as the current user and derives the
// dependent flags. Callers hold e.mu.
func (e *Engine) setProfileLocked(p *entity.UserProfile) {
	e.state.User = p
	e.state.IsLoading = false
	e.state.IsGuest = p != nil && p.IsGuest
	if p != nil {
		e.state.HasCompletedOnboarding = p.OnboardingCompleted
	}
}

// resetStateLocked returns the state to the signed-out default. Callers
// hold e.mu.
func (e *Engine) resetStateLocked() {
	e.coalescer.cancel()
	e.state = entity.AuthState{}
}

// persistProfile writes the profile to the local cache. Cache failures are
// logged, never propagated: the published state is already correct and the
// next write retries organically.
func (e *Engine) persistProfile(ctx context.Context, p *entity.UserProfile) {
	raw, err := json.Marshal(p)
	if err != nil {
		e.logger.WithError(err).Error("encode profile for cache")
		return
	}
	if err := e.cache.Set(ctx, e.keys.profile, string(raw)); err != nil {
		e.logger.WithError(err).Warn("persist profile to cache")
	}
}

// cachedProfile loads the serialized profile from the local cache.
func (e *Engine) cachedProfile(ctx context.Context) (*entity.UserProfile, bool) {
	raw, ok, err := e.cache.Get(ctx, e.keys.profile)
	if err != nil {
		e.logger.WithError(err).Warn("read cached profile")
		return nil, false
	}
	if !ok || raw == "" {
		return nil, false
	}
	var p entity.UserProfile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		e.logger.WithError(err).Warn("decode cached profile")
		return nil, false
	}
	return &p, true
}
