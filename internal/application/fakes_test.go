package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/uniscout/identity-engine/internal/domain/entity"
	"github.com/uniscout/identity-engine/internal/domain/repository"
)

// fakeAPIError mirrors the HTTP adapter's error shape.
type fakeAPIError struct {
	Message string
	Code    string
}

func (e *fakeAPIError) Error() string         { return fmt.Sprintf("%s (%s)", e.Message, e.Code) }
func (e *fakeAPIError) RemoteMessage() string { return e.Message }
func (e *fakeAPIError) RemoteCode() string    { return e.Code }

type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *fakeCache) Remove(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

type credentials struct {
	password string
	userID   string
}

// fakeRemote is an in-memory RemoteIdentity that counts calls and can be
// primed with users, profiles, and failures.
type fakeRemote struct {
	mu        sync.Mutex
	session   *repository.Session
	users     map[string]credentials // by email
	profiles  map[string]*entity.ProfileRecord
	listeners map[int]func(repository.AuthEvent)
	listenSeq int

	updates []map[string]any // every UpdateProfile payload, in order

	getSessionCalls int
	getProfileCalls int
	upsertCalls     int

	signInErr  error
	upsertErr  error
	updateErr  error
	signOutErr error

	// When non-nil, SignOut blocks until the channel closes.
	signOutGate chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		users:     make(map[string]credentials),
		profiles:  make(map[string]*entity.ProfileRecord),
		listeners: make(map[int]func(repository.AuthEvent)),
	}
}

func (r *fakeRemote) GetSession(context.Context) (*repository.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getSessionCalls++
	return r.session, nil
}

func (r *fakeRemote) SignInWithPassword(_ context.Context, email, password string) (*repository.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.signInErr != nil {
		return nil, r.signInErr
	}
	cred, ok := r.users[email]
	if !ok || cred.password != password {
		return nil, &fakeAPIError{Message: "Invalid login credentials", Code: "invalid_credentials"}
	}
	sess := &repository.Session{
		UserID:   cred.userID,
		Provider: entity.ProviderEmail,
		Metadata: repository.UserMetadata{Email: email},
	}
	r.session = sess
	return sess, nil
}

func (r *fakeRemote) SignUp(_ context.Context, email, _ string, meta repository.UserMetadata) (*repository.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[email]; exists {
		return nil, &fakeAPIError{Message: "User already registered", Code: "user_already_exists"}
	}
	id := fmt.Sprintf("user-%d", len(r.users)+1)
	r.users[email] = credentials{userID: id}
	meta.Email = email
	sess := &repository.Session{UserID: id, Provider: entity.ProviderEmail, Metadata: meta}
	r.session = sess
	return sess, nil
}

func (r *fakeRemote) SignInWithProvider(_ context.Context, token string) (*repository.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.signInErr != nil {
		return nil, r.signInErr
	}
	sess := &repository.Session{
		UserID:   "google-" + token,
		Provider: entity.ProviderGoogle,
		Metadata: repository.UserMetadata{Email: token + "@gmail.com", Name: "Google User", EmailVerified: true},
	}
	r.session = sess
	return sess, nil
}

func (r *fakeRemote) SignOut(context.Context) error {
	if r.signOutGate != nil {
		<-r.signOutGate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session = nil
	return r.signOutErr
}

func (r *fakeRemote) ResetPassword(context.Context, string) error { return nil }

func (r *fakeRemote) GetProfile(_ context.Context, id string) (*entity.ProfileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getProfileCalls++
	rec, ok := r.profiles[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeRemote) UpsertProfile(_ context.Context, rec *entity.ProfileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upsertCalls++
	if r.upsertErr != nil {
		return r.upsertErr
	}
	cp := *rec
	r.profiles[rec.ID] = &cp
	return nil
}

func (r *fakeRemote) UpdateProfile(_ context.Context, id string, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	cp := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		cp[k] = v
	}
	cp["_id"] = id
	r.updates = append(r.updates, cp)
	return nil
}

func (r *fakeRemote) OnAuthStateChange(fn func(repository.AuthEvent)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listenSeq++
	id := r.listenSeq
	r.listeners[id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.listeners, id)
	}
}

// coalescerUpdates filters out the loader's login-counter and avatar
// backfill writes, leaving only flushes from the write coalescer.
func (r *fakeRemote) coalescerUpdates() []map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []map[string]any
	for _, u := range r.updates {
		if _, ok := u["login_count"]; ok {
			continue
		}
		if len(u) == 2 { // _id + avatar_url backfill
			if _, ok := u["avatar_url"]; ok {
				continue
			}
		}
		out = append(out, u)
	}
	return out
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newTestEngine(cache repository.CacheStore, remote repository.RemoteIdentity) *Engine {
	return New(Config{
		Cache:         cache,
		Remote:        remote,
		Logger:        quietLogger(),
		FetchCooldown: DefaultFetchCooldown,
		FlushDelay:    30 * time.Millisecond,
	})
}
