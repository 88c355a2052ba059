package repository

import (
	"context"

	"github.com/uniscout/identity-engine/internal/domain/entity"
)

// UserMetadata is what the identity provider knows about the user
// independently of the profile record. Used to synthesize a profile on
// first login and as the avatar fallback.
type UserMetadata struct {
	Email         string `json:"email,omitempty"`
	Name          string `json:"name,omitempty"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	EmailVerified bool   `json:"email_verified"`
}

// Session describes an authenticated remote session.
type Session struct {
	UserID   string          `json:"user_id"`
	Provider entity.Provider `json:"provider"`
	Metadata UserMetadata    `json:"metadata"`
}

// AuthEventType enumerates the remote sign-in/sign-out notifications.
type AuthEventType string

const (
	AuthEventSignedIn  AuthEventType = "SIGNED_IN"
	AuthEventSignedOut AuthEventType = "SIGNED_OUT"
)

// AuthEvent is one notification from the remote auth event stream.
type AuthEvent struct {
	Type    AuthEventType
	Session *Session
}

// RemoteError is implemented by adapter errors that carry the provider's
// user-facing message and optional code. The engine surfaces the message
// verbatim for credential failures and feeds both into classification.
type RemoteError interface {
	error
	RemoteMessage() string
	RemoteCode() string
}

// RemoteIdentity is the remote identity/profile service as the engine sees
// it: session lookup, credential handshakes, a profile record keyed by user
// id, and an auth event stream. Every call crosses the network and may fail
// with an opaque error.
type RemoteIdentity interface {
	// GetSession returns the active session, or (nil, nil) when there is none.
	GetSession(ctx context.Context) (*Session, error)

	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string, meta UserMetadata) (*Session, error)
	// SignInWithProvider exchanges a federated provider token for a session.
	SignInWithProvider(ctx context.Context, token string) (*Session, error)
	SignOut(ctx context.Context) error
	ResetPassword(ctx context.Context, email string) error

	// GetProfile returns (nil, nil) when no record exists for the id.
	GetProfile(ctx context.Context, id string) (*entity.ProfileRecord, error)
	UpsertProfile(ctx context.Context, rec *entity.ProfileRecord) error
	// UpdateProfile applies a partial update keyed by remote field names.
	UpdateProfile(ctx context.Context, id string, fields map[string]any) error

	// OnAuthStateChange registers fn for sign-in/sign-out notifications and
	// returns an unsubscribe func. Callbacks run on the client's goroutine.
	OnAuthStateChange(fn func(AuthEvent)) (unsubscribe func())
}
