package entity

// AuthState is the published, reactive snapshot consumed by everything above
// the engine. Exactly one lives per engine instance; collaborators only ever
// see copies. Invariant: IsAuthenticated == (User != nil).
type AuthState struct {
	User                   *UserProfile `json:"user"`
	IsLoading              bool         `json:"isLoading"`
	IsAuthenticated        bool         `json:"isAuthenticated"`
	IsGuest                bool         `json:"isGuest"`
	HasCompletedOnboarding bool         `json:"hasCompletedOnboarding"`
	AuthError              string       `json:"authError,omitempty"`
}

// Clone deep-copies the snapshot, including the profile.
func (s AuthState) Clone() AuthState {
	cp := s
	cp.User = s.User.Clone()
	return cp
}
