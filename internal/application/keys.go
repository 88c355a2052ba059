package application

// cacheKeys holds the namespaced local cache keys. The favorites and recents
// keys predate the profile's own list fields; nothing writes them anymore,
// but sign-out still removes them so stale installs converge.
type cacheKeys struct {
	profile    string
	onboarding string
	guestID    string

	legacyFavorites string
	legacyRecents   string
}

func newCacheKeys(prefix string) cacheKeys {
	return cacheKeys{
		profile:         prefix + ":user_profile",
		onboarding:      prefix + ":onboarding_completed",
		guestID:         prefix + ":guest_id",
		legacyFavorites: prefix + ":favorites",
		legacyRecents:   prefix + ":recently_viewed",
	}
}

// authKeys lists every key cleared on sign-out. The guest id survives so a
// later guest-continue resumes the same local identity.
func (k cacheKeys) authKeys() []string {
	return []string{k.profile, k.onboarding, k.legacyFavorites, k.legacyRecents}
}
