package entity

import (
	"fmt"
	"time"
)

// Provider identifies how the current user signed in.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderEmail  Provider = "email"
	ProviderGuest  Provider = "guest"
)

// DefaultDisplayName is used when neither the provider nor the user supplied one.
const DefaultDisplayName = "New User"

// RecentlyViewedMax bounds the recently-viewed list. Oldest entries fall off.
const RecentlyViewedMax = 20

// FavoriteCategory selects one of the profile's three favorite lists.
type FavoriteCategory string

const (
	FavoriteUniversity  FavoriteCategory = "university"
	FavoriteScholarship FavoriteCategory = "scholarship"
	FavoriteProgram     FavoriteCategory = "program"
)

// ErrUnknownCategory is returned when a favorite operation names a category
// outside the three known lists.
var ErrUnknownCategory = fmt.Errorf("unknown favorite category")

// RecentlyViewedEntry is one item in the profile's recently-viewed list.
// Entries are unique per (ID, Type) pair and ordered newest first.
type RecentlyViewedEntry struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	ViewedAt time.Time `json:"viewedAt"`
}

// UserProfile is the canonical identity record held by the engine.
// JSON tags are the local field names: they key the cache encoding and the
// partial-update patches fed to the write coalescer.
type UserProfile struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`

	// Academic/demographic attributes. Free-form; the engine only moves
	// them between the cache and the remote record.
	City           string  `json:"city,omitempty"`
	Country        string  `json:"country,omitempty"`
	EducationLevel string  `json:"educationLevel,omitempty"`
	FieldOfStudy   string  `json:"fieldOfStudy,omitempty"`
	GraduationYear int     `json:"graduationYear,omitempty"`
	GPA            float64 `json:"gpa,omitempty"`
	TargetDegree   string  `json:"targetDegree,omitempty"`

	FavoriteUniversities []string              `json:"favoriteUniversities"`
	FavoriteScholarships []string              `json:"favoriteScholarships"`
	FavoritePrograms     []string              `json:"favoritePrograms"`
	RecentlyViewed       []RecentlyViewedEntry `json:"recentlyViewed"`

	Provider    Provider  `json:"provider"`
	IsGuest     bool      `json:"isGuest"`
	CreatedAt   time.Time `json:"createdAt"`
	LastLoginAt time.Time `json:"lastLoginAt"`
	LoginCount  int       `json:"loginCount"`

	OnboardingCompleted  bool `json:"onboardingCompleted"`
	NotificationsEnabled bool `json:"notificationsEnabled"`

	// Sourced from the remote record; never mutated locally.
	Role       string `json:"role"`
	IsVerified bool   `json:"isVerified"`
	IsBanned   bool   `json:"isBanned"`
}

// Clone returns a deep copy. Published snapshots must never alias the
// engine-owned slices, so every list field is copied.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.FavoriteUniversities = append([]string(nil), p.FavoriteUniversities...)
	cp.FavoriteScholarships = append([]string(nil), p.FavoriteScholarships...)
	cp.FavoritePrograms = append([]string(nil), p.FavoritePrograms...)
	cp.RecentlyViewed = append([]RecentlyViewedEntry(nil), p.RecentlyViewed...)
	return &cp
}

// Favorites returns the list for the given category.
func (p *UserProfile) Favorites(cat FavoriteCategory) ([]string, error) {
	switch cat {
	case FavoriteUniversity:
		return p.FavoriteUniversities, nil
	case FavoriteScholarship:
		return p.FavoriteScholarships, nil
	case FavoriteProgram:
		return p.FavoritePrograms, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
	}
}

// FavoriteField maps a category to the local field name of its list.
func FavoriteField(cat FavoriteCategory) (string, error) {
	switch cat {
	case FavoriteUniversity:
		return "favoriteUniversities", nil
	case FavoriteScholarship:
		return "favoriteScholarships", nil
	case FavoriteProgram:
		return "favoritePrograms", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
	}
}
