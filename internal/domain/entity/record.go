package entity

import "time"

// ProfileRecord is the remote profile row as the identity service stores and
// serves it. JSON tags are the remote field names; translation to and from
// the local UserProfile names goes through the application field map, never
// through ad hoc renames.
type ProfileRecord struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`

	City           string  `json:"city,omitempty"`
	Country        string  `json:"country,omitempty"`
	EducationLevel string  `json:"education_level,omitempty"`
	FieldOfStudy   string  `json:"field_of_study,omitempty"`
	GraduationYear int     `json:"graduation_year,omitempty"`
	GPA            float64 `json:"gpa,omitempty"`
	TargetDegree   string  `json:"target_degree,omitempty"`

	FavoriteUniversities []string              `json:"favorite_universities"`
	FavoriteScholarships []string              `json:"favorite_scholarships"`
	FavoritePrograms     []string              `json:"favorite_programs"`
	RecentlyViewed       []RecentlyViewedEntry `json:"recently_viewed"`

	Provider    Provider  `json:"provider"`
	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at"`
	LoginCount  int       `json:"login_count"`

	OnboardingCompleted  bool `json:"onboarding_completed"`
	NotificationsEnabled bool `json:"notifications_enabled"`

	Role       string    `json:"role"`
	IsVerified bool      `json:"is_verified"`
	IsBanned   bool      `json:"is_banned"`
	UpdatedAt  time.Time `json:"updated_at"`
}
