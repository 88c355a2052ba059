package application

// localToRemote is the fixed translation table between the profile's local
// field names and the remote record's column names. The profile loader and
// the write coalescer both go through it; fields absent here never leave the
// device (id, provider, isGuest).
var localToRemote = map[string]string{
	"email":                "email",
	"displayName":          "display_name",
	"avatarUrl":            "avatar_url",
	"city":                 "city",
	"country":              "country",
	"educationLevel":       "education_level",
	"fieldOfStudy":         "field_of_study",
	"graduationYear":       "graduation_year",
	"gpa":                  "gpa",
	"targetDegree":         "target_degree",
	"favoriteUniversities": "favorite_universities",
	"favoriteScholarships": "favorite_scholarships",
	"favoritePrograms":     "favorite_programs",
	"recentlyViewed":       "recently_viewed",
	"lastLoginAt":          "last_login_at",
	"loginCount":           "login_count",
	"onboardingCompleted":  "onboarding_completed",
	"notificationsEnabled": "notifications_enabled",
}

// remoteToLocal is the inverse table, derived once at init so the two
// directions cannot drift.
var remoteToLocal = func() map[string]string {
	m := make(map[string]string, len(localToRemote))
	for local, remote := range localToRemote {
		m[remote] = local
	}
	return m
}()

// toRemoteFields translates a local-field patch into remote column names,
// silently dropping anything the table does not cover.
func toRemoteFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if remote, ok := localToRemote[k]; ok {
			out[remote] = v
		}
	}
	return out
}
