package application

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/uniscout/identity-engine/internal/domain/entity"
	"github.com/uniscout/identity-engine/internal/domain/repository"
)

// loadProfile fetches (or creates) the remote profile record for a session,
// merges it with local state, persists it to the cache, and publishes it.
// When isNewLogin is false the fetch throttle applies: inside the cooldown
// window the call is a no-op that touches neither network nor state.
//
// Profile-creation failure on a first login is fatal for the sign-in: an
// authenticated session without a profile record breaks every downstream
// assumption, so the error propagates to the caller.
func (e *Engine) loadProfile(ctx context.Context, sess *repository.Session, isNewLogin bool) error {
	e.mu.Lock()
	if !e.throttle.shouldFetch(isNewLogin) {
		e.mu.Unlock()
		e.logger.WithField("user_id", sess.UserID).Debug("profile fetch throttled")
		return nil
	}
	e.mu.Unlock()

	rec, err := e.remote.GetProfile(ctx, sess.UserID)
	if err != nil {
		return fmt.Errorf("fetch profile: %w", err)
	}

	now := e.now().UTC()
	var profile *entity.UserProfile
	if rec != nil {
		profile = recordToProfile(rec, sess.Provider)
		if profile.AvatarURL == "" && sess.Metadata.AvatarURL != "" {
			profile.AvatarURL = sess.Metadata.AvatarURL
			// Opportunistic backfill; the profile is already correct locally.
			if err := e.remote.UpdateProfile(ctx, sess.UserID, map[string]any{"avatar_url": sess.Metadata.AvatarURL}); err != nil {
				e.logger.WithError(err).Debug("avatar backfill skipped")
			}
		}
		if isNewLogin {
			profile.LoginCount = rec.LoginCount + 1
			profile.LastLoginAt = now
			if err := e.remote.UpdateProfile(ctx, sess.UserID, map[string]any{
				"login_count":   profile.LoginCount,
				"last_login_at": now,
			}); err != nil {
				e.logger.WithError(err).Warn("login counter update failed")
			}
		}
	} else {
		profile = newProfileFromMetadata(sess, now)
		if err := e.remote.UpsertProfile(ctx, profileToRecord(profile)); err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
	}

	// A locally completed onboarding must survive a remote record that has
	// not caught up yet.
	if flag, ok, _ := e.cache.Get(ctx, e.keys.onboarding); ok && flag == "true" {
		profile.OnboardingCompleted = true
	}

	e.mu.Lock()
	e.persistProfile(ctx, profile)
	e.throttle.markFetched()
	e.setProfileLocked(profile)
	snap, subs := e.publishLocked()
	e.mu.Unlock()
	notify(snap, subs)

	e.logger.WithFields(logrus.Fields{
		"user_id":   profile.ID,
		"provider":  profile.Provider,
		"new_login": isNewLogin,
	}).Info("profile loaded")
	return nil
}

// RefreshUser forces a profile reload, bypassing the fetch cooldown exactly
// once. Failures are logged; the cached profile keeps serving.
func (e *Engine) RefreshUser(ctx context.Context) {
	e.mu.Lock()
	e.throttle.reset()
	user := e.state.User
	e.mu.Unlock()
	if user == nil || user.IsGuest {
		return
	}
	sess, err := e.remote.GetSession(ctx)
	if err != nil || sess == nil {
		e.logger.WithError(err).Warn("refresh: no active session")
		return
	}
	if err := e.loadProfile(ctx, sess, false); err != nil {
		e.logger.WithError(err).Warn("refresh failed")
	}
}

// recordToProfile maps a remote record onto the local shape.
func recordToProfile(rec *entity.ProfileRecord, provider entity.Provider) *entity.UserProfile {
	if provider == "" {
		provider = rec.Provider
	}
	name := rec.DisplayName
	if name == "" {
		name = entity.DefaultDisplayName
	}
	return &entity.UserProfile{
		ID:                   rec.ID,
		Email:                rec.Email,
		DisplayName:          name,
		AvatarURL:            rec.AvatarURL,
		City:                 rec.City,
		Country:              rec.Country,
		EducationLevel:       rec.EducationLevel,
		FieldOfStudy:         rec.FieldOfStudy,
		GraduationYear:       rec.GraduationYear,
		GPA:                  rec.GPA,
		TargetDegree:         rec.TargetDegree,
		FavoriteUniversities: append([]string(nil), rec.FavoriteUniversities...),
		FavoriteScholarships: append([]string(nil), rec.FavoriteScholarships...),
		FavoritePrograms:     append([]string(nil), rec.FavoritePrograms...),
		RecentlyViewed:       append([]entity.RecentlyViewedEntry(nil), rec.RecentlyViewed...),
		Provider:             provider,
		CreatedAt:            rec.CreatedAt,
		LastLoginAt:          rec.LastLoginAt,
		LoginCount:           rec.LoginCount,
		OnboardingCompleted:  rec.OnboardingCompleted,
		NotificationsEnabled: rec.NotificationsEnabled,
		Role:                 rec.Role,
		IsVerified:           rec.IsVerified,
		IsBanned:             rec.IsBanned,
	}
}

// profileToRecord maps the local shape onto the remote record. Guest
// profiles never pass through here.
func profileToRecord(p *entity.UserProfile) *entity.ProfileRecord {
	return &entity.ProfileRecord{
		ID:                   p.ID,
		Email:                p.Email,
		DisplayName:          p.DisplayName,
		AvatarURL:            p.AvatarURL,
		City:                 p.City,
		Country:              p.Country,
		EducationLevel:       p.EducationLevel,
		FieldOfStudy:         p.FieldOfStudy,
		GraduationYear:       p.GraduationYear,
		GPA:                  p.GPA,
		TargetDegree:         p.TargetDegree,
		FavoriteUniversities: append([]string(nil), p.FavoriteUniversities...),
		FavoriteScholarships: append([]string(nil), p.FavoriteScholarships...),
		FavoritePrograms:     append([]string(nil), p.FavoritePrograms...),
		RecentlyViewed:       append([]entity.RecentlyViewedEntry(nil), p.RecentlyViewed...),
		Provider:             p.Provider,
		CreatedAt:            p.CreatedAt,
		LastLoginAt:          p.LastLoginAt,
		LoginCount:           p.LoginCount,
		OnboardingCompleted:  p.OnboardingCompleted,
		NotificationsEnabled: p.NotificationsEnabled,
		Role:                 p.Role,
		IsVerified:           p.IsVerified,
		IsBanned:             p.IsBanned,
	}
}

// newProfileFromMetadata synthesizes a first-login profile from what the
// identity provider knows about the user.
func newProfileFromMetadata(sess *repository.Session, now time.Time) *entity.UserProfile {
	name := sess.Metadata.Name
	if name == "" {
		name = entity.DefaultDisplayName
	}
	return &entity.UserProfile{
		ID:                   sess.UserID,
		Email:                sess.Metadata.Email,
		DisplayName:          name,
		AvatarURL:            sess.Metadata.AvatarURL,
		FavoriteUniversities: []string{},
		FavoriteScholarships: []string{},
		FavoritePrograms:     []string{},
		RecentlyViewed:       []entity.RecentlyViewedEntry{},
		Provider:             sess.Provider,
		CreatedAt:            now,
		LastLoginAt:          now,
		LoginCount:           1,
		NotificationsEnabled: true,
		IsVerified:           sess.Metadata.EmailVerified,
		Role:                 "user",
	}
}
