package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/uniscout/identity-engine/internal/domain/entity"
	"github.com/uniscout/identity-engine/internal/domain/repository"
)

// updatableColumns is the set of profile columns a partial update may touch.
// Anything else in the payload is dropped before it reaches SQL.
var updatableColumns = map[string]bool{
	"email":                 true,
	"display_name":          true,
	"avatar_url":            true,
	"city":                  true,
	"country":               true,
	"education_level":       true,
	"field_of_study":        true,
	"graduation_year":       true,
	"gpa":                   true,
	"target_degree":         true,
	"favorite_universities": true,
	"favorite_scholarships": true,
	"favorite_programs":     true,
	"recently_viewed":       true,
	"last_login_at":         true,
	"login_count":           true,
	"onboarding_completed":  true,
	"notifications_enabled": true,
	"updated_at":            true,
}

type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*entity.ProfileRecord, error) {
	rec := &entity.ProfileRecord{}
	var viewed []byte

	row := r.pool.QueryRow(ctx, `
		SELECT id, email, display_name, avatar_url, city, country,
		       education_level, field_of_study, graduation_year, gpa, target_degree,
		       favorite_universities, favorite_scholarships, favorite_programs,
		       recently_viewed, provider, created_at, last_login_at, login_count,
		       onboarding_completed, notifications_enabled,
		       role, is_verified, is_banned, updated_at
		FROM profiles
		WHERE id = $1
	`, id)

	if err := row.Scan(&rec.ID, &rec.Email, &rec.DisplayName, &rec.AvatarURL,
		&rec.City, &rec.Country, &rec.EducationLevel, &rec.FieldOfStudy,
		&rec.GraduationYear, &rec.GPA, &rec.TargetDegree,
		&rec.FavoriteUniversities, &rec.FavoriteScholarships, &rec.FavoritePrograms,
		&viewed, &rec.Provider, &rec.CreatedAt, &rec.LastLoginAt, &rec.LoginCount,
		&rec.OnboardingCompleted, &rec.NotificationsEnabled,
		&rec.Role, &rec.IsVerified, &rec.IsBanned, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if len(viewed) > 0 {
		if err := json.Unmarshal(viewed, &rec.RecentlyViewed); err != nil {
			return nil, fmt.Errorf("decode recently_viewed for %s: %w", id, err)
		}
	}
	return rec, nil
}

func (r *ProfileRepository) Upsert(ctx context.Context, rec *entity.ProfileRecord) error {
	viewed, err := json.Marshal(rec.RecentlyViewed)
	if err != nil {
		return fmt.Errorf("encode recently_viewed: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO profiles (
			id, email, display_name, avatar_url, city, country,
			education_level, field_of_study, graduation_year, gpa, target_degree,
			favorite_universities, favorite_scholarships, favorite_programs,
			recently_viewed, provider, created_at, last_login_at, login_count,
			onboarding_completed, notifications_enabled, role, is_verified, is_banned
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			display_name = EXCLUDED.display_name,
			avatar_url = EXCLUDED.avatar_url,
			city = EXCLUDED.city,
			country = EXCLUDED.country,
			education_level = EXCLUDED.education_level,
			field_of_study = EXCLUDED.field_of_study,
			graduation_year = EXCLUDED.graduation_year,
			gpa = EXCLUDED.gpa,
			target_degree = EXCLUDED.target_degree,
			favorite_universities = EXCLUDED.favorite_universities,
			favorite_scholarships = EXCLUDED.favorite_scholarships,
			favorite_programs = EXCLUDED.favorite_programs,
			recently_viewed = EXCLUDED.recently_viewed,
			last_login_at = EXCLUDED.last_login_at,
			login_count = EXCLUDED.login_count,
			onboarding_completed = EXCLUDED.onboarding_completed,
			notifications_enabled = EXCLUDED.notifications_enabled,
			updated_at = now()
	`, rec.ID, rec.Email, rec.DisplayName, rec.AvatarURL, rec.City, rec.Country,
		rec.EducationLevel, rec.FieldOfStudy, rec.GraduationYear, rec.GPA, rec.TargetDegree,
		textArray(rec.FavoriteUniversities), textArray(rec.FavoriteScholarships),
		textArray(rec.FavoritePrograms), viewed, rec.Provider,
		rec.CreatedAt, rec.LastLoginAt, rec.LoginCount,
		rec.OnboardingCompleted, rec.NotificationsEnabled,
		rec.Role, rec.IsVerified, rec.IsBanned)
	return err
}

func (r *ProfileRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	sets := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+1)

	for col, val := range fields {
		if !updatableColumns[col] {
			continue
		}
		switch col {
		case "recently_viewed":
			raw, err := json.Marshal(val)
			if err != nil {
				return fmt.Errorf("encode recently_viewed: %w", err)
			}
			val = raw
		case "favorite_universities", "favorite_scholarships", "favorite_programs":
			arr, err := toTextArray(val)
			if err != nil {
				return fmt.Errorf("column %s: %w", col, err)
			}
			val = arr
		}
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	if _, ok := fields["updated_at"]; !ok {
		sets = append(sets, "updated_at = now()")
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE profiles SET %s WHERE id = $%d",
		strings.Join(sets, ", "), len(args))

	res, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("profile %s not found", id)
	}
	return nil
}

// textArray keeps empty lists as empty text[] rather than NULL.
func textArray(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// toTextArray normalizes decoded JSON list values for a text[] column.
func toTextArray(val any) ([]string, error) {
	switch v := val.(type) {
	case []string:
		return textArray(v), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string element, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	case nil:
		return []string{}, nil
	default:
		return nil, fmt.Errorf("expected string list, got %T", val)
	}
}

var _ repository.ProfileRepository = (*ProfileRepository)(nil)
