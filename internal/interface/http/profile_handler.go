package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/uniscout/identity-engine/internal/domain/entity"
	repo "github.com/uniscout/identity-engine/internal/domain/repository"
	"github.com/uniscout/identity-engine/pkg/response"
	"github.com/uniscout/identity-engine/pkg/validation"
)

type ProfileHandler struct {
	Profiles repo.ProfileRepository
	Logger   *logrus.Logger
}

func NewProfileHandler(profiles repo.ProfileRepository, logger *logrus.Logger) *ProfileHandler {
	return &ProfileHandler{Profiles: profiles, Logger: logger}
}

// ownProfile guards the per-id routes: clients may only touch their own row.
func ownProfile(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if id != c.GetString("userID") {
		response.Error[any](c, http.StatusForbidden, "forbidden",
			gin.H{"code": "not_profile_owner"})
		return "", false
	}
	return id, true
}

// Get GET /api/profiles/:id (auth required)
func (h *ProfileHandler) Get(c *gin.Context) {
	id, ok := ownProfile(c)
	if !ok {
		return
	}
	rec, err := h.Profiles.GetByID(c.Request.Context(), id)
	if err != nil {
		h.Logger.WithError(err).Error("profile fetch")
		response.Error[any](c, http.StatusInternalServerError, "profile fetch failed", nil)
		return
	}
	if rec == nil {
		response.Error[any](c, http.StatusNotFound, "Profile not found",
			gin.H{"code": "profile_not_found"})
		return
	}
	response.Success(c, http.StatusOK, rec, "profile", nil)
}

// Upsert POST /api/profiles (auth required)
// Creates or fully replaces the caller's profile row. The id in the payload
// is ignored in favor of the authenticated user.
func (h *ProfileHandler) Upsert(c *gin.Context) {
	var rec entity.ProfileRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	rec.ID = c.GetString("userID")
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.LastLoginAt.IsZero() {
		rec.LastLoginAt = rec.CreatedAt
	}
	if rec.Role == "" {
		rec.Role = "user"
	}
	if err := h.Profiles.Upsert(c.Request.Context(), &rec); err != nil {
		h.Logger.WithError(err).Error("profile upsert")
		response.Error[any](c, http.StatusInternalServerError, "profile upsert failed", nil)
		return
	}
	response.Success(c, http.StatusOK, rec, "profile saved", nil)
}

// Update PATCH /api/profiles/:id (auth required)
// Applies a partial update; unknown fields are dropped by the allowlist in
// the repository.
func (h *ProfileHandler) Update(c *gin.Context) {
	id, ok := ownProfile(c)
	if !ok {
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if len(fields) == 0 {
		response.Success[any](c, http.StatusOK, gin.H{"updated": false}, "nothing to update", nil)
		return
	}
	if err := h.Profiles.UpdateFields(c.Request.Context(), id, fields); err != nil {
		h.Logger.WithError(err).Error("profile update")
		response.Error[any](c, http.StatusInternalServerError, "profile update failed", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"updated": true}, "profile updated", nil)
}
