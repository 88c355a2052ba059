package application

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniscout/identity-engine/internal/domain/entity"
)

func TestFieldMap_Bijective(t *testing.T) {
	require.Equal(t, len(localToRemote), len(remoteToLocal))
	for local, remote := range localToRemote {
		assert.Equal(t, local, remoteToLocal[remote])
	}
}

func TestToRemoteFields_DropsUnmapped(t *testing.T) {
	out := toRemoteFields(map[string]any{
		"city":    "Lahore",
		"isGuest": true, // local-only
		"id":      "u1", // never synced
	})
	assert.Equal(t, map[string]any{"city": "Lahore"}, out)
}

// Every local name in the table must be a real UserProfile JSON tag, and
// every remote name a real ProfileRecord JSON tag. Keeps the table honest
// against entity refactors.
func TestFieldMap_NamesMatchEntityTags(t *testing.T) {
	localTags := jsonTags(reflect.TypeOf(entity.UserProfile{}))
	remoteTags := jsonTags(reflect.TypeOf(entity.ProfileRecord{}))

	for local, remote := range localToRemote {
		assert.Contains(t, localTags, local, "local field %q missing on UserProfile", local)
		assert.Contains(t, remoteTags, remote, "remote field %q missing on ProfileRecord", remote)
	}
}

func jsonTags(t reflect.Type) map[string]bool {
	tags := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		tag := strings.SplitN(t.Field(i).Tag.Get("json"), ",", 2)[0]
		if tag != "" && tag != "-" {
			tags[tag] = true
		}
	}
	return tags
}

func TestApplyPatch_TouchesOnlyProvidedFields(t *testing.T) {
	p := authedProfile("u1")
	p.City = "Lahore"
	p.FavoriteUniversities = []string{"lums"}

	updated, err := applyPatch(p, map[string]any{"country": "Pakistan"})
	require.NoError(t, err)
	assert.Equal(t, "Pakistan", updated.Country)
	assert.Equal(t, "Lahore", updated.City)
	assert.Equal(t, []string{"lums"}, updated.FavoriteUniversities)
	assert.Equal(t, "Ayesha", updated.DisplayName)

	// The original is untouched.
	assert.Empty(t, p.Country)
}

func TestApplyPatch_ListReplacement(t *testing.T) {
	p := authedProfile("u1")
	p.FavoritePrograms = []string{"a", "b"}

	updated, err := applyPatch(p, map[string]any{"favoritePrograms": []string{"c"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, updated.FavoritePrograms)
}

func TestApplyPatch_RoundTripsRecentlyViewed(t *testing.T) {
	p := authedProfile("u1")
	entries := []entity.RecentlyViewedEntry{{ID: "x", Type: "university"}}

	updated, err := applyPatch(p, map[string]any{"recentlyViewed": entries})
	require.NoError(t, err)

	raw, err := json.Marshal(updated.RecentlyViewed)
	require.NoError(t, err)
	var back []entity.RecentlyViewedEntry
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, entries, back)
}
