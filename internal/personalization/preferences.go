// Package personalization implements PersonalizationEngine: per-user
// preference storage, preference-weighted vector search, read-history
// filtering, and general-article top-up, grounded on
// internal/core/personalization_service.go's feed-assembly shape.
package personalization

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Varshithvhegde/summarizely-ai-backend/internal/apperrors"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/models"
)

// PreferenceStore is the user:* namespace CRUD for UserPreferences,
// intentionally excluded from admin's clear-all-except-user operation.
type PreferenceStore struct {
	client *redis.Client
}

func NewPreferenceStore(client *redis.Client) *PreferenceStore {
	return &PreferenceStore{client: client}
}

func prefsKey(userID string) string { return "user:" + userID + ":preferences" }

func (s *PreferenceStore) Get(ctx context.Context, userID string) (*models.UserPreferences, error) {
	data, err := s.client.Get(ctx, prefsKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.StoreUnavailable("get_preferences", err)
	}
	var prefs models.UserPreferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return nil, apperrors.StoreUnavailable("get_preferences_unmarshal", err)
	}
	return &prefs, nil
}

// Put persists prefs and returns the new version hash (md5 of the
// preference list's JSON encoding), used as the cache-invalidation guard
// spec.md §4.3 requires.
func (s *PreferenceStore) Put(ctx context.Context, prefs models.UserPreferences) (string, error) {
	now := time.Now()
	if prefs.CreatedAt.IsZero() {
		prefs.CreatedAt = now
	}
	prefs.UpdatedAt = now

	data, err := json.Marshal(prefs)
	if err != nil {
		return "", apperrors.BadInput("put_preferences_marshal", err)
	}
	if err := s.client.Set(ctx, prefsKey(prefs.UserID), data, 0).Err(); err != nil {
		return "", apperrors.StoreUnavailable("put_preferences", err)
	}
	return VersionHash(prefs.Preferences), nil
}

// VersionHash is md5(JSON(preferences)) — the cache guard that lets a
// personalized-feed cache entry self-invalidate whenever the user's
// preference list changes, without an explicit cascade.
func VersionHash(preferences []string) string {
	data, _ := json.Marshal(preferences)
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// GenerateUserID mints a fresh opaque user ID. Grounded on
// pkg/common/idgen's uuid-based ID minting.
func GenerateUserID(newID func() string) string {
	return "user_" + newID()
}
