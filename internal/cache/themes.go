package cache

import (
	"context"
	"time"
)

// ThemeCache provides cached access to the expensive theme-store queries:
// the version list of a theme and the version of its built source
// directory. Both are derived from directory scans, so they are cached by
// theme id and invalidated whenever a theme tree changes (snapshot builds,
// archive installs, watcher events).
type ThemeCache struct {
	cache    Cacher
	versions *TypedCache[[]string]
	sources  *TypedCache[string]
}

// Key layout: theme:<id>:versions and theme:<id>:source, so one prefix
// delete covers everything known about a theme.
const themeKeyPrefix = "theme:"

// NewThemeCache creates a theme cache on top of the given backend.
func NewThemeCache(c Cacher, ttl time.Duration) *ThemeCache {
	return &ThemeCache{
		cache:    c,
		versions: NewTypedCache[[]string](c, ttl),
		sources:  NewTypedCache[string](c, ttl),
	}
}

// Versions returns the cached version list for a theme.
func (c *ThemeCache) Versions(ctx context.Context, themeID string) ([]string, bool) {
	v, ok := c.versions.Get(ctx, versionsKey(themeID))
	if !ok {
		return nil, false
	}
	return *v, true
}

// SetVersions stores the version list for a theme.
func (c *ThemeCache) SetVersions(ctx context.Context, themeID string, versions []string) {
	_ = c.versions.Set(ctx, versionsKey(themeID), &versions)
}

// SourceVersion returns the cached source-directory version for a theme.
func (c *ThemeCache) SourceVersion(ctx context.Context, themeID string) (string, bool) {
	v, ok := c.sources.Get(ctx, sourceKey(themeID))
	if !ok {
		return "", false
	}
	return *v, true
}

// SetSourceVersion stores a theme's source-directory version.
func (c *ThemeCache) SetSourceVersion(ctx context.Context, themeID, version string) {
	_ = c.sources.Set(ctx, sourceKey(themeID), &version)
}

// Invalidate drops everything cached for a theme.
func (c *ThemeCache) Invalidate(ctx context.Context, themeID string) {
	_ = c.cache.DeleteByPrefix(ctx, themeKeyPrefix+themeID+":")
}

// InvalidateAll drops every cached theme entry.
func (c *ThemeCache) InvalidateAll(ctx context.Context) {
	_ = c.cache.DeleteByPrefix(ctx, themeKeyPrefix)
}

func versionsKey(themeID string) string {
	return themeKeyPrefix + themeID + ":versions"
}

func sourceKey(themeID string) string {
	return themeKeyPrefix + themeID + ":source"
}
