package sessioncache

import "screening-service/internal/pkg/constvars"

// ResourceKey composes {prefix}_{sessionKey}, the namespace used for
// session-wide resources (clinical bundles, logic libraries, plan
// definitions). ClearByPrefix(prefix) drops every generation of the resource
// regardless of which session key minted it.
func ResourceKey(prefix, sessionKey string) string {
	return prefix + constvars.CacheKeySeparator + sessionKey
}

// SessionStateKey composes {sessionKey}_{suffix}, the namespace for
// per-session scheduling state (scheduled list, administered set).
func SessionStateKey(sessionKey, suffix string) string {
	return sessionKey + constvars.CacheKeySeparator + suffix
}
