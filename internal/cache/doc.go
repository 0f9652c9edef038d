// Package cache provides a bounded LRU cache with hit/miss accounting.
//
// The model registry uses it to avoid repeated backend lookups for trained
// models; only entries the caller chooses to Set are cached.
package cache
