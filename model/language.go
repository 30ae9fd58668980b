package model

import "time"

// LanguageStat is one entry of an aggregation result.
// Percentage is derived from bytes over the total of the whole result,
// rounded to one decimal place.
type LanguageStat struct {
	Name       string  `json:"name"`
	Bytes      int     `json:"bytes"`
	Percentage float64 `json:"percentage"`
}

// AnalysisResult is the payload served to the caller. Cached reports whether
// the skills were served from the cache instead of a fresh aggregation.
type AnalysisResult struct {
	Skills []LanguageStat `json:"skills"`
	Cached bool           `json:"cached"`
}

// AnalyzeRequest is the inbound body of POST /analyze
type AnalyzeRequest struct {
	Username string `json:"username"`
}

// CacheRecord is one persisted aggregation result, at most one per username
// (upsert semantics). Username is the lowercased, trimmed cache key.
type CacheRecord struct {
	Username  string         `json:"github_username"`
	Languages []LanguageStat `json:"languages"`
	CachedAt  time.Time      `json:"cached_at"`
}

// Fresh reports whether the record is still within the ttl at the given time
func (r CacheRecord) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(r.CachedAt) < ttl
}
