package service

import (
	"context"
	"strings"
	"time"

	"github.com/devspace/skills-analyzer/cache"
	"github.com/devspace/skills-analyzer/config"
	"github.com/devspace/skills-analyzer/limiter"
	"github.com/devspace/skills-analyzer/model"

	log "github.com/sirupsen/logrus"
)

// LanguageAnalyzer is the part of GithubService the analysis service needs
type LanguageAnalyzer interface {
	AnalyzeUserLanguages(ctx context.Context, username string) ([]model.LanguageStat, error)
}

type AnalysisService interface {
	Analyze(ctx context.Context, identity string, rawInput string) (model.AnalysisResult, error)
}

type analysisService struct {
	analyzer    LanguageAnalyzer
	store       cache.Store
	rateLimiter *limiter.FixedWindow
	cacheTTL    time.Duration
	now         func() time.Time
}

func NewAnalysisService(cfg config.Config, analyzer LanguageAnalyzer, store cache.Store, rateLimiter *limiter.FixedWindow) AnalysisService {
	return &analysisService{
		analyzer:    analyzer,
		store:       store,
		rateLimiter: rateLimiter,
		cacheTTL:    time.Duration(cfg.Cache.TTLHours) * time.Hour,
		now:         time.Now,
	}
}

// Analyze runs one analysis call: rate limit check, input validation, cache
// lookup, and on a miss or stale hit a full recomputation followed by an
// upsert. A failed recomputation surfaces the error and leaves any existing
// cache row untouched; stale data is never served.
func (s *analysisService) Analyze(ctx context.Context, identity string, rawInput string) (model.AnalysisResult, error) {
	if !s.rateLimiter.Allow(identity) {
		log.WithField("identity", identity).Warning("rate limit exceeded")
		return model.AnalysisResult{}, model.ErrRateLimited
	}

	username, err := model.ExtractUsername(rawInput)

	if err != nil {
		return model.AnalysisResult{}, err
	}

	// cache key is case-insensitive: Alice and alice share one record
	key := strings.ToLower(username)

	log.WithField("username", key).Info("analyzing github skills")

	record, err := s.store.Get(ctx, key)

	if err != nil {
		// a broken cache read degrades to a miss, not a failure
		log.WithError(err).Warning("unable to read analysis cache. will recompute")
		record = nil
	}

	if record != nil && record.Fresh(s.now(), s.cacheTTL) {
		log.WithField("username", key).Info("returning cached analysis")
		return model.AnalysisResult{Skills: record.Languages, Cached: true}, nil
	}

	skills, err := s.analyzer.AnalyzeUserLanguages(ctx, key)

	if err != nil {
		return model.AnalysisResult{}, err
	}

	if err := s.store.Upsert(ctx, model.CacheRecord{
		Username:  key,
		Languages: skills,
		CachedAt:  s.now(),
	}); err != nil {
		// the result is still valid, only the next call pays for the recompute
		log.WithError(err).Warning("unable to persist analysis cache record")
	}

	log.WithFields(log.Fields{
		"username":  key,
		"languages": len(skills),
	}).Info("analysis finished")

	return model.AnalysisResult{Skills: skills, Cached: false}, nil
}
