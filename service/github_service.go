package service

import (
	"context"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/devspace/skills-analyzer/config"
	"github.com/devspace/skills-analyzer/model"
	"github.com/google/go-github/v66/github"

	"github.com/remeh/sizedwaitgroup"
	log "github.com/sirupsen/logrus"

	"golang.org/x/time/rate"
)

const (
	reposPerPage = 100

	// hard ceiling on pagination: accounts with more than 1000 owned
	// repositories get the first 1000 analyzed, the rest is excluded
	maxRepoPages = 10
)

type GithubService interface {
	AnalyzeUserLanguages(ctx context.Context, username string) ([]model.LanguageStat, error)
	FetchUserRepositories(ctx context.Context, username string) ([]model.GithubRepository, error)
	FetchLanguagesForRepositories(ctx context.Context, repos []model.GithubRepository) []model.GithubRepositoryLanguages
	FetchLanguagesForSingleRepository(ctx context.Context, r model.GithubRepository, swg *sizedwaitgroup.SizedWaitGroup, ch chan<- model.GithubRepositoryLanguages) error

	HandleRequestErrors(err error) error
}

type githubService struct {
	githubClient      *github.Client
	githubRateLimiter *rate.Limiter
	config            config.Config
}

// ListLanguages rate limit = 60 calls per hour for non-authenticated and 5000 calls for authenticated
// the local rate limiter mirrors that quota so we can reject before hitting the API
func NewGithubService(config config.Config, githubClient *github.Client, rateLimiter *rate.Limiter) GithubService {
	return githubService{
		githubClient:      githubClient,
		githubRateLimiter: rateLimiter,
		config:            config,
	}
}

// AnalyzeUserLanguages aggregates the language byte counts over all owned,
// non-fork repositories of the given account and derives percentages.
// The result is sorted descending by byte count.
func (s githubService) AnalyzeUserLanguages(ctx context.Context, username string) ([]model.LanguageStat, error) {
	if !s.githubRateLimiter.Allow() {
		log.Warning("the Github rate limit has been reached. Use a token or wait until the limit reset")
		return nil, model.ErrGithubRateLimited
	}

	// existence check before paying for the full listing
	// a 404 here is the only place we can tell an unknown user apart from an empty one
	if _, _, err := s.githubClient.Users.Get(ctx, username); err != nil {
		return nil, s.HandleRequestErrors(err)
	}

	repos, err := s.FetchUserRepositories(ctx, username)

	if err != nil {
		return nil, err
	}

	if len(repos) == 0 {
		log.WithField("username", username).Info("no owned non-fork repositories found")
		return []model.LanguageStat{}, nil
	}

	// rate limit check: consume one request per repository we are about to load
	// if there is not enought requests, return an error to avoid loading only a part of repositories
	if !s.githubRateLimiter.AllowN(time.Now(), len(repos)) {
		log.WithField("repositoriesToLoad", len(repos)).Warning("not enought requests in rate limiter to load languages for all repositories")
		return nil, model.ErrGithubRateLimited
	}

	results := s.FetchLanguagesForRepositories(ctx, repos)

	return mergeLanguageStats(results), nil
}

// FetchUserRepositories lists the repositories owned by the account, 100 per
// page, until a short page or the page ceiling. Forks are excluded: the goal
// is to measure original authorship, not inherited code.
func (s githubService) FetchUserRepositories(ctx context.Context, username string) ([]model.GithubRepository, error) {
	log.WithField("username", username).Info("fetch owned repositories from github")

	owned := make([]model.GithubRepository, 0)
	forksExcluded := 0

	opts := &github.RepositoryListByUserOptions{
		Type: "owner",
		ListOptions: github.ListOptions{
			PerPage: reposPerPage,
		},
	}

	for page := 1; page <= maxRepoPages; page++ {
		opts.Page = page
		repos, _, err := s.githubClient.Repositories.ListByUser(ctx, username, opts)

		if err != nil {
			return nil, s.HandleRequestErrors(err)
		}

		for _, r := range repos {
			if r.GetFork() {
				forksExcluded++
				continue
			}

			owned = append(owned, model.GithubRepository{
				FullName:   r.GetFullName(),
				Owner:      r.GetOwner().GetLogin(),
				Repository: r.GetName(),
				Fork:       false,
			})
		}

		// short page means end of data
		if len(repos) < reposPerPage {
			break
		}
	}

	log.WithFields(log.Fields{
		"username":      username,
		"owned":         len(owned),
		"forksExcluded": forksExcluded,
	}).Debug("repository listing finished")

	return owned, nil
}

// FetchLanguagesForRepositories will fetch the languages used for each repository in parameters
// this function use wait groups to parallelize the requests, with at most
// MaxParallelTasksAllowed outstanding at once. A failed repository contributes
// an empty language map instead of failing the whole aggregation.
func (s githubService) FetchLanguagesForRepositories(ctx context.Context, repos []model.GithubRepository) []model.GithubRepositoryLanguages {

	// create a group to wait for all goroutines to finish
	swg := sizedwaitgroup.New(s.config.Tasks.MaxParallelTasksAllowed)

	// create a channel to collect response for all repositories
	// we will associate with the original repository order when all tasks are finished
	results := make(chan model.GithubRepositoryLanguages, len(repos))

	for _, r := range repos {
		swg.Add()
		go func(r model.GithubRepository) {
			_ = s.FetchLanguagesForSingleRepository(ctx, r, &swg, results)
		}(r)
	}

	// wait for all tasks to be finished
	log.Debug("waiting for all threads for loading repositories languages to be finished")
	swg.Wait()
	log.Debug("all threads for loading repositories languages finished")

	// close the channel
	close(results)

	// reassemble in original repository order so the merge is deterministic
	langMap := make(map[string]map[string]int)
	for result := range results {
		langMap[result.RepositoryFullName] = result.Languages
	}

	ordered := make([]model.GithubRepositoryLanguages, 0, len(repos))
	for _, r := range repos {
		ordered = append(ordered, model.GithubRepositoryLanguages{
			RepositoryFullName: r.FullName,
			Languages:          langMap[r.FullName],
		})
	}

	return ordered
}

// FetchLanguagesForSingleRepository get the languages for a specific repository
// It will add the results to a channel and use a goroutine
// a fetch failure is logged and reported as an empty map: the repository
// contributes zero bytes but never aborts the aggregation
func (s githubService) FetchLanguagesForSingleRepository(ctx context.Context, r model.GithubRepository, swg *sizedwaitgroup.SizedWaitGroup, ch chan<- model.GithubRepositoryLanguages) error {
	defer swg.Done()

	log.WithField("repository", r.FullName).Debug("fetch languages for repository")

	res, _, err := s.githubClient.Repositories.ListLanguages(
		ctx,
		r.Owner,
		r.Repository,
	)

	if err != nil {
		log.WithError(err).WithField("repository", r.FullName).Warning("unable to fetch languages for repository. it will contribute zero bytes")
		ch <- model.GithubRepositoryLanguages{RepositoryFullName: r.FullName, Languages: map[string]int{}}
		return s.HandleRequestErrors(err)
	}

	ch <- model.GithubRepositoryLanguages{RepositoryFullName: r.FullName, Languages: res}
	return nil
}

// HandleRequestErrors manage errors including github rate limit errors at the same location
// If error is a rate limit error, this function will update the local rate limiter to consume all available requests
// this can help us to keep the local rate limiter up to date
func (s githubService) HandleRequestErrors(err error) error {
	switch e := err.(type) {
	case *github.RateLimitError, *github.AbuseRateLimitError:
		if !s.githubRateLimiter.AllowN(time.Now(), s.githubRateLimiter.Burst()) {
			log.Warning("unable to drain the local github rate limiter")
		}

		log.Warning("the Github rate limit has been reached. Use a token or wait until the limit reset")
		return model.ErrGithubRateLimited

	case *github.ErrorResponse:
		if e.Response != nil {
			switch e.Response.StatusCode {
			case http.StatusNotFound:
				return model.ErrUserNotFound
			case http.StatusForbidden:
				return model.ErrGithubRateLimited
			}
		}
	}

	log.WithError(err).Error("error catched when fetching data from github")
	return model.ErrFetch
}

// mergeLanguageStats sums bytes per language over the per-repository results
// and derives a percentage per language, rounded to one decimal place.
// Ties on byte count keep first-encounter order.
func mergeLanguageStats(results []model.GithubRepositoryLanguages) []model.LanguageStat {
	totals := make(map[string]int)
	encounterOrder := make([]string, 0)

	for _, result := range results {

		// iterate each repository map in sorted name order so the
		// encounter order does not depend on map iteration
		names := make([]string, 0, len(result.Languages))
		for name := range result.Languages {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			if _, seen := totals[name]; !seen {
				encounterOrder = append(encounterOrder, name)
			}
			totals[name] += result.Languages[name]
		}
	}

	totalBytes := 0
	for _, bytes := range totals {
		totalBytes += bytes
	}

	stats := make([]model.LanguageStat, 0, len(encounterOrder))

	for _, name := range encounterOrder {
		percentage := 0.0

		if totalBytes > 0 {
			percentage = math.Round(float64(totals[name])/float64(totalBytes)*1000) / 10
		}

		stats = append(stats, model.LanguageStat{
			Name:       name,
			Bytes:      totals[name],
			Percentage: percentage,
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Bytes > stats[j].Bytes
	})

	return stats
}
