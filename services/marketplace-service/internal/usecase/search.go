package usecase

import (
	"context"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/config"
	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/model"
	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/repository"
	"github.com/vasapolrittideah/freelance-hub-api/shared/cache"
)

// FiltersCacheKey is the cache key of the search filter facets.
const FiltersCacheKey = "search:filters"

// featuredProjects is how many public projects a search result carries.
const featuredProjects = 3

// SearchUsecase defines the read side over published portfolios.
type SearchUsecase interface {
	SearchFreelancers(ctx context.Context, params SearchParams) (*SearchResult, error)

	// GetFilters returns the values clients can filter a search by.
	GetFilters(ctx context.Context) (*Filters, error)
}

type SearchParams struct {
	Query    string
	Skills   []string
	Category string
	Location string
	Page     int
	Limit    int
}

type SearchResult struct {
	Freelancers []*model.Freelancer `json:"freelancers"`
	Pagination  Pagination          `json:"pagination"`
}

type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalResults int64 `json:"totalResults"`
	HasNextPage  bool  `json:"hasNextPage"`
	HasPrevPage  bool  `json:"hasPrevPage"`
}

type Filters struct {
	Skills           []string `json:"skills"`
	Locations        []string `json:"locations"`
	Categories       []string `json:"categories"`
	ExperienceLevels []string `json:"experienceLevels"`
}

type searchUsecase struct {
	freelancerRepo repository.FreelancerRepository
	cache          *cache.Cache
	logger         *zerolog.Logger
	defaultLimit   int
	maxLimit       int
	filtersTTL     time.Duration
}

func NewSearchUsecase(
	freelancerRepo repository.FreelancerRepository,
	cache *cache.Cache,
	logger *zerolog.Logger,
	cfg *config.Config,
) SearchUsecase {
	return &searchUsecase{
		freelancerRepo: freelancerRepo,
		cache:          cache,
		logger:         logger,
		defaultLimit:   cfg.Search.DefaultLimit,
		maxLimit:       cfg.Search.MaxLimit,
		filtersTTL:     cfg.Search.FiltersCacheTTL,
	}
}

func (u *searchUsecase) SearchFreelancers(ctx context.Context, params SearchParams) (*SearchResult, error) {
	page := max(params.Page, 1)

	limit := params.Limit
	if limit < 1 {
		limit = u.defaultLimit
	}
	limit = min(limit, u.maxLimit)

	freelancers, total, err := u.freelancerRepo.SearchFreelancers(ctx, repository.SearchParams{
		Query:    params.Query,
		Skills:   params.Skills,
		Category: params.Category,
		Location: params.Location,
		Skip:     skipFor(page, limit),
		Limit:    int64(limit),
	})
	if err != nil {
		return nil, err
	}

	for _, f := range freelancers {
		f.Projects = f.FeaturedProjects(featuredProjects)
	}

	return &SearchResult{
		Freelancers: freelancers,
		Pagination:  paginate(page, limit, total),
	}, nil
}

func (u *searchUsecase) GetFilters(ctx context.Context) (*Filters, error) {
	var filters Filters
	err := u.cache.CacheAside(ctx, FiltersCacheKey, &filters, u.filtersTTL, func() error {
		skills, err := u.freelancerRepo.DistinctValues(ctx, repository.FieldSkills)
		if err != nil {
			return err
		}

		locations, err := u.freelancerRepo.DistinctValues(ctx, repository.FieldLocation)
		if err != nil {
			return err
		}

		categories, err := u.freelancerRepo.DistinctValues(ctx, repository.FieldProjectCategory)
		if err != nil {
			return err
		}

		filters = Filters{
			Skills:           sortedUnique(skills),
			Locations:        sortedUnique(locations),
			Categories:       sortedUnique(categories),
			ExperienceLevels: slices.Clone(model.ExperienceLevels),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &filters, nil
}

// skipFor returns the number of records before page. Pages too far out to address
// saturate to the largest skip, which yields an empty page.
func skipFor(page, limit int) int64 {
	if int64(page-1) > math.MaxInt64/int64(limit) {
		return math.MaxInt64
	}
	return int64(page-1) * int64(limit)
}

func paginate(page, limit int, total int64) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalResults: total,
		HasNextPage:  page < totalPages,
		HasPrevPage:  page > 1,
	}
}

func sortedUnique(values []string) []string {
	cleaned := cleanStrings(values)
	slices.SortFunc(cleaned, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return cleaned
}
