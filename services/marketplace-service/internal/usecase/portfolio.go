package usecase

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/model"
	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/repository"
	"github.com/vasapolrittideah/freelance-hub-api/shared/cache"
)

// PortfolioUsecase defines the business logic for a freelancer's portfolio and its projects.
// Every mutation rewrites the freelancer search record.
type PortfolioUsecase interface {
	SavePortfolio(ctx context.Context, userID string, params SavePortfolioParams) (*model.Portfolio, error)
	GetMyPortfolio(ctx context.Context, userID string) (*model.Portfolio, error)

	// GetPublicPortfolio returns a published portfolio with its private projects removed.
	GetPublicPortfolio(ctx context.Context, userID string) (*model.Portfolio, error)
	PublishPortfolio(ctx context.Context, userID string) (*model.Portfolio, error)
	UnpublishPortfolio(ctx context.Context, userID string) (*model.Portfolio, error)
	DeletePortfolio(ctx context.Context, userID string) error

	AddProject(ctx context.Context, userID string, params ProjectParams) (*model.Portfolio, error)
	UpdateProject(
		ctx context.Context,
		userID, projectID string,
		params repository.UpdateProjectParams,
	) (*model.Portfolio, error)
	DeleteProject(ctx context.Context, userID, projectID string) (*model.Portfolio, error)
}

// SavePortfolioParams holds the editable portfolio fields. A nil Projects keeps the stored projects.
type SavePortfolioParams struct {
	Name        string
	Title       string
	Bio         string
	Email       string
	Phone       string
	Location    string
	Avatar      string
	HourlyRate  float64
	Experience  string
	Skills      []string
	SocialLinks model.SocialLinks
	Projects    []ProjectParams
}

type ProjectParams struct {
	ID            string
	Title         string
	Description   string
	MediaURL      string
	Technologies  []string
	Category      model.ProjectCategory
	LiveURL       string
	RepositoryURL string
	IsPublic      bool
}

var (
	ErrPortfolioNotFound   = errors.New("portfolio not found")
	ErrProjectNotFound     = errors.New("project not found")
	ErrPortfolioIncomplete = errors.New("portfolio needs a name, a title and at least one project to be published")
	ErrProjectTitle        = errors.New("project title is required")
	ErrProjectCategory     = errors.New("project category is invalid")
	ErrInvalidExperience   = errors.New("experience must be entry, intermediate or expert")
)

type portfolioUsecase struct {
	portfolioRepo  repository.PortfolioRepository
	freelancerRepo repository.FreelancerRepository
	cache          *cache.Cache
	logger         *zerolog.Logger
	now            func() time.Time
}

func NewPortfolioUsecase(
	portfolioRepo repository.PortfolioRepository,
	freelancerRepo repository.FreelancerRepository,
	cache *cache.Cache,
	logger *zerolog.Logger,
) PortfolioUsecase {
	return &portfolioUsecase{
		portfolioRepo:  portfolioRepo,
		freelancerRepo: freelancerRepo,
		cache:          cache,
		logger:         logger,
		now:            time.Now,
	}
}

func (u *portfolioUsecase) SavePortfolio(
	ctx context.Context,
	userID string,
	params SavePortfolioParams,
) (*model.Portfolio, error) {
	ownerID, err := parseOwnerID(userID)
	if err != nil {
		return nil, err
	}

	if params.Experience != "" && !slices.Contains(model.ExperienceLevels, params.Experience) {
		return nil, ErrInvalidExperience
	}

	published := false
	existing, err := u.portfolioRepo.GetPortfolioByUserID(ctx, ownerID)
	switch {
	case err == nil:
		published = existing.IsPublished
	case !errors.Is(err, mongo.ErrNoDocuments):
		return nil, err
	}

	portfolio := &model.Portfolio{
		UserID:      ownerID,
		Name:        strings.TrimSpace(params.Name),
		Title:       strings.TrimSpace(params.Title),
		Bio:         params.Bio,
		Email:       strings.ToLower(strings.TrimSpace(params.Email)),
		Phone:       params.Phone,
		Location:    strings.TrimSpace(params.Location),
		Avatar:      params.Avatar,
		HourlyRate:  params.HourlyRate,
		Experience:  params.Experience,
		Skills:      cleanStrings(params.Skills),
		SocialLinks: params.SocialLinks,
	}

	replaceProjects := params.Projects != nil
	if replaceProjects {
		now := u.now()
		portfolio.Projects = make([]model.Project, 0, len(params.Projects))
		for _, p := range params.Projects {
			project, err := newProject(p, published, now)
			if err != nil {
				return nil, err
			}
			portfolio.Projects = append(portfolio.Projects, *project)
		}
	}

	saved, err := u.portfolioRepo.UpsertPortfolio(ctx, portfolio, replaceProjects)
	if err != nil {
		return nil, err
	}

	if err := u.sync(ctx, saved, saved.Visible()); err != nil {
		return nil, err
	}

	return saved, nil
}

func (u *portfolioUsecase) GetMyPortfolio(ctx context.Context, userID string) (*model.Portfolio, error) {
	ownerID, err := parseOwnerID(userID)
	if err != nil {
		return nil, err
	}

	return u.getPortfolio(ctx, ownerID)
}

func (u *portfolioUsecase) GetPublicPortfolio(ctx context.Context, userID string) (*model.Portfolio, error) {
	ownerID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrPortfolioNotFound
	}

	portfolio, err := u.getPortfolio(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if !portfolio.Visible() {
		return nil, ErrPortfolioNotFound
	}

	portfolio.Projects = portfolio.PublicProjects()

	return portfolio, nil
}

func (u *portfolioUsecase) PublishPortfolio(ctx context.Context, userID string) (*model.Portfolio, error) {
	ownerID, err := parseOwnerID(userID)
	if err != nil {
		return nil, err
	}

	portfolio, err := u.getPortfolio(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if portfolio.Name == "" || portfolio.Title == "" || len(portfolio.Projects) == 0 {
		return nil, ErrPortfolioIncomplete
	}

	return u.setPublished(ctx, ownerID, true)
}

func (u *portfolioUsecase) UnpublishPortfolio(ctx context.Context, userID string) (*model.Portfolio, error) {
	ownerID, err := parseOwnerID(userID)
	if err != nil {
		return nil, err
	}

	return u.setPublished(ctx, ownerID, false)
}

func (u *portfolioUsecase) DeletePortfolio(ctx context.Context, userID string) error {
	ownerID, err := parseOwnerID(userID)
	if err != nil {
		return err
	}

	deleted, err := u.portfolioRepo.DeletePortfolio(ctx, ownerID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrPortfolioNotFound
	}

	if err := u.freelancerRepo.DeleteFreelancer(ctx, ownerID); err != nil {
		return err
	}

	u.invalidateFilters(ctx)

	return nil
}

func (u *portfolioUsecase) AddProject(
	ctx context.Context,
	userID string,
	params ProjectParams,
) (*model.Portfolio, error) {
	ownerID, err := parseOwnerID(userID)
	if err != nil {
		return nil, err
	}

	portfolio, err := u.getPortfolio(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	params.ID = ""
	project, err := newProject(params, portfolio.IsPublished, u.now())
	if err != nil {
		return nil, err
	}

	saved, err := u.portfolioRepo.AddProject(ctx, ownerID, project)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPortfolioNotFound
		}
		return nil, err
	}

	if err := u.sync(ctx, saved, saved.Visible()); err != nil {
		return nil, err
	}

	return saved, nil
}

func (u *portfolioUsecase) UpdateProject(
	ctx context.Context,
	userID, projectID string,
	params repository.UpdateProjectParams,
) (*model.Portfolio, error) {
	ownerID, err := parseOwnerID(userID)
	if err != nil {
		return nil, err
	}

	pid, err := bson.ObjectIDFromHex(projectID)
	if err != nil {
		return nil, ErrProjectNotFound
	}

	if params.Title != nil {
		title := strings.TrimSpace(*params.Title)
		if title == "" {
			return nil, ErrProjectTitle
		}
		params.Title = &title
	}
	if params.Category != nil && !slices.Contains(model.ProjectCategories, *params.Category) {
		return nil, ErrProjectCategory
	}
	if params.Technologies != nil {
		technologies := cleanStrings(*params.Technologies)
		params.Technologies = &technologies
	}

	portfolio, err := u.getPortfolio(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	// Projects of a published portfolio stay public.
	if portfolio.IsPublished && params.IsPublic != nil {
		public := true
		params.IsPublic = &public
	}

	saved, err := u.portfolioRepo.UpdateProject(ctx, ownerID, pid, params)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	if err := u.sync(ctx, saved, saved.Visible()); err != nil {
		return nil, err
	}

	return saved, nil
}

func (u *portfolioUsecase) DeleteProject(ctx context.Context, userID, projectID string) (*model.Portfolio, error) {
	ownerID, err := parseOwnerID(userID)
	if err != nil {
		return nil, err
	}

	pid, err := bson.ObjectIDFromHex(projectID)
	if err != nil {
		return nil, ErrProjectNotFound
	}

	saved, err := u.portfolioRepo.DeleteProject(ctx, ownerID, pid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	if err := u.sync(ctx, saved, saved.Visible()); err != nil {
		return nil, err
	}

	return saved, nil
}

func (u *portfolioUsecase) getPortfolio(ctx context.Context, ownerID bson.ObjectID) (*model.Portfolio, error) {
	portfolio, err := u.portfolioRepo.GetPortfolioByUserID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPortfolioNotFound
		}
		return nil, err
	}

	return portfolio, nil
}

func (u *portfolioUsecase) setPublished(
	ctx context.Context,
	ownerID bson.ObjectID,
	published bool,
) (*model.Portfolio, error) {
	saved, err := u.portfolioRepo.SetPublished(ctx, ownerID, published, u.now())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPortfolioNotFound
		}
		return nil, err
	}

	if err := u.sync(ctx, saved, true); err != nil {
		return nil, err
	}

	u.logger.Info().Str("user_id", ownerID.Hex()).Bool("published", published).Msg("portfolio visibility changed")

	return saved, nil
}

// sync rewrites the search record from portfolio and drops cached filter facets when they may have changed.
func (u *portfolioUsecase) sync(ctx context.Context, portfolio *model.Portfolio, invalidate bool) error {
	if err := u.freelancerRepo.UpsertFreelancer(ctx, model.NewFreelancerFromPortfolio(portfolio)); err != nil {
		return err
	}

	if invalidate {
		u.invalidateFilters(ctx)
	}

	return nil
}

func (u *portfolioUsecase) invalidateFilters(ctx context.Context) {
	if err := u.cache.Delete(ctx, FiltersCacheKey); err != nil {
		u.logger.Warn().Err(err).Msg("failed to invalidate cached search filters")
	}
}

func newProject(params ProjectParams, published bool, now time.Time) (*model.Project, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, ErrProjectTitle
	}

	category := params.Category
	if category == "" {
		category = model.CategoryOther
	}
	if !slices.Contains(model.ProjectCategories, category) {
		return nil, ErrProjectCategory
	}

	id, err := bson.ObjectIDFromHex(params.ID)
	if err != nil {
		id = bson.NewObjectID()
	}

	return &model.Project{
		ID:           id,
		Title:        title,
		Description:  params.Description,
		MediaURL:     params.MediaURL,
		Technologies: cleanStrings(params.Technologies),
		Category:     category,
		Links: model.ProjectLinks{
			Live:       params.LiveURL,
			Repository: params.RepositoryURL,
		},
		IsPublic:  params.IsPublic || published,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// parseOwnerID converts the authenticated user ID. A malformed ID cannot come from a valid session.
func parseOwnerID(userID string) (bson.ObjectID, error) {
	id, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return bson.ObjectID{}, ErrUnauthorized
	}
	return id, nil
}

// cleanStrings trims values and drops empty and duplicate ones, keeping the first occurrence.
func cleanStrings(values []string) []string {
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || slices.Contains(cleaned, v) {
			continue
		}
		cleaned = append(cleaned, v)
	}
	return cleaned
}
