package usecase

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/config"
	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/model"
	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/repository"
	"github.com/vasapolrittideah/freelance-hub-api/shared/mailer"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment: config.EnvironmentDevelopment,
		Token: config.TokenConfig{
			Issuer:                     "freelance-hub-test",
			Audience:                   "freelance-hub-api-test",
			AccessTokenSecret:          "access-secret-access-secret-access-secret",
			AccessTokenExpiresIn:       time.Hour,
			VerificationTokenSecret:    "verify-secret-verify-secret-verify-secret",
			VerificationTokenExpiresIn: 30 * time.Minute,
		},
		OTP: config.OTPConfig{ExpiresIn: 10 * time.Minute},
		Search: config.SearchConfig{
			DefaultLimit:    12,
			MaxLimit:        50,
			FiltersCacheTTL: time.Minute,
		},
	}
}

func nopLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

var errDuplicateKey = mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "duplicate key"}}}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[bson.ObjectID]model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[bson.ObjectID]model.User{}}
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return nil, errDuplicateKey
		}
	}

	user.ID = bson.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = *user

	created := *user
	return &created, nil
}

func (r *fakeUserRepo) GetUser(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}

	user, ok := r.users[objectID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &user, nil
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeUserRepo) UpdateUser(
	_ context.Context,
	id string,
	params repository.UpdateUserParams,
) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}

	if params == (repository.UpdateUserParams{}) {
		return nil, repository.ErrNoFieldsToUpdate
	}

	user, ok := r.users[objectID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	if params.Name != nil {
		user.Name = *params.Name
	}
	if params.PasswordHash != nil {
		user.PasswordHash = *params.PasswordHash
	}
	if params.Title != nil {
		user.Profile.Title = *params.Title
	}
	if params.Skills != nil {
		user.Profile.Skills = *params.Skills
	}
	if params.Bio != nil {
		user.Profile.Bio = *params.Bio
	}
	if params.HourlyRate != nil {
		user.Profile.HourlyRate = *params.HourlyRate
	}
	if params.Location != nil {
		user.Profile.Location = *params.Location
	}
	if params.LastLoginAt != nil {
		user.LastLoginAt = params.LastLoginAt
	}
	user.UpdatedAt = time.Now()
	r.users[objectID] = user

	return &user, nil
}

type fakeGrantRepo struct {
	mu     sync.Mutex
	grants map[string]model.VerificationGrant
}

func newFakeGrantRepo() *fakeGrantRepo {
	return &fakeGrantRepo{grants: map[string]model.VerificationGrant{}}
}

func (r *fakeGrantRepo) CreateGrant(_ context.Context, grant *model.VerificationGrant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.grants[grant.TokenID] = *grant
	return nil
}

func (r *fakeGrantRepo) ConsumeGrant(
	_ context.Context,
	tokenID string,
	email string,
	purpose model.OTPPurpose,
) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	grant, ok := r.grants[tokenID]
	if !ok || grant.Email != email || grant.Purpose != purpose || !time.Now().Before(grant.ExpiresAt) {
		return false, nil
	}
	delete(r.grants, tokenID)
	return true, nil
}

func (r *fakeGrantRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.grants)
}

type fakeOTPRepo struct {
	mu   sync.Mutex
	otps []model.OTP
}

func (r *fakeOTPRepo) CreateOTP(_ context.Context, otp *model.OTP) (*model.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	otp.ID = bson.NewObjectID()
	r.otps = append(r.otps, *otp)

	created := *otp
	return &created, nil
}

func (r *fakeOTPRepo) GetLatestOTP(_ context.Context, email string, purpose model.OTPPurpose) (*model.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.otps) - 1; i >= 0; i-- {
		if r.otps[i].Email == email && r.otps[i].Purpose == purpose {
			otp := r.otps[i]
			return &otp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeOTPRepo) DeleteOTP(_ context.Context, id bson.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, otp := range r.otps {
		if otp.ID == id {
			r.otps = slices.Delete(r.otps, i, i+1)
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeOTPRepo) DeleteOTPs(_ context.Context, email string, purpose model.OTPPurpose) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := len(r.otps)
	r.otps = slices.DeleteFunc(r.otps, func(otp model.OTP) bool {
		return otp.Email == email && otp.Purpose == purpose
	})
	return int64(before - len(r.otps)), nil
}

func (r *fakeOTPRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.otps)
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[bson.ObjectID]model.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[bson.ObjectID]model.Session{}}
}

func (r *fakeSessionRepo) CreateSession(_ context.Context, session *model.Session) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session.ID = bson.NewObjectID()
	session.CreatedAt = time.Now()
	r.sessions[session.ID] = *session

	created := *session
	return &created, nil
}

func (r *fakeSessionRepo) GetSession(_ context.Context, id string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}

	session, ok := r.sessions[objectID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &session, nil
}

func (r *fakeSessionRepo) DeleteSession(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return mongo.ErrNoDocuments
	}

	delete(r.sessions, objectID)
	return nil
}

func (r *fakeSessionRepo) DeleteUserSessions(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, session := range r.sessions {
		if session.UserID == userID {
			delete(r.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakePortfolioRepo struct {
	mu         sync.Mutex
	portfolios map[bson.ObjectID]model.Portfolio
}

func newFakePortfolioRepo() *fakePortfolioRepo {
	return &fakePortfolioRepo{portfolios: map[bson.ObjectID]model.Portfolio{}}
}

func clonePortfolio(p model.Portfolio) *model.Portfolio {
	p.Projects = slices.Clone(p.Projects)
	p.Skills = slices.Clone(p.Skills)
	return &p
}

func (r *fakePortfolioRepo) put(p model.Portfolio) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.portfolios[p.UserID] = *clonePortfolio(p)
}

func (r *fakePortfolioRepo) GetPortfolioByUserID(_ context.Context, userID bson.ObjectID) (*model.Portfolio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.portfolios[userID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return clonePortfolio(p), nil
}

func (r *fakePortfolioRepo) UpsertPortfolio(
	_ context.Context,
	portfolio *model.Portfolio,
	replaceProjects bool,
) (*model.Portfolio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	saved, ok := r.portfolios[portfolio.UserID]
	if !ok {
		saved = model.Portfolio{ID: bson.NewObjectID(), UserID: portfolio.UserID, CreatedAt: now, Projects: []model.Project{}}
	}

	saved.Name = portfolio.Name
	saved.Title = portfolio.Title
	saved.Bio = portfolio.Bio
	saved.Email = portfolio.Email
	saved.Phone = portfolio.Phone
	saved.Location = portfolio.Location
	saved.Avatar = portfolio.Avatar
	saved.HourlyRate = portfolio.HourlyRate
	saved.Experience = portfolio.Experience
	saved.Skills = slices.Clone(portfolio.Skills)
	saved.SocialLinks = portfolio.SocialLinks
	if replaceProjects {
		saved.Projects = slices.Clone(portfolio.Projects)
	}
	saved.LastSavedAt = now
	saved.UpdatedAt = now
	r.portfolios[portfolio.UserID] = saved

	return clonePortfolio(saved), nil
}

func (r *fakePortfolioRepo) SetPublished(
	_ context.Context,
	userID bson.ObjectID,
	published bool,
	at time.Time,
) (*model.Portfolio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.portfolios[userID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	p.IsPublished, p.IsPublic = published, published
	p.Projects = slices.Clone(p.Projects)
	if published {
		p.PublishedAt = &at
		for i := range p.Projects {
			p.Projects[i].IsPublic = true
		}
	} else {
		p.PublishedAt = nil
	}
	r.portfolios[userID] = p

	return clonePortfolio(p), nil
}

func (r *fakePortfolioRepo) DeletePortfolio(_ context.Context, userID bson.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.portfolios[userID]
	delete(r.portfolios, userID)
	return ok, nil
}

func (r *fakePortfolioRepo) AddProject(
	_ context.Context,
	userID bson.ObjectID,
	project *model.Project,
) (*model.Portfolio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.portfolios[userID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	p.Projects = append(slices.Clone(p.Projects), *project)
	r.portfolios[userID] = p

	return clonePortfolio(p), nil
}

func (r *fakePortfolioRepo) UpdateProject(
	_ context.Context,
	userID, projectID bson.ObjectID,
	params repository.UpdateProjectParams,
) (*model.Portfolio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.portfolios[userID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	p.Projects = slices.Clone(p.Projects)
	i := slices.IndexFunc(p.Projects, func(project model.Project) bool { return project.ID == projectID })
	if i < 0 {
		return nil, mongo.ErrNoDocuments
	}

	project := &p.Projects[i]
	if params.Title != nil {
		project.Title = *params.Title
	}
	if params.Description != nil {
		project.Description = *params.Description
	}
	if params.MediaURL != nil {
		project.MediaURL = *params.MediaURL
	}
	if params.Technologies != nil {
		project.Technologies = *params.Technologies
	}
	if params.Category != nil {
		project.Category = *params.Category
	}
	if params.LiveURL != nil {
		project.Links.Live = *params.LiveURL
	}
	if params.RepositoryURL != nil {
		project.Links.Repository = *params.RepositoryURL
	}
	if params.IsPublic != nil {
		project.IsPublic = *params.IsPublic
	}
	r.portfolios[userID] = p

	return clonePortfolio(p), nil
}

func (r *fakePortfolioRepo) DeleteProject(
	_ context.Context,
	userID, projectID bson.ObjectID,
) (*model.Portfolio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.portfolios[userID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	i := slices.IndexFunc(p.Projects, func(project model.Project) bool { return project.ID == projectID })
	if i < 0 {
		return nil, mongo.ErrNoDocuments
	}

	p.Projects = slices.Delete(slices.Clone(p.Projects), i, i+1)
	r.portfolios[userID] = p

	return clonePortfolio(p), nil
}

type fakeFreelancerRepo struct {
	mu         sync.Mutex
	records    map[bson.ObjectID]model.Freelancer
	lastSearch repository.SearchParams
}

func newFakeFreelancerRepo() *fakeFreelancerRepo {
	return &fakeFreelancerRepo{records: map[bson.ObjectID]model.Freelancer{}}
}

func (r *fakeFreelancerRepo) get(userID bson.ObjectID) (model.Freelancer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.records[userID]
	return f, ok
}

func (r *fakeFreelancerRepo) UpsertFreelancer(_ context.Context, freelancer *model.Freelancer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	freelancer.UpdatedAt = time.Now()
	r.records[freelancer.UserID] = *freelancer
	return nil
}

func (r *fakeFreelancerRepo) DeleteFreelancer(_ context.Context, userID bson.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.records, userID)
	return nil
}

func (r *fakeFreelancerRepo) visible() []model.Freelancer {
	visible := make([]model.Freelancer, 0, len(r.records))
	for _, f := range r.records {
		if f.IsPublished && f.IsPublic {
			visible = append(visible, f)
		}
	}
	return visible
}

func (r *fakeFreelancerRepo) SearchFreelancers(
	_ context.Context,
	params repository.SearchParams,
) ([]*model.Freelancer, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastSearch = params
	matches := slices.DeleteFunc(r.visible(), func(f model.Freelancer) bool {
		return !matchesSearch(f, params)
	})
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].PublishedAt.After(*matches[j].PublishedAt)
	})

	total := int64(len(matches))
	start := int(min(params.Skip, int64(len(matches))))
	end := min(start+int(params.Limit), len(matches))

	page := make([]*model.Freelancer, 0, end-start)
	for _, f := range matches[start:end] {
		f.Projects = slices.Clone(f.Projects)
		page = append(page, &f)
	}
	return page, total, nil
}

func matchesSearch(f model.Freelancer, params repository.SearchParams) bool {
	if q := strings.ToLower(params.Query); q != "" {
		text := strings.ToLower(strings.Join(append([]string{f.Name, f.Title, f.Bio}, f.Skills...), " "))
		if !strings.Contains(text, q) {
			return false
		}
	}
	if len(params.Skills) > 0 && !slices.ContainsFunc(f.Skills, func(skill string) bool {
		return slices.ContainsFunc(params.Skills, func(want string) bool { return strings.EqualFold(skill, want) })
	}) {
		return false
	}
	if params.Category != "" && !slices.ContainsFunc(f.Projects, func(p model.ProjectSummary) bool {
		return string(p.Category) == params.Category
	}) {
		return false
	}
	if params.Location != "" && !strings.Contains(strings.ToLower(f.Location), strings.ToLower(params.Location)) {
		return false
	}
	return true
}

func (r *fakeFreelancerRepo) DistinctValues(_ context.Context, field string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var values []string
	for _, f := range r.visible() {
		switch field {
		case repository.FieldSkills:
			values = append(values, f.Skills...)
		case repository.FieldLocation:
			values = append(values, f.Location)
		case repository.FieldProjectCategory:
			for _, p := range f.Projects {
				values = append(values, string(p.Category))
			}
		}
	}
	return values, nil
}

type fakeSender struct {
	mu     sync.Mutex
	emails []mailer.Email
	err    error
}

func (s *fakeSender) Send(email mailer.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.emails = append(s.emails, email)
	return nil
}

func (s *fakeSender) sent() []mailer.Email {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.emails)
}
