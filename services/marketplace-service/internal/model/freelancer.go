package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Freelancer is the denormalized search record derived from a Portfolio.
// Search reads only this collection, so every portfolio mutation rewrites it.
type Freelancer struct {
	ID          bson.ObjectID    `bson:"_id,omitempty"          json:"-"`
	UserID      bson.ObjectID    `bson:"user_id"                json:"id"`
	Name        string           `bson:"name"                   json:"name"`
	Title       string           `bson:"title"                  json:"title"`
	Bio         string           `bson:"bio"                    json:"bio"`
	Avatar      string           `bson:"avatar"                 json:"avatar"`
	Location    string           `bson:"location"               json:"location"`
	Skills      []string         `bson:"skills"                 json:"skills"`
	HourlyRate  float64          `bson:"hourly_rate"            json:"hourlyRate"`
	Experience  string           `bson:"experience"             json:"experience"`
	Projects    []ProjectSummary `bson:"projects"               json:"projects"`
	IsPublished bool             `bson:"is_published"           json:"-"`
	IsPublic    bool             `bson:"is_public"              json:"-"`
	PublishedAt *time.Time       `bson:"published_at,omitempty" json:"publishedAt,omitempty"`
	UpdatedAt   time.Time        `bson:"updated_at"             json:"updatedAt"`
}

// ProjectSummary is the slice of a Project that search results need.
type ProjectSummary struct {
	ID           bson.ObjectID   `bson:"_id"          json:"id"`
	Title        string          `bson:"title"        json:"title"`
	Category     ProjectCategory `bson:"category"     json:"category"`
	Technologies []string        `bson:"technologies" json:"technologies"`
	MediaURL     string          `bson:"media_url"    json:"mediaUrl"`
	IsPublic     bool            `bson:"is_public"    json:"-"`
}

// NewFreelancerFromPortfolio builds the search record mirroring p.
func NewFreelancerFromPortfolio(p *Portfolio) *Freelancer {
	projects := make([]ProjectSummary, 0, len(p.Projects))
	for _, project := range p.Projects {
		projects = append(projects, ProjectSummary{
			ID:           project.ID,
			Title:        project.Title,
			Category:     project.Category,
			Technologies: project.Technologies,
			MediaURL:     project.MediaURL,
			IsPublic:     project.IsPublic,
		})
	}

	return &Freelancer{
		UserID:      p.UserID,
		Name:        p.Name,
		Title:       p.Title,
		Bio:         p.Bio,
		Avatar:      p.Avatar,
		Location:    p.Location,
		Skills:      p.Skills,
		HourlyRate:  p.HourlyRate,
		Experience:  p.Experience,
		Projects:    projects,
		IsPublished: p.IsPublished,
		IsPublic:    p.IsPublic,
		PublishedAt: p.PublishedAt,
	}
}

// FeaturedProjects returns at most n public project summaries in portfolio order.
func (f *Freelancer) FeaturedProjects(n int) []ProjectSummary {
	featured := make([]ProjectSummary, 0, n)
	for _, project := range f.Projects {
		if len(featured) == n {
			break
		}
		if project.IsPublic {
			featured = append(featured, project)
		}
	}
	return featured
}
