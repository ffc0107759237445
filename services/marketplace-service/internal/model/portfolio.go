package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ProjectCategory classifies a showcased project.
type ProjectCategory string

const (
	CategoryWebDevelopment    ProjectCategory = "web-development"
	CategoryMobileDevelopment ProjectCategory = "mobile-development"
	CategoryUIUXDesign        ProjectCategory = "ui-ux-design"
	CategoryGraphicDesign     ProjectCategory = "graphic-design"
	CategoryDataScience       ProjectCategory = "data-science"
	CategoryDevOps            ProjectCategory = "devops"
	CategoryWriting           ProjectCategory = "writing"
	CategoryMarketing         ProjectCategory = "marketing"
	CategoryOther             ProjectCategory = "other"
)

// ProjectCategories lists every category in display order.
var ProjectCategories = []ProjectCategory{
	CategoryWebDevelopment,
	CategoryMobileDevelopment,
	CategoryUIUXDesign,
	CategoryGraphicDesign,
	CategoryDataScience,
	CategoryDevOps,
	CategoryWriting,
	CategoryMarketing,
	CategoryOther,
}

// ExperienceLevels are the static experience buckets offered as a search filter.
var ExperienceLevels = []string{"entry", "intermediate", "expert"}

// Portfolio is a freelancer's public profile plus an ordered list of projects.
// There is exactly one per freelancer, keyed by UserID.
type Portfolio struct {
	ID          bson.ObjectID `bson:"_id,omitempty"          json:"id"`
	UserID      bson.ObjectID `bson:"user_id"                json:"userId"`
	Name        string        `bson:"name"                   json:"name"`
	Title       string        `bson:"title"                  json:"title"`
	Bio         string        `bson:"bio"                    json:"bio"`
	Email       string        `bson:"email"                  json:"email"`
	Phone       string        `bson:"phone"                  json:"phone"`
	Location    string        `bson:"location"               json:"location"`
	Avatar      string        `bson:"avatar"                 json:"avatar"`
	HourlyRate  float64       `bson:"hourly_rate"            json:"hourlyRate"`
	Experience  string        `bson:"experience"             json:"experience"`
	Skills      []string      `bson:"skills"                 json:"skills"`
	SocialLinks SocialLinks   `bson:"social_links"           json:"socialLinks"`
	Projects    []Project     `bson:"projects"               json:"projects"`
	IsPublished bool          `bson:"is_published"           json:"isPublished"`
	IsPublic    bool          `bson:"is_public"              json:"isPublic"`
	PublishedAt *time.Time    `bson:"published_at,omitempty" json:"publishedAt,omitempty"`
	LastSavedAt time.Time     `bson:"last_saved_at"          json:"lastSavedAt"`
	CreatedAt   time.Time     `bson:"created_at"             json:"createdAt"`
	UpdatedAt   time.Time     `bson:"updated_at"             json:"updatedAt"`
}

type SocialLinks struct {
	Website  string `bson:"website"  json:"website"`
	GitHub   string `bson:"github"   json:"github"`
	LinkedIn string `bson:"linkedin" json:"linkedin"`
	Twitter  string `bson:"twitter"  json:"twitter"`
}

// Project is a showcased piece of work embedded in a Portfolio.
type Project struct {
	ID           bson.ObjectID   `bson:"_id"          json:"id"`
	Title        string          `bson:"title"        json:"title"`
	Description  string          `bson:"description"  json:"description"`
	MediaURL     string          `bson:"media_url"    json:"mediaUrl"`
	Technologies []string        `bson:"technologies" json:"technologies"`
	Category     ProjectCategory `bson:"category"     json:"category"`
	Links        ProjectLinks    `bson:"links"        json:"links"`
	IsPublic     bool            `bson:"is_public"    json:"isPublic"`
	CreatedAt    time.Time       `bson:"created_at"   json:"createdAt"`
	UpdatedAt    time.Time       `bson:"updated_at"   json:"updatedAt"`
}

type ProjectLinks struct {
	Live       string `bson:"live"       json:"live"`
	Repository string `bson:"repository" json:"repository"`
}

// Visible reports whether the portfolio may be shown to anyone but its owner.
func (p *Portfolio) Visible() bool {
	return p.IsPublished && p.IsPublic
}

// PublicProjects returns the projects marked public, preserving order.
func (p *Portfolio) PublicProjects() []Project {
	projects := make([]Project, 0, len(p.Projects))
	for _, project := range p.Projects {
		if project.IsPublic {
			projects = append(projects, project)
		}
	}
	return projects
}
