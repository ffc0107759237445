package payload

type SavePortfolioRequest struct {
	Name        string             `json:"name"        validate:"max=100"`
	Title       string             `json:"title"       validate:"max=150"`
	Bio         string             `json:"bio"         validate:"max=2000"`
	Email       string             `json:"email"       validate:"omitempty,email"`
	Phone       string             `json:"phone"       validate:"max=30"`
	Location    string             `json:"location"    validate:"max=150"`
	Avatar      string             `json:"avatar"      validate:"max=2048"`
	HourlyRate  float64            `json:"hourlyRate"  validate:"gte=0"`
	Experience  string             `json:"experience"  validate:"omitempty,oneof=entry intermediate expert"`
	Skills      []string           `json:"skills"      validate:"max=50,dive,max=50"`
	SocialLinks SocialLinksRequest `json:"socialLinks"`
	// Projects replaces the stored projects when present. Omit it to keep them.
	Projects []ProjectRequest `json:"projects" validate:"omitempty,max=100,dive"`
}

type SocialLinksRequest struct {
	Website  string `json:"website"  validate:"omitempty,url"`
	GitHub   string `json:"github"   validate:"omitempty,url"`
	LinkedIn string `json:"linkedin" validate:"omitempty,url"`
	Twitter  string `json:"twitter"  validate:"omitempty,url"`
}

type ProjectRequest struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"        validate:"required,max=150"`
	Description  string              `json:"description"  validate:"max=5000"`
	MediaURL     string              `json:"mediaUrl"     validate:"max=2048"`
	Technologies []string            `json:"technologies" validate:"max=30,dive,max=50"`
	Category     string              `json:"category"     validate:"omitempty,oneof=web-development mobile-development ui-ux-design graphic-design data-science devops writing marketing other"`
	Links        ProjectLinksRequest `json:"links"`
	IsPublic     bool                `json:"isPublic"`
}

type ProjectLinksRequest struct {
	Live       string `json:"live"       validate:"omitempty,url"`
	Repository string `json:"repository" validate:"omitempty,url"`
}

// UpdateProjectRequest is a partial project update. Only fields present in the body change.
type UpdateProjectRequest struct {
	Title        *string                    `json:"title"        validate:"omitempty,min=1,max=150"`
	Description  *string                    `json:"description"  validate:"omitempty,max=5000"`
	MediaURL     *string                    `json:"mediaUrl"     validate:"omitempty,max=2048"`
	Technologies *[]string                  `json:"technologies" validate:"omitempty,max=30,dive,max=50"`
	Category     *string                    `json:"category"     validate:"omitempty,oneof=web-development mobile-development ui-ux-design graphic-design data-science devops writing marketing other"`
	Links        *UpdateProjectLinksRequest `json:"links"`
	IsPublic     *bool                      `json:"isPublic"`
}

type UpdateProjectLinksRequest struct {
	Live       *string `json:"live"       validate:"omitempty,url"`
	Repository *string `json:"repository" validate:"omitempty,url"`
}

type PortfolioResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}
