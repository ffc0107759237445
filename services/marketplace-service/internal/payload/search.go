package payload

import (
	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/model"
	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/usecase"
)

type SearchResponse struct {
	Success     bool                `json:"success"`
	Freelancers []*model.Freelancer `json:"freelancers"`
	Pagination  usecase.Pagination  `json:"pagination"`
}

type FiltersResponse struct {
	Success bool             `json:"success"`
	Data    *usecase.Filters `json:"data"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
}
