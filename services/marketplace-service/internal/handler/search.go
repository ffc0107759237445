package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/payload"
	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/usecase"
	"github.com/vasapolrittideah/freelance-hub-api/shared/response"
)

type searchHTTPHandler struct {
	searchUsecase usecase.SearchUsecase
	logger        *zerolog.Logger
}

func (h *searchHTTPHandler) SearchFreelancers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	result, err := h.searchUsecase.SearchFreelancers(r.Context(), usecase.SearchParams{
		Query:    strings.TrimSpace(query.Get("query")),
		Skills:   splitList(query["skills"]),
		Category: strings.TrimSpace(query.Get("category")),
		Location: strings.TrimSpace(query.Get("location")),
		Page:     atoiOrZero(query.Get("page")),
		Limit:    atoiOrZero(query.Get("limit")),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, payload.SearchResponse{
		Success:     true,
		Freelancers: result.Freelancers,
		Pagination:  result.Pagination,
	})
}

func (h *searchHTTPHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	filters, err := h.searchUsecase.GetFilters(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, payload.FiltersResponse{Success: true, Data: filters})
}

// splitList accepts both repeated parameters and comma separated values.
func splitList(values []string) []string {
	var items []string
	for _, value := range values {
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
	}
	return items
}

// atoiOrZero parses a query number. Malformed values fall back to the usecase defaults.
func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
