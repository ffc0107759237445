package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/model"
	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/payload"
	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/repository"
	"github.com/vasapolrittideah/freelance-hub-api/services/marketplace-service/internal/usecase"
	"github.com/vasapolrittideah/freelance-hub-api/shared/response"
)

type portfolioHTTPHandler struct {
	portfolioUsecase usecase.PortfolioUsecase
	decoder          requestDecoder
	logger           *zerolog.Logger
}

func (h *portfolioHTTPHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUserID(w, r)
	if !ok {
		return
	}

	var req payload.SavePortfolioRequest
	if !h.decoder.decode(w, r, &req) {
		return
	}

	params := usecase.SavePortfolioParams{
		Name:       req.Name,
		Title:      req.Title,
		Bio:        req.Bio,
		Email:      req.Email,
		Phone:      req.Phone,
		Location:   req.Location,
		Avatar:     req.Avatar,
		HourlyRate: req.HourlyRate,
		Experience: req.Experience,
		Skills:     req.Skills,
		SocialLinks: model.SocialLinks{
			Website:  req.SocialLinks.Website,
			GitHub:   req.SocialLinks.GitHub,
			LinkedIn: req.SocialLinks.LinkedIn,
			Twitter:  req.SocialLinks.Twitter,
		},
	}
	if req.Projects != nil {
		params.Projects = make([]usecase.ProjectParams, 0, len(req.Projects))
		for _, p := range req.Projects {
			params.Projects = append(params.Projects, projectParams(p))
		}
	}

	portfolio, err := h.portfolioUsecase.SavePortfolio(r.Context(), userID, params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, payload.PortfolioResponse{
		Success: true,
		Message: "Portfolio saved successfully",
		Data:    portfolio,
	})
}

func (h *portfolioHTTPHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUserID(w, r)
	if !ok {
		return
	}

	portfolio, err := h.portfolioUsecase.GetMyPortfolio(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, payload.PortfolioResponse{Success: true, Data: portfolio})
}

func (h *portfolioHTTPHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	portfolio, err := h.portfolioUsecase.GetPublicPortfolio(r.Context(), chi.URLParam(r, "freelancerId"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, payload.PortfolioResponse{Success: true, Data: portfolio})
}

func (h *portfolioHTTPHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, true)
}

func (h *portfolioHTTPHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, false)
}

func (h *portfolioHTTPHandler) setPublished(w http.ResponseWriter, r *http.Request, published bool) {
	userID, ok := sessionUserID(w, r)
	if !ok {
		return
	}

	var (
		portfolio *model.Portfolio
		err       error
		message   string
	)
	if published {
		portfolio, err = h.portfolioUsecase.PublishPortfolio(r.Context(), userID)
		message = "Portfolio published successfully"
	} else {
		portfolio, err = h.portfolioUsecase.UnpublishPortfolio(r.Context(), userID)
		message = "Portfolio unpublished successfully"
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, payload.PortfolioResponse{Success: true, Message: message, Data: portfolio})
}

func (h *portfolioHTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUserID(w, r)
	if !ok {
		return
	}

	if err := h.portfolioUsecase.DeletePortfolio(r.Context(), userID); err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, payload.MessageResponse{Success: true, Message: "Portfolio deleted successfully"})
}

func (h *portfolioHTTPHandler) AddProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUserID(w, r)
	if !ok {
		return
	}

	var req payload.ProjectRequest
	if !h.decoder.decode(w, r, &req) {
		return
	}

	portfolio, err := h.portfolioUsecase.AddProject(r.Context(), userID, projectParams(req))
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, payload.PortfolioResponse{
		Success: true,
		Message: "Project added successfully",
		Data:    portfolio,
	})
}

func (h *portfolioHTTPHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUserID(w, r)
	if !ok {
		return
	}

	var req payload.UpdateProjectRequest
	if !h.decoder.decode(w, r, &req) {
		return
	}

	params := repository.UpdateProjectParams{
		Title:        req.Title,
		Description:  req.Description,
		MediaURL:     req.MediaURL,
		Technologies: req.Technologies,
		IsPublic:     req.IsPublic,
	}
	if req.Category != nil {
		category := model.ProjectCategory(*req.Category)
		params.Category = &category
	}
	if req.Links != nil {
		params.LiveURL = req.Links.Live
		params.RepositoryURL = req.Links.Repository
	}

	portfolio, err := h.portfolioUsecase.UpdateProject(r.Context(), userID, chi.URLParam(r, "projectId"), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, payload.PortfolioResponse{
		Success: true,
		Message: "Project updated successfully",
		Data:    portfolio,
	})
}

func (h *portfolioHTTPHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUserID(w, r)
	if !ok {
		return
	}

	portfolio, err := h.portfolioUsecase.DeleteProject(r.Context(), userID, chi.URLParam(r, "projectId"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, payload.PortfolioResponse{
		Success: true,
		Message: "Project deleted successfully",
		Data:    portfolio,
	})
}

func projectParams(req payload.ProjectRequest) usecase.ProjectParams {
	return usecase.ProjectParams{
		ID:            req.ID,
		Title:         req.Title,
		Description:   req.Description,
		MediaURL:      req.MediaURL,
		Technologies:  req.Technologies,
		Category:      model.ProjectCategory(req.Category),
		LiveURL:       req.Links.Live,
		RepositoryURL: req.Links.Repository,
		IsPublic:      req.IsPublic,
	}
}
