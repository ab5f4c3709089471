package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/taikai/internal/competition"
	"github.com/hitoshi/taikai/internal/middleware"
	"github.com/hitoshi/taikai/internal/model"
)

// CompetitionServiceInterface は大会ハンドラーが必要とするサービスインターフェース。
type CompetitionServiceInterface interface {
	Create(ctx context.Context, userID string, input competition.CreateInput) (*model.Competition, error)
	Update(ctx context.Context, userID, id string, input competition.UpdateInput) (*model.Competition, error)
	Delete(ctx context.Context, userID, id string) error
	ListMine(ctx context.Context, userID string) ([]model.CompetitionWithCreator, error)
	ListVisible(ctx context.Context) ([]model.CompetitionWithCreator, error)
	GetDetail(ctx context.Context, viewerID, id string) (*model.CompetitionWithCreator, error)
}

// CompetitionHandler は大会管理のHTTPハンドラー。
type CompetitionHandler struct {
	service CompetitionServiceInterface
}

// NewCompetitionHandler はCompetitionHandlerを生成する。
func NewCompetitionHandler(service CompetitionServiceInterface) *CompetitionHandler {
	return &CompetitionHandler{service: service}
}

// competitionRequest は大会の作成・更新リクエストのボディ。
type competitionRequest struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	EventDate        string `json:"event_date"`
	Venue            string `json:"venue"`
	Sport            string `json:"sport"`
	IsVisible        bool   `json:"is_visible"`
	RegistrationOpen bool   `json:"registration_open"`
}

// competitionResponse は大会のAPIレスポンス。
type competitionResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	EventDate        string    `json:"event_date"`
	Venue            string    `json:"venue"`
	Sport            string    `json:"sport"`
	CreatedBy        string    `json:"created_by"`
	CreatorFullName  string    `json:"creator_full_name,omitempty"`
	IsVisible        bool      `json:"is_visible"`
	RegistrationOpen bool      `json:"registration_open"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toCompetitionResponse(comp *model.Competition) competitionResponse {
	return competitionResponse{
		ID:               comp.ID,
		Name:             comp.Name,
		Description:      comp.Description,
		EventDate:        comp.EventDate,
		Venue:            comp.Venue,
		Sport:            comp.Sport,
		CreatedBy:        comp.CreatedBy,
		IsVisible:        comp.IsVisible,
		RegistrationOpen: comp.RegistrationOpen,
		CreatedAt:        comp.CreatedAt,
		UpdatedAt:        comp.UpdatedAt,
	}
}

func toCompetitionWithCreatorResponse(comp *model.CompetitionWithCreator) competitionResponse {
	resp := toCompetitionResponse(&comp.Competition)
	resp.CreatorFullName = comp.CreatorFullName
	return resp
}

func toCompetitionListResponse(comps []model.CompetitionWithCreator) []competitionResponse {
	resp := make([]competitionResponse, 0, len(comps))
	for i := range comps {
		resp = append(resp, toCompetitionWithCreatorResponse(&comps[i]))
	}
	return resp
}

// Create は大会を作成する。
// POST /api/competitions
func (h *CompetitionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req competitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	comp, err := h.service.Create(r.Context(), userID, competition.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		EventDate:   req.EventDate,
		Venue:       req.Venue,
		Sport:       req.Sport,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCompetitionResponse(comp))
}

// Update は自分が作成した大会を更新する。
// PUT /api/competitions/{id}
func (h *CompetitionHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req competitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	comp, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), competition.UpdateInput{
		Name:             req.Name,
		Description:      req.Description,
		EventDate:        req.EventDate,
		Venue:            req.Venue,
		Sport:            req.Sport,
		IsVisible:        req.IsVisible,
		RegistrationOpen: req.RegistrationOpen,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCompetitionResponse(comp))
}

// Delete は自分が作成した大会を削除する。
// DELETE /api/competitions/{id}
func (h *CompetitionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMine は自分が作成した大会の一覧を返す。
// GET /api/competitions/mine
func (h *CompetitionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	comps, err := h.service.ListMine(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCompetitionListResponse(comps))
}

// ListVisible は公開中の大会の一覧を返す。認証不要。
// GET /api/competitions
func (h *CompetitionHandler) ListVisible(w http.ResponseWriter, r *http.Request) {
	comps, err := h.service.ListVisible(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCompetitionListResponse(comps))
}

// GetDetail は大会の詳細を返す。
// 未認証でも公開中の大会は閲覧できる。非公開の大会は作成者・運営者のみ。
// GET /api/competitions/{id}
func (h *CompetitionHandler) GetDetail(w http.ResponseWriter, r *http.Request) {
	// 未認証の場合は空のviewerIDで非公開チェックに委ねる
	viewerID, _ := middleware.UserIDFromContext(r.Context())

	comp, err := h.service.GetDetail(r.Context(), viewerID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCompetitionWithCreatorResponse(comp))
}
