package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/taikai/internal/middleware"
	"github.com/hitoshi/taikai/internal/model"
)

// ParticipationServiceInterface は参加登録ハンドラーが必要とするサービスインターフェース。
type ParticipationServiceInterface interface {
	Join(ctx context.Context, userID, competitionID string) (*model.Participation, error)
	ListJoinedIDs(ctx context.Context, userID string) ([]string, error)
	Roster(ctx context.Context, viewerID, competitionID string) ([]model.Participant, error)
}

// ParticipationHandler は参加登録のHTTPハンドラー。
type ParticipationHandler struct {
	service ParticipationServiceInterface
}

// NewParticipationHandler はParticipationHandlerを生成する。
func NewParticipationHandler(service ParticipationServiceInterface) *ParticipationHandler {
	return &ParticipationHandler{service: service}
}

// participationResponse は参加登録のAPIレスポンス。
type participationResponse struct {
	ID            string    `json:"id"`
	CompetitionID string    `json:"competition_id"`
	JoinedAt      time.Time `json:"joined_at"`
}

// participantResponse は参加者名簿1行のAPIレスポンス。
// Emailは開示対象の閲覧者にのみ含まれる。
type participantResponse struct {
	UserID   string    `json:"user_id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email,omitempty"`
	JoinedAt time.Time `json:"joined_at"`
}

// Join は大会に参加登録する。
// POST /api/competitions/{id}/join
func (h *ParticipationHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	p, err := h.service.Join(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, participationResponse{
		ID:            p.ID,
		CompetitionID: p.CompetitionID,
		JoinedAt:      p.JoinedAt,
	})
}

// ListJoined は自分が参加登録済みの大会IDの一覧を返す。
// GET /api/participations/mine
func (h *ParticipationHandler) ListJoined(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	ids, err := h.service.ListJoinedIDs(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"competition_ids": ids})
}

// Roster は大会の参加者名簿を返す。
// GET /api/competitions/{id}/participants
func (h *ParticipationHandler) Roster(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	participants, err := h.service.Roster(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]participantResponse, 0, len(participants))
	for _, p := range participants {
		resp = append(resp, participantResponse{
			UserID:   p.UserID,
			FullName: p.FullName,
			Email:    p.Email,
			JoinedAt: p.JoinedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
