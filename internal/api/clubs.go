package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Kerhoff/fastclub/internal/models"
)

type createClubRequest struct {
	Name      string          `json:"name" validate:"required,max=200"`
	ChatID    *int64          `json:"chat_id"`
	AnnualFee decimal.Decimal `json:"annual_fee"`
	Timezone  string          `json:"timezone" validate:"omitempty,timezone"`
}

func (s *Server) handleGetClubs(w http.ResponseWriter, r *http.Request) {
	clubs, err := s.svc.ListClubs(r.Context())
	if err != nil {
		s.respondServiceError(w, err, "get clubs")
		return
	}
	if clubs == nil {
		clubs = []*models.Club{}
	}
	s.respondJSON(w, http.StatusOK, clubs)
}

func (s *Server) handleGetClub(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid club id")
		return
	}

	club, err := s.svc.GetClub(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, err, "get club")
		return
	}
	s.respondJSON(w, http.StatusOK, club)
}

func (s *Server) handleCreateClub(w http.ResponseWriter, r *http.Request) {
	var req createClubRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	club, err := s.svc.CreateClub(r.Context(), &models.Club{
		Name:      req.Name,
		ChatID:    req.ChatID,
		AnnualFee: req.AnnualFee,
		Timezone:  req.Timezone,
	})
	if err != nil {
		s.respondServiceError(w, err, "create club")
		return
	}

	s.logger.WithField("club_id", club.ID).Info("Club created via API")
	s.respondJSON(w, http.StatusCreated, club)
}
