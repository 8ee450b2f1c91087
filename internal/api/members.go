package api

import (
	"net/http"

	"github.com/Kerhoff/fastclub/internal/models"
	"github.com/Kerhoff/fastclub/internal/service"
)

type createMemberRequest struct {
	ClubID              int64  `json:"club_id" validate:"required,gt=0"`
	TelegramID          *int64 `json:"telegram_id"`
	FirstName           string `json:"first_name" validate:"required,max=100"`
	LastName            string `json:"last_name" validate:"max=100"`
	Email               string `json:"email" validate:"omitempty,email"`
	MembershipStartDate string `json:"membership_start_date" validate:"required,datetime=2006-01-02"`
	Status              string `json:"status" validate:"omitempty,oneof=active honorary emeritus guest inactive"`
	CurrentPosition     string `json:"current_position" validate:"max=100"`
}

// updateMemberRequest has no start date field: it cannot be changed.
type updateMemberRequest struct {
	TelegramID      *int64  `json:"telegram_id"`
	FirstName       *string `json:"first_name" validate:"omitempty,max=100"`
	LastName        *string `json:"last_name" validate:"omitempty,max=100"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Status          *string `json:"status" validate:"omitempty,oneof=active honorary emeritus guest inactive"`
	CurrentPosition *string `json:"current_position" validate:"omitempty,max=100"`
}

func (s *Server) handleGetMembers(w http.ResponseWriter, r *http.Request) {
	clubID, ok := s.requireClubID(w, r)
	if !ok {
		return
	}

	var status *models.MemberStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := models.MemberStatus(raw)
		status = &st
	}

	members, err := s.svc.ListMembers(r.Context(), clubID, status)
	if err != nil {
		s.respondServiceError(w, err, "get members")
		return
	}
	if members == nil {
		members = []*models.Member{}
	}

	s.respondJSON(w, http.StatusOK, members)
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	member, err := s.svc.GetMember(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, err, "get member")
		return
	}

	s.respondJSON(w, http.StatusOK, member)
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var req createMemberRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	start, err := parseDate("membership_start_date", req.MembershipStartDate)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	member := &models.Member{
		ClubID:              req.ClubID,
		TelegramID:          req.TelegramID,
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Email:               req.Email,
		MembershipStartDate: start,
		Status:              models.MemberStatus(req.Status),
		CurrentPosition:     req.CurrentPosition,
	}

	created, err := s.svc.CreateMember(r.Context(), member)
	if err != nil {
		s.respondServiceError(w, err, "create member")
		return
	}

	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	var req updateMemberRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	upd := service.MemberUpdate{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		CurrentPosition: req.CurrentPosition,
		TelegramID:      req.TelegramID,
	}
	if req.Status != nil {
		st := models.MemberStatus(*req.Status)
		upd.Status = &st
	}

	updated, err := s.svc.UpdateMember(r.Context(), id, upd)
	if err != nil {
		s.respondServiceError(w, err, "update member")
		return
	}

	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	if err := s.svc.DeleteMember(r.Context(), id); err != nil {
		s.respondServiceError(w, err, "delete member")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}
