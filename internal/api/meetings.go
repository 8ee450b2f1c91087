package api

import (
	"net/http"
	"time"

	"github.com/Kerhoff/fastclub/internal/models"
)

type meetingRuleRequest struct {
	MeetingType string `json:"meeting_type" validate:"required,oneof=board_meeting general_assembly fireside"`
	WeekOfMonth int    `json:"week_of_month" validate:"oneof=1 2 3 4 -1"`
	DayOfWeek   int    `json:"day_of_week" validate:"min=0,max=6"`
	TimeOfDay   string `json:"time_of_day" validate:"required"`
	Location    string `json:"location" validate:"max=200"`
	Active      *bool  `json:"active"`
}

type replaceMeetingRulesRequest struct {
	ClubID int64                `json:"club_id" validate:"required,gt=0"`
	Rules  []meetingRuleRequest `json:"rules" validate:"dive"`
}

type createEventRequest struct {
	ClubID      int64  `json:"club_id" validate:"required,gt=0"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	StartTime   string `json:"start_time" validate:"required"` // RFC 3339
	EndTime     string `json:"end_time"`                       // RFC 3339, optional
	AllDay      bool   `json:"all_day"`
	Location    string `json:"location" validate:"max=200"`
	CreatedByID *int64 `json:"created_by_id"`
}

func (s *Server) handleGetMeetingRules(w http.ResponseWriter, r *http.Request) {
	clubID, ok := s.requireClubID(w, r)
	if !ok {
		return
	}

	rules, err := s.svc.ListMeetingRules(r.Context(), clubID)
	if err != nil {
		s.respondServiceError(w, err, "get meeting rules")
		return
	}
	if rules == nil {
		rules = []*models.MeetingRule{}
	}

	s.respondJSON(w, http.StatusOK, rules)
}

func (s *Server) handleReplaceMeetingRules(w http.ResponseWriter, r *http.Request) {
	var req replaceMeetingRulesRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	rules := make([]*models.MeetingRule, 0, len(req.Rules))
	for _, rr := range req.Rules {
		active := true
		if rr.Active != nil {
			active = *rr.Active
		}
		rules = append(rules, &models.MeetingRule{
			MeetingType: models.MeetingType(rr.MeetingType),
			WeekOfMonth: rr.WeekOfMonth,
			DayOfWeek:   rr.DayOfWeek,
			TimeOfDay:   rr.TimeOfDay,
			Location:    rr.Location,
			Active:      active,
		})
	}

	stored, err := s.svc.ReplaceMeetingRules(r.Context(), req.ClubID, rules)
	if err != nil {
		s.respondServiceError(w, err, "replace meeting rules")
		return
	}

	s.respondJSON(w, http.StatusOK, stored)
}

func (s *Server) handleUpcomingMeetings(w http.ResponseWriter, r *http.Request) {
	clubID, ok := s.requireClubID(w, r)
	if !ok {
		return
	}
	months, err := queryInt(r, "months", -1)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	occurrences, err := s.svc.UpcomingMeetings(r.Context(), clubID, months)
	if err != nil {
		s.respondServiceError(w, err, "get upcoming meetings")
		return
	}
	if occurrences == nil {
		occurrences = []models.MeetingOccurrence{}
	}

	s.respondJSON(w, http.StatusOK, occurrences)
}

func (s *Server) handleAgenda(w http.ResponseWriter, r *http.Request) {
	clubID, ok := s.requireClubID(w, r)
	if !ok {
		return
	}
	months, err := queryInt(r, "months", -1)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := s.svc.Agenda(r.Context(), clubID, months)
	if err != nil {
		s.respondServiceError(w, err, "get agenda")
		return
	}

	s.respondJSON(w, http.StatusOK, items)
}

// ---------------------------------------------------------------------------
// Calendar Events
// ---------------------------------------------------------------------------

func (s *Server) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	clubID, ok := s.requireClubID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	var from, to *time.Time
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "from must be RFC 3339 format")
			return
		}
		from = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "to must be RFC 3339 format")
			return
		}
		to = &t
	}

	events, err := s.svc.ListEvents(r.Context(), clubID, from, to)
	if err != nil {
		s.respondServiceError(w, err, "get events")
		return
	}
	if events == nil {
		events = []*models.CalendarEvent{}
	}

	s.respondJSON(w, http.StatusOK, events)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "start_time must be RFC 3339 format")
		return
	}

	event := &models.CalendarEvent{
		ClubID:      req.ClubID,
		Title:       req.Title,
		Description: req.Description,
		StartTime:   startTime,
		AllDay:      req.AllDay,
		Location:    req.Location,
		CreatedByID: req.CreatedByID,
	}

	if req.EndTime != "" {
		t, err := time.Parse(time.RFC3339, req.EndTime)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "end_time must be RFC 3339 format")
			return
		}
		event.EndTime = &t
	}

	created, err := s.svc.CreateEvent(r.Context(), event)
	if err != nil {
		s.respondServiceError(w, err, "create event")
		return
	}

	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	if err := s.svc.DeleteEvent(r.Context(), id); err != nil {
		s.respondServiceError(w, err, "delete event")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}
